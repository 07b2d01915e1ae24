// Package tickets handles maintenance requests raised by tenants.
package tickets

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/realtime"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Store is the persistence used by the handler.
type Store interface {
	Create(ctx context.Context, t *models.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Ticket, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.TicketView, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.TicketView, error)
}

// Notifier publishes owner feed events.
type Notifier interface {
	Notify(ownerID uuid.UUID, event string, payload interface{})
}

// CreateRequest is the body for POST /tickets. Tenants may omit tenantId and roomId.
type CreateRequest struct {
	TenantID    string `json:"tenantId"`
	PGID        string `json:"pgId" binding:"required"`
	RoomID      string `json:"roomId"`
	Description string `json:"description" binding:"required"`
}

// UpdateRequest is the body for PUT /tickets.
type UpdateRequest struct {
	TicketID string `json:"ticketId" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// Handler serves ticket endpoints.
type Handler struct {
	store    Store
	guard    *access.Guard
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a ticket handler. notifier may be nil.
func NewHandler(store Store, guard *access.Guard, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, notifier: notifier, logger: logger}
}

// Create handles POST /tickets.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pgId and description are required")
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		response.BadRequest(c, "description is required")
		return
	}
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)

	pgID, err := access.ParseID("pgId", req.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	tenantID := p.ID
	if p.Role != models.RoleTenant {
		if tenantID, err = access.ParseID("tenantId", req.TenantID); err != nil {
			response.Error(c, h.logger, err)
			return
		}
	}
	tenant, err := h.guard.Tenant(ctx, p, tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	pg, err := h.guard.PG(ctx, p, pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	roomID := tenant.RoomID
	if req.RoomID != "" {
		id, err := access.ParseID("roomId", req.RoomID)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		roomID = &id
	}

	t := &models.Ticket{
		TenantID:    tenant.ID,
		PGID:        pg.ID,
		RoomID:      roomID,
		Description: description,
		Status:      models.TicketStatusOpen,
	}
	if err := h.store.Create(ctx, t); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if h.notifier != nil {
		h.notifier.Notify(pg.OwnerID, realtime.EventTicketCreated, t)
	}
	response.Created(c, t)
}

// List handles GET /tickets?ownerId=. Tenants get their own tickets.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)
	if p.Role == models.RoleTenant {
		list, err := h.store.ListByTenant(ctx, p.ID)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		response.OK(c, list)
		return
	}
	ownerID, err := access.Owner(p, c.Query("ownerId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListByOwner(ctx, ownerID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PUT /tickets. Any non-empty status is accepted.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "ticketId and status are required")
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		response.BadRequest(c, "status is required")
		return
	}
	ctx := c.Request.Context()
	id, err := access.ParseID("ticketId", req.TicketID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	existing, err := h.store.GetByID(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	pg, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), existing.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	t, err := h.store.UpdateStatus(ctx, id, status)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if h.notifier != nil {
		h.notifier.Notify(pg.OwnerID, realtime.EventTicketUpdated, t)
	}
	response.OKMessage(c, "Ticket updated", t)
}
