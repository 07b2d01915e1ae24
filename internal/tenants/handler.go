package tenants

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
	"github.com/smartnex-ai/backend/pkg/utils"
)

// Store is the persistence used by the handler.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListByPG(ctx context.Context, pgID uuid.UUID) ([]models.TenantPublic, error)
	ListUnassigned(ctx context.Context, pgID uuid.UUID) ([]models.UnassignedTenant, error)
	Update(ctx context.Context, id uuid.UUID, name, mobile, address string) (*models.Tenant, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateRequest is the body for POST /tenants.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Address  string `json:"address"`
	PGID     string `json:"pgId" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// UpdateRequest is the body for PUT /tenants.
type UpdateRequest struct {
	TenantID string `json:"tenantId" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Mobile   string `json:"mobile" binding:"required"`
	Address  string `json:"address"`
}

// ChangePasswordRequest is the body for PUT /tenants/change-password. Admins name the tenant.
type ChangePasswordRequest struct {
	TenantID        string `json:"tenantId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// Handler serves tenant lifecycle endpoints.
type Handler struct {
	store  Store
	guard  *access.Guard
	logger *zap.Logger
}

// NewHandler creates a tenant handler.
func NewHandler(store Store, guard *access.Guard, logger *zap.Logger) *Handler {
	return &Handler{store: store, guard: guard, logger: logger}
}

// Create handles POST /tenants. The tenant starts unassigned and belongs to the PG's owner.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name, mobile, pgId and a password of at least 6 characters are required")
		return
	}
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", req.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	pg, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	t, err := h.store.Create(ctx, CreateParams{
		OwnerID:      pg.OwnerID,
		PGID:         pg.ID,
		Name:         strings.TrimSpace(req.Name),
		Mobile:       strings.TrimSpace(req.Mobile),
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: hash,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, t.ToPublic())
}

// List handles GET /tenants?pgId=.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListByPG(ctx, pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Unassigned handles GET /tenants/unassigned?pgId=.
func (h *Handler) Unassigned(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListUnassigned(ctx, pgID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Update handles PUT /tenants.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "tenantId, name and mobile are required")
		return
	}
	ctx := c.Request.Context()
	id, err := access.ParseID("tenantId", req.TenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if p.Role == models.RoleTenant {
		response.Forbidden(c, "not authorized for this tenant")
		return
	}
	if _, err := h.guard.Tenant(ctx, p, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	t, err := h.store.Update(ctx, id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Mobile), strings.TrimSpace(req.Address))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Tenant updated", t.ToPublic())
}

// Delete handles DELETE /tenants?tenantId=.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := access.ParseID("tenantId", c.Query("tenantId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if p.Role == models.RoleTenant {
		response.Forbidden(c, "not authorized for this tenant")
		return
	}
	if _, err := h.guard.Tenant(ctx, p, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.store.Delete(ctx, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Tenant deleted", nil)
}

// ChangePassword handles PUT /tenants/change-password. Tenants must prove the current password;
// the owning admin may reset it directly.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "newPassword of at least 6 characters is required")
		return
	}
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)

	tenantID := p.ID
	if p.Role != models.RoleTenant {
		id, err := access.ParseID("tenantId", req.TenantID)
		if err != nil {
			response.Error(c, h.logger, err)
			return
		}
		tenantID = id
	}
	t, err := h.guard.Tenant(ctx, p, tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if p.Role == models.RoleTenant && !utils.CheckPassword(req.CurrentPassword, t.Password) {
		response.Forbidden(c, "Current password is incorrect")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.store.UpdatePassword(ctx, t.ID, hash); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Password updated successfully", nil)
}
