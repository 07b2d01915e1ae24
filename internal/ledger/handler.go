package ledger

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Mover is the ledger operation set the handler drives.
type Mover interface {
	Assign(ctx context.Context, req MoveRequest) (*models.Assignment, error)
	Upgrade(ctx context.Context, req MoveRequest) (*models.Assignment, error)
	History(ctx context.Context, tenantID uuid.UUID) ([]models.Assignment, error)
}

// AssignRequest is the body for POST /assignments and PUT /tenants/assign.
type AssignRequest struct {
	TenantID string           `json:"tenantId" binding:"required"`
	RoomID   string           `json:"roomId" binding:"required"`
	PGID     string           `json:"pgId" binding:"required"`
	Rent     *decimal.Decimal `json:"rent"`
}

// UpgradeRequest is the body for PUT /assignments/upgrade.
type UpgradeRequest struct {
	TenantID  string           `json:"tenantId" binding:"required"`
	NewRoomID string           `json:"newRoomId" binding:"required"`
	NewPGID   string           `json:"newPgId" binding:"required"`
	NewRent   *decimal.Decimal `json:"newRent"`
}

// Handler serves room assignment endpoints.
type Handler struct {
	ledger Mover
	guard  *access.Guard
	logger *zap.Logger
}

// NewHandler creates a ledger handler.
func NewHandler(ledger Mover, guard *access.Guard, logger *zap.Logger) *Handler {
	return &Handler{ledger: ledger, guard: guard, logger: logger}
}

// Assign handles POST /assignments and PUT /tenants/assign.
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "tenantId, roomId and pgId are required")
		return
	}
	move, err := h.authorize(c, req.TenantID, req.RoomID, req.PGID, req.Rent)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	a, err := h.ledger.Assign(c.Request.Context(), move)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Tenant assigned", a)
}

// Upgrade handles PUT /assignments/upgrade.
func (h *Handler) Upgrade(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "tenantId, newRoomId and newPgId are required")
		return
	}
	move, err := h.authorize(c, req.TenantID, req.NewRoomID, req.NewPGID, req.NewRent)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	a, err := h.ledger.Upgrade(c.Request.Context(), move)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Tenant upgraded", a)
}

// History handles GET /assignments?tenantId=.
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, err := access.ParseID("tenantId", c.Query("tenantId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.Tenant(ctx, middleware.CurrentPrincipal(c), tenantID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.ledger.History(ctx, tenantID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// authorize parses the ids and checks the caller manages both the target PG and the tenant.
func (h *Handler) authorize(c *gin.Context, rawTenant, rawRoom, rawPG string, rent *decimal.Decimal) (MoveRequest, error) {
	tenantID, err := access.ParseID("tenantId", rawTenant)
	if err != nil {
		return MoveRequest{}, err
	}
	roomID, err := access.ParseID("roomId", rawRoom)
	if err != nil {
		return MoveRequest{}, err
	}
	pgID, err := access.ParseID("pgId", rawPG)
	if err != nil {
		return MoveRequest{}, err
	}
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)
	if _, err := h.guard.ManagePG(ctx, p, pgID); err != nil {
		return MoveRequest{}, err
	}
	if _, err := h.guard.Tenant(ctx, p, tenantID); err != nil {
		return MoveRequest{}, err
	}
	return MoveRequest{TenantID: tenantID, RoomID: roomID, PGID: pgID, Rent: rent}, nil
}
