package billing

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Handler serves the billing views.
type Handler struct {
	engine *Engine
	guard  *access.Guard
	logger *zap.Logger
}

// NewHandler creates a billing handler.
func NewHandler(engine *Engine, guard *access.Guard, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, guard: guard, logger: logger}
}

// TenantDetails handles GET /payments/tenant-details?tenantId=&date=. Tenants read their own.
func (h *Handler) TenantDetails(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID, err := access.ParseID("tenantId", c.Query("tenantId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ref, err := ParseDate(c.Query("date"), h.engine.Location(), h.engine.Now())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.Tenant(ctx, middleware.CurrentPrincipal(c), tenantID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	detail, err := h.engine.TenantDetail(ctx, tenantID, ref)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, detail)
}

// Status handles GET /payments/status?pgId=&date=.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ref, err := ParseDate(c.Query("date"), h.engine.Location(), h.engine.Now())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	roster, err := h.engine.Roster(ctx, pgID, ref)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, roster)
}
