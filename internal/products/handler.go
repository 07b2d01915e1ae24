package products

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Store is the persistence used by the handler.
type Store interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
}

// Handler serves the product catalog.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a product handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// List handles GET /products: superadmins see the catalog, admins their own products.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)
	var (
		list []models.Product
		err  error
	)
	switch p.Role {
	case models.RoleSuperAdmin:
		list, err = h.store.ListActive(ctx)
	case models.RoleAdmin:
		list, err = h.store.ListActiveByUser(ctx, p.ID)
	default:
		response.Forbidden(c, "insufficient permissions")
		return
	}
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
