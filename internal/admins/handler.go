// Package admins manages PG owner accounts on behalf of the superadmin.
package admins

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
	"github.com/smartnex-ai/backend/pkg/utils"
)

// Store is the persistence used by the handler.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name, email, phone string) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByProduct(ctx context.Context, productKey string) ([]models.UserPublic, error)
}

// ProductLookup resolves product keys.
type ProductLookup interface {
	GetByKey(ctx context.Context, key string) (*models.Product, error)
}

// PGLister lists an owner's PGs with tenant counts.
type PGLister interface {
	ListStatsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PGStats, error)
}

// CreateRequest is the body for POST /admins.
type CreateRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required,min=6"`
	ProductKey string `json:"productKey" binding:"required"`
}

// UpdateRequest is the body for PUT /admins.
type UpdateRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

// Handler serves admin lifecycle endpoints.
type Handler struct {
	store    Store
	products ProductLookup
	pgs      PGLister
	logger   *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(store Store, products ProductLookup, pgs PGLister, logger *zap.Logger) *Handler {
	return &Handler{store: store, products: products, pgs: pgs, logger: logger}
}

// Create handles POST /admins.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name, a valid email, productKey and a password of at least 6 characters are required")
		return
	}
	ctx := c.Request.Context()
	product, err := h.products.GetByKey(ctx, strings.TrimSpace(req.ProductKey))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.BadRequest(c, "Invalid product key")
			return
		}
		response.Error(c, h.logger, err)
		return
	}
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	u, err := h.store.Create(ctx, CreateParams{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Product:      product,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("admin created", zap.String("admin_id", u.ID.String()), zap.String("product", product.Key))
	response.Created(c, u.ToPublic())
}

// Update handles PUT /admins.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "id, name and a valid email are required")
		return
	}
	id, err := access.ParseID("id", req.ID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	u, err := h.store.Update(c.Request.Context(), id, strings.TrimSpace(req.Name),
		strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Phone))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Admin updated", u.ToPublic())
}

// Delete handles DELETE /admins?id=.
func (h *Handler) Delete(c *gin.Context) {
	id, err := access.ParseID("id", c.Query("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Admin deleted", nil)
}

// List handles GET /admins?productKey=, defaulting to PG management.
func (h *Handler) List(c *gin.Context) {
	key := strings.TrimSpace(c.DefaultQuery("productKey", models.ProductPGManagement))
	list, err := h.store.ListByProduct(c.Request.Context(), key)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /admins/:id for the superadmin or the admin itself.
func (h *Handler) Get(c *gin.Context) {
	id, err := access.ParseID("id", c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := access.SelfOrSuperAdmin(middleware.CurrentPrincipal(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	u, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "phone": u.Phone})
}

// PGs handles GET /admins/:id/pgs.
func (h *Handler) PGs(c *gin.Context) {
	id, err := access.ParseID("id", c.Param("id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := access.SelfOrSuperAdmin(middleware.CurrentPrincipal(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.pgs.ListStatsByOwner(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
