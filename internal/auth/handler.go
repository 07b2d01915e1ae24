package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
	"github.com/smartnex-ai/backend/pkg/utils"
)

const invalidCredentials = "Invalid credentials"

// UserStore looks up admin accounts.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TenantStore looks up tenant accounts.
type TenantStore interface {
	GetByMobile(ctx context.Context, mobile string) (*models.Tenant, error)
}

// PGStore resolves the PG shown to a tenant after login.
type PGStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error)
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TenantLoginRequest is the body for POST /auth/user-login.
type TenantLoginRequest struct {
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CheckMobileRequest is the body for POST /auth/tenant-check-mobile.
type CheckMobileRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

// TokenResponse is the admin login response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// TenantPG is the PG summary returned to a tenant.
type TenantPG struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// TenantTokenResponse is the tenant login response.
type TenantTokenResponse struct {
	Token  string              `json:"token"`
	Tenant models.TenantPublic `json:"tenant"`
	PG     *TenantPG           `json:"pg"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users    UserStore
	tenants  TenantStore
	pgs      PGStore
	sessions *Sessions
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, tenants TenantStore, pgs PGStore, sessions *Sessions, logger *zap.Logger) *Handler {
	return &Handler{users: users, tenants: tenants, pgs: pgs, sessions: sessions, logger: logger}
}

// Login handles POST /auth/login for admins and superadmins.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.Unauthorized(c, invalidCredentials)
			return
		}
		response.Error(c, h.logger, err)
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, invalidCredentials)
		return
	}

	// Superadmins reach the product-agnostic dashboard, so they carry no product key.
	productKey := ""
	if user.Role == models.RoleAdmin {
		productKey = user.PrimaryProductKey()
	}
	token, err := h.sessions.Issue(ctx, models.Principal{ID: user.ID, Role: user.Role, ProductKey: productKey})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	pub := user.ToPublic()
	pub.ProductKey = productKey
	response.OKMessage(c, "Login successful", TokenResponse{Token: token, User: pub})
}

// TenantLogin handles POST /auth/user-login: mobile plus password.
func (h *Handler) TenantLogin(c *gin.Context) {
	var req TenantLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "mobile and password are required")
		return
	}
	ctx := c.Request.Context()

	tenant, err := h.tenants.GetByMobile(ctx, normalizeMobile(req.Mobile))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.Unauthorized(c, invalidCredentials)
			return
		}
		response.Error(c, h.logger, err)
		return
	}
	if !utils.CheckPassword(req.Password, tenant.Password) {
		response.Unauthorized(c, invalidCredentials)
		return
	}

	var pg *TenantPG
	if tenant.PGID != nil {
		p, err := h.pgs.GetByID(ctx, *tenant.PGID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				response.NotFound(c, "Assigned PG not found")
				return
			}
			response.Error(c, h.logger, err)
			return
		}
		pg = &TenantPG{ID: p.ID, Name: p.Name, Address: p.Address}
	}

	token, err := h.sessions.Issue(ctx, models.Principal{ID: tenant.ID, Role: models.RoleTenant, ProductKey: models.ProductPGManagement})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Login successful", TenantTokenResponse{Token: token, Tenant: tenant.ToPublic(), PG: pg})
}

// CheckMobile handles POST /auth/tenant-check-mobile.
func (h *Handler) CheckMobile(c *gin.Context) {
	var req CheckMobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "mobile is required")
		return
	}
	if _, err := h.tenants.GetByMobile(c.Request.Context(), normalizeMobile(req.Mobile)); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			response.NotFound(c, "No tenant registered with this mobile number")
			return
		}
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Tenant found", gin.H{"exists": true})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	if err := h.sessions.Revoke(c.Request.Context(), p); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Logged out", nil)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	response.OK(c, middleware.CurrentPrincipal(c))
}

// normalizeEmail matches the form emails are stored in by admin creation and seeding.
func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// normalizeMobile matches the form mobiles are stored in by tenant creation.
func normalizeMobile(mobile string) string { return strings.TrimSpace(mobile) }
