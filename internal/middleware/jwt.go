package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
)

const (
	// ContextUserID is the key for the caller's ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for the caller's role in gin context.
	ContextUserRole = "user_role"
	// ContextPrincipal is the key for the full models.Principal in gin context.
	ContextPrincipal = "principal"
)

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// JWT returns a middleware that validates the bearer token against the session store and sets
// the caller in context.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		SetPrincipal(c, *p)
		c.Next()
	}
}

// SetPrincipal stores the caller in context.
func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(ContextPrincipal, p)
	c.Set(ContextUserID, p.ID)
	c.Set(ContextUserRole, p.Role)
}

// CurrentPrincipal returns the caller set by JWT. It panics when used on an unauthenticated route.
func CurrentPrincipal(c *gin.Context) models.Principal {
	return c.MustGet(ContextPrincipal).(models.Principal)
}
