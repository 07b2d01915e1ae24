// Package menus serves the daily food menu of a PG.
package menus

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Store is the persistence used by the handler.
type Store interface {
	Upsert(ctx context.Context, m *models.Menu) error
	Get(ctx context.Context, pgID uuid.UUID, day time.Time) (*models.Menu, error)
}

// UpsertRequest is the body for POST /pg-menu.
type UpsertRequest struct {
	PGID      string `json:"pgId" binding:"required"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
}

// Handler serves menu endpoints. "Today" is the calendar day in loc.
type Handler struct {
	store  Store
	guard  *access.Guard
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a menu handler.
func NewHandler(store Store, guard *access.Guard, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{store: store, guard: guard, loc: loc, logger: logger, now: time.Now}
}

// today is midnight of the current day in the billing zone, expressed as a UTC date for the DATE column.
func (h *Handler) today() time.Time {
	n := h.now().In(h.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// Upsert handles POST /pg-menu.
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pgId is required")
		return
	}
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", req.PGID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	m := &models.Menu{
		PGID:      pgID,
		Date:      h.today(),
		Breakfast: strings.TrimSpace(req.Breakfast),
		Lunch:     strings.TrimSpace(req.Lunch),
		Dinner:    strings.TrimSpace(req.Dinner),
	}
	if err := h.store.Upsert(ctx, m); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OKMessage(c, "Menu saved", m)
}

// Today handles GET /pg-menu?pgId=.
func (h *Handler) Today(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.PG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	m, err := h.store.Get(ctx, pgID, h.today())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, m)
}
