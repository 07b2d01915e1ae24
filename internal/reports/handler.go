// Package reports archives monthly rosters to S3 and hands out download links.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/billing"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/pkg/queue"
	"github.com/smartnex-ai/backend/pkg/response"
	"github.com/smartnex-ai/backend/pkg/storage"
)

// Enqueuer schedules roster snapshots.
type Enqueuer interface {
	EnqueueRosterSnapshot(ctx context.Context, payload queue.RosterSnapshotPayload) (string, error)
}

// Links signs download URLs for archived reports.
type Links interface {
	ReportURL(ctx context.Context, key string) (string, error)
}

// ArchiveRequest is the body for POST /reports/roster.
type ArchiveRequest struct {
	PGID string `json:"pgId" binding:"required"`
	Date string `json:"date"`
}

// Handler serves report endpoints.
type Handler struct {
	jobs   Enqueuer
	links  Links
	guard  *access.Guard
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a report handler. Months are calendar months in loc.
func NewHandler(jobs Enqueuer, links Links, guard *access.Guard, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{jobs: jobs, links: links, guard: guard, loc: loc, logger: logger, now: time.Now}
}

// Archive handles POST /reports/roster: the snapshot is built by the worker.
func (h *Handler) Archive(c *gin.Context) {
	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "pgId is required")
		return
	}
	pgID, month, err := h.target(c, req.PGID, req.Date)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	jobID, err := h.jobs.EnqueueRosterSnapshot(c.Request.Context(), queue.RosterSnapshotPayload{
		PGID:        pgID,
		Month:       month.Format(billing.MonthLayout),
		RequestedBy: p.ID,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Accepted(c, gin.H{
		"jobId": jobID,
		"pgId":  pgID,
		"month": month.Format(billing.MonthLayout),
		"key":   storage.RosterKey(pgID.String(), month),
	})
}

// Download handles GET /reports/roster?pgId=&date=.
func (h *Handler) Download(c *gin.Context) {
	pgID, month, err := h.target(c, c.Query("pgId"), c.Query("date"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	key := storage.RosterKey(pgID.String(), month)
	url, err := h.links.ReportURL(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			response.NotFound(c, "Report has not been archived yet")
			return
		}
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url, "key": key, "month": month.Format(billing.MonthLayout)})
}

// target resolves the PG (which the caller must manage) and the month start.
func (h *Handler) target(c *gin.Context, rawPG, rawDate string) (uuid.UUID, time.Time, error) {
	pgID, err := access.ParseID("pgId", rawPG)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	ref, err := billing.ParseDate(rawDate, h.loc, h.now())
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}
	if _, err := h.guard.ManagePG(c.Request.Context(), middleware.CurrentPrincipal(c), pgID); err != nil {
		return uuid.Nil, time.Time{}, err
	}
	start, _ := billing.MonthBounds(ref, h.loc)
	return pgID, start, nil
}
