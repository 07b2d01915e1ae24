// Package worker drains the report queue and archives roster snapshots to S3.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/billing"
	"github.com/smartnex-ai/backend/pkg/queue"
	"github.com/smartnex-ai/backend/pkg/storage"
)

// JobQueue is the part of *queue.Queue the processor drives.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// RosterSource computes a PG's monthly roster.
type RosterSource interface {
	Roster(ctx context.Context, pgID uuid.UUID, ref time.Time) ([]billing.RosterEntry, error)
}

// ReportStore persists rendered reports.
type ReportStore interface {
	PutReport(ctx context.Context, key string, body []byte) error
}

// Snapshot is the archived roster document.
type Snapshot struct {
	PGID        uuid.UUID             `json:"pgId"`
	Month       string                `json:"month"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Entries     []billing.RosterEntry `json:"entries"`
}

// RosterProcessor processes roster snapshot jobs: compute the roster, render JSON, upload to S3.
type RosterProcessor struct {
	queue   JobQueue
	roster  RosterSource
	reports ReportStore
	loc     *time.Location
	backoff time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewRosterProcessor creates a roster snapshot processor. Months are parsed in loc.
func NewRosterProcessor(q JobQueue, roster RosterSource, reports ReportStore, loc *time.Location, logger *zap.Logger) *RosterProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RosterProcessor{
		queue:   q,
		roster:  roster,
		reports: reports,
		loc:     loc,
		backoff: queue.RetryBackoff,
		logger:  logger,
		now:     time.Now,
	}
}

// Process executes one roster snapshot job and returns the object key it wrote.
func (p *RosterProcessor) Process(ctx context.Context, job *queue.Job) (string, error) {
	if job.Type != queue.JobTypeRosterSnapshot {
		return "", fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RosterSnapshotPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	month, err := time.ParseInLocation(billing.MonthLayout, payload.Month, p.loc)
	if err != nil {
		return "", fmt.Errorf("parse month %q: %w", payload.Month, err)
	}

	entries, err := p.roster.Roster(ctx, payload.PGID, month)
	if err != nil {
		return "", fmt.Errorf("compute roster: %w", err)
	}
	body, err := json.Marshal(Snapshot{
		PGID:        payload.PGID,
		Month:       payload.Month,
		GeneratedAt: p.now().UTC(),
		Entries:     entries,
	})
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := storage.RosterKey(payload.PGID.String(), month)
	if err := p.reports.PutReport(ctx, key, body); err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	p.logger.Info("roster snapshot archived",
		zap.String("pg_id", payload.PGID.String()),
		zap.String("month", payload.Month),
		zap.Int("entries", len(entries)),
		zap.String("s3_key", key))
	return key, nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *RosterProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("report worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if _, err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *RosterProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
