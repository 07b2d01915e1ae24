// Package ledger keeps a tenant's room history and the tenant's current room pointer in step.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/realtime"
)

// Tx is the unit of work a move runs in. The tenant row is locked for its whole duration.
type Tx interface {
	Room(ctx context.Context, id uuid.UUID) (*models.Room, error)
	PG(ctx context.Context, id uuid.UUID) (*models.PG, error)
	Occupants(ctx context.Context, roomID, excluding uuid.UUID) (int, error)
	ActiveAssignment(ctx context.Context, tenantID uuid.UUID) (*models.Assignment, error)
	DeactivateActive(ctx context.Context, tenantID uuid.UUID, at time.Time) error
	InsertAssignment(ctx context.Context, a *models.Assignment) error
	SetTenantRoom(ctx context.Context, tenantID, pgID, roomID uuid.UUID) error
}

// Store runs moves and reads history.
type Store interface {
	WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(tx Tx, tenant *models.Tenant) error) error
	History(ctx context.Context, tenantID uuid.UUID) ([]models.Assignment, error)
}

// Notifier publishes owner feed events.
type Notifier interface {
	Notify(ownerID uuid.UUID, event string, payload interface{})
}

// MoveRequest places a tenant in a room. A nil Rent takes the room's current rent.
type MoveRequest struct {
	TenantID uuid.UUID
	RoomID   uuid.UUID
	PGID     uuid.UUID
	Rent     *decimal.Decimal
}

// MovedEvent is the tenant_moved payload.
type MovedEvent struct {
	TenantID     uuid.UUID       `json:"tenantId"`
	AssignmentID uuid.UUID       `json:"assignmentId"`
	RoomID       uuid.UUID       `json:"roomId"`
	PGID         uuid.UUID       `json:"pgId"`
	Rent         decimal.Decimal `json:"rent"`
	At           time.Time       `json:"at"`
}

// Service applies Assign and Upgrade.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a ledger service. notifier may be nil.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Assign places a tenant in a room. It is the same operation as Upgrade: any active assignment
// is closed first so a tenant never holds two.
func (s *Service) Assign(ctx context.Context, req MoveRequest) (*models.Assignment, error) {
	return s.move(ctx, req)
}

// Upgrade moves an assigned tenant to another room, possibly in another PG.
func (s *Service) Upgrade(ctx context.Context, req MoveRequest) (*models.Assignment, error) {
	return s.move(ctx, req)
}

// History lists a tenant's assignments, newest first.
func (s *Service) History(ctx context.Context, tenantID uuid.UUID) ([]models.Assignment, error) {
	return s.store.History(ctx, tenantID)
}

func (s *Service) move(ctx context.Context, req MoveRequest) (*models.Assignment, error) {
	var (
		result  *models.Assignment
		ownerID uuid.UUID
		moved   bool
	)
	err := s.store.WithTenantLock(ctx, req.TenantID, func(tx Tx, tenant *models.Tenant) error {
		room, err := tx.Room(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if room.PGID != req.PGID {
			return apperr.Validation("Room does not belong to this PG")
		}
		pg, err := tx.PG(ctx, req.PGID)
		if err != nil {
			return err
		}
		if pg.OwnerID != tenant.OwnerID {
			return apperr.Forbidden("Tenant and PG belong to different owners")
		}
		ownerID = pg.OwnerID

		rent := room.RentOrZero()
		if req.Rent != nil {
			rent = *req.Rent
		}
		if rent.IsNegative() {
			return apperr.Validation("rent must not be negative")
		}
		rent = rent.Round(2)

		active, err := tx.ActiveAssignment(ctx, tenant.ID)
		if err != nil {
			return err
		}
		if active != nil && active.RoomID == req.RoomID && active.PGID == req.PGID && active.Rent.Equal(rent) {
			if !pointsAt(tenant, req.PGID, req.RoomID) {
				if err := tx.SetTenantRoom(ctx, tenant.ID, req.PGID, req.RoomID); err != nil {
					return err
				}
			}
			result = active
			return nil
		}

		occupants, err := tx.Occupants(ctx, room.ID, tenant.ID)
		if err != nil {
			return err
		}
		if occupants >= room.Capacity {
			return apperr.Conflict("Room is at full capacity")
		}

		at := s.now().UTC()
		if err := tx.DeactivateActive(ctx, tenant.ID, at); err != nil {
			return err
		}
		a := &models.Assignment{
			TenantID:  tenant.ID,
			RoomID:    req.RoomID,
			PGID:      req.PGID,
			Rent:      rent,
			StartDate: at,
			Active:    true,
		}
		if err := tx.InsertAssignment(ctx, a); err != nil {
			return err
		}
		if err := tx.SetTenantRoom(ctx, tenant.ID, req.PGID, req.RoomID); err != nil {
			return err
		}
		result = a
		moved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.logger.Info("tenant moved",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("room_id", req.RoomID.String()),
			zap.String("pg_id", req.PGID.String()))
		if s.notifier != nil {
			s.notifier.Notify(ownerID, realtime.EventTenantMoved, MovedEvent{
				TenantID:     result.TenantID,
				AssignmentID: result.ID,
				RoomID:       result.RoomID,
				PGID:         result.PGID,
				Rent:         result.Rent,
				At:           result.StartDate,
			})
		}
	}
	return result, nil
}

func pointsAt(t *models.Tenant, pgID, roomID uuid.UUID) bool {
	return t.PGID != nil && *t.PGID == pgID && t.RoomID != nil && *t.RoomID == roomID
}
