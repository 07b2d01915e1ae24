package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository is the Postgres Store. Each move is one transaction holding the tenant row lock,
// and the partial unique index on active assignments rejects anything that slips past it.
type Repository struct {
	db database.DB
}

// NewRepository creates a ledger repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// WithTenantLock locks the tenant row, runs fn and commits. Any error rolls everything back.
func (r *Repository) WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(tx Tx, tenant *models.Tenant) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `SELECT id, owner_id, pg_id, room_id, name, mobile, address, password_hash, created_at
		FROM tenants WHERE id = $1 FOR UPDATE`
	var t models.Tenant
	err = tx.QueryRow(ctx, q, tenantID).Scan(&t.ID, &t.OwnerID, &t.PGID, &t.RoomID, &t.Name, &t.Mobile, &t.Address, &t.Password, &t.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return apperr.NotFound("Tenant not found")
		}
		return err
	}
	if err := fn(&pgTx{tx: tx}, &t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// History returns a tenant's assignments, newest first.
func (r *Repository) History(ctx context.Context, tenantID uuid.UUID) ([]models.Assignment, error) {
	const q = `SELECT id, tenant_id, room_id, pg_id, rent, start_date, end_date, active
		FROM pg_assignments WHERE tenant_id = $1 ORDER BY start_date DESC, active DESC`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.RoomID, &a.PGID, &a.Rent, &a.StartDate, &a.EndDate, &a.Active); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Room(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	const q = `SELECT id, pg_id, floor_id, room_number, capacity, rent, created_at
		FROM pg_rooms WHERE id = $1 FOR UPDATE`
	var room models.Room
	var rent decimal.NullDecimal
	err := t.tx.QueryRow(ctx, q, id).Scan(&room.ID, &room.PGID, &room.FloorID, &room.RoomNumber, &room.Capacity, &rent, &room.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Room not found")
		}
		return nil, err
	}
	if rent.Valid {
		room.Rent = &rent.Decimal
	}
	return &room, nil
}

func (t *pgTx) PG(ctx context.Context, id uuid.UUID) (*models.PG, error) {
	const q = `SELECT id, name, address, owner_id, created_at FROM pgs WHERE id = $1`
	var pg models.PG
	err := t.tx.QueryRow(ctx, q, id).Scan(&pg.ID, &pg.Name, &pg.Address, &pg.OwnerID, &pg.CreatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("PG not found")
		}
		return nil, err
	}
	return &pg, nil
}

func (t *pgTx) Occupants(ctx context.Context, roomID, excluding uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM tenants WHERE room_id = $1 AND id <> $2`
	var n int
	if err := t.tx.QueryRow(ctx, q, roomID, excluding).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *pgTx) ActiveAssignment(ctx context.Context, tenantID uuid.UUID) (*models.Assignment, error) {
	const q = `SELECT id, tenant_id, room_id, pg_id, rent, start_date, end_date, active
		FROM pg_assignments WHERE tenant_id = $1 AND active`
	var a models.Assignment
	err := t.tx.QueryRow(ctx, q, tenantID).Scan(&a.ID, &a.TenantID, &a.RoomID, &a.PGID, &a.Rent, &a.StartDate, &a.EndDate, &a.Active)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (t *pgTx) DeactivateActive(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
	const q = `UPDATE pg_assignments SET active = FALSE, end_date = $2 WHERE tenant_id = $1 AND active`
	_, err := t.tx.Exec(ctx, q, tenantID, at)
	return err
}

func (t *pgTx) InsertAssignment(ctx context.Context, a *models.Assignment) error {
	const q = `INSERT INTO pg_assignments (tenant_id, room_id, pg_id, rent, start_date, active)
		VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id`
	err := t.tx.QueryRow(ctx, q, a.TenantID, a.RoomID, a.PGID, a.Rent, a.StartDate).Scan(&a.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("Tenant already has an active assignment").Wrap(err)
		}
		return err
	}
	return nil
}

func (t *pgTx) SetTenantRoom(ctx context.Context, tenantID, pgID, roomID uuid.UUID) error {
	const q = `UPDATE tenants SET pg_id = $2, room_id = $3 WHERE id = $1`
	_, err := t.tx.Exec(ctx, q, tenantID, pgID, roomID)
	return err
}
