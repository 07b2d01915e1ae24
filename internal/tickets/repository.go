package tickets

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository persists maintenance tickets.
type Repository struct {
	db database.DB
}

// NewRepository creates a ticket repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const ticketColumns = `id, tenant_id, pg_id, room_id, description, status, created_at, updated_at`

// Create inserts an open ticket.
func (r *Repository) Create(ctx context.Context, t *models.Ticket) error {
	const q = `INSERT INTO pg_tickets (tenant_id, pg_id, room_id, description, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, q, t.TenantID, t.PGID, t.RoomID, t.Description, t.Status).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a ticket or a NotFound error.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	err := r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM pg_tickets WHERE id = $1`, id).
		Scan(&t.ID, &t.TenantID, &t.PGID, &t.RoomID, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Ticket not found")
		}
		return nil, err
	}
	return &t, nil
}

// UpdateStatus sets the status of a ticket.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Ticket, error) {
	const q = `UPDATE pg_tickets SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + ticketColumns
	var t models.Ticket
	err := r.db.QueryRow(ctx, q, id, status).
		Scan(&t.ID, &t.TenantID, &t.PGID, &t.RoomID, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Ticket not found")
		}
		return nil, err
	}
	return &t, nil
}

const viewSelect = `SELECT k.id, k.tenant_id, k.pg_id, k.room_id, k.description, k.status, k.created_at, k.updated_at,
		COALESCE(t.name, ''), g.name, COALESCE(rm.room_number, '')
	FROM pg_tickets k
	JOIN pgs g ON g.id = k.pg_id
	LEFT JOIN tenants t ON t.id = k.tenant_id
	LEFT JOIN pg_rooms rm ON rm.id = k.room_id`

// ListByOwner returns tickets of every PG the owner has, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.TicketView, error) {
	return r.list(ctx, viewSelect+` WHERE g.owner_id = $1 ORDER BY k.created_at DESC`, ownerID)
}

// ListByTenant returns a tenant's own tickets, newest first.
func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.TicketView, error) {
	return r.list(ctx, viewSelect+` WHERE k.tenant_id = $1 ORDER BY k.created_at DESC`, tenantID)
}

func (r *Repository) list(ctx context.Context, q string, arg uuid.UUID) ([]models.TicketView, error) {
	rows, err := r.db.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.TicketView{}
	for rows.Next() {
		var v models.TicketView
		if err := rows.Scan(&v.ID, &v.TenantID, &v.PGID, &v.RoomID, &v.Description, &v.Status, &v.CreatedAt, &v.UpdatedAt,
			&v.TenantName, &v.PGName, &v.RoomNumber); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
