package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Account is the read shape shared by the detail and roster views: a tenant and its current room.
// Assigned is false when the tenant has no room or the room no longer exists.
type Account struct {
	TenantID   uuid.UUID
	OwnerID    uuid.UUID
	PGID       *uuid.UUID
	Name       string
	Mobile     string
	CreatedAt  time.Time
	Assigned   bool
	RoomID     *uuid.UUID
	RoomNumber string
	Rent       decimal.Decimal
}

// Repository reads billing inputs from the PG database.
type Repository struct {
	db database.DB
}

// NewRepository creates a billing repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const accountSelect = `SELECT t.id, t.owner_id, t.pg_id, t.name, t.mobile, t.created_at,
		r.id IS NOT NULL, r.id, COALESCE(r.room_number, ''), r.rent
	FROM tenants t LEFT JOIN pg_rooms r ON r.id = t.room_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*Account, error) {
	var a Account
	var rent decimal.NullDecimal
	if err := row.Scan(&a.TenantID, &a.OwnerID, &a.PGID, &a.Name, &a.Mobile, &a.CreatedAt,
		&a.Assigned, &a.RoomID, &a.RoomNumber, &rent); err != nil {
		return nil, err
	}
	if rent.Valid {
		a.Rent = rent.Decimal
	}
	return &a, nil
}

// Account returns one tenant's billing account.
func (r *Repository) Account(ctx context.Context, tenantID uuid.UUID) (*Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, accountSelect+` WHERE t.id = $1`, tenantID))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Tenant not found")
		}
		return nil, err
	}
	return a, nil
}

// RosterAccounts returns the PG's tenants that hold a room and were created before the cutoff,
// ordered by room number then name.
func (r *Repository) RosterAccounts(ctx context.Context, pgID uuid.UUID, createdBefore time.Time) ([]Account, error) {
	const q = accountSelect + `
	WHERE t.pg_id = $1 AND r.id IS NOT NULL AND t.created_at < $2
	ORDER BY r.room_number, t.name`
	rows, err := r.db.Query(ctx, q, pgID, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Payments returns the payments of the given tenants, oldest first.
func (r *Repository) Payments(ctx context.Context, tenantIDs []uuid.UUID) (map[uuid.UUID][]models.Payment, error) {
	const q = `SELECT id, tenant_id, pg_id, room_id, amount, currency, gateway_order_id, gateway_payment_id, payment_date
		FROM pg_payments WHERE tenant_id = ANY($1) ORDER BY payment_date, id`
	out := make(map[uuid.UUID][]models.Payment, len(tenantIDs))
	if len(tenantIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, q, tenantIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.TenantID, &p.PGID, &p.RoomID, &p.Amount, &p.Currency,
			&p.GatewayOrderID, &p.GatewayPaymentID, &p.PaymentDate); err != nil {
			return nil, err
		}
		out[p.TenantID] = append(out[p.TenantID], p)
	}
	return out, rows.Err()
}
