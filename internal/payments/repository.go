package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository is the append-only payment ledger.
type Repository struct {
	db database.DB
}

// NewRepository creates a payment repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Insert records a payment. A gateway payment id seen before is a Conflict.
func (r *Repository) Insert(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO pg_payments (tenant_id, pg_id, room_id, amount, currency, gateway_order_id, gateway_payment_id, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRow(ctx, q, p.TenantID, p.PGID, p.RoomID, p.Amount, p.Currency,
		p.GatewayOrderID, p.GatewayPaymentID, p.PaymentDate).Scan(&p.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("Payment already recorded").Wrap(err)
		}
		return err
	}
	return nil
}

// Receipt returns a payment with tenant, PG and room details. Names of deleted records are empty.
func (r *Repository) Receipt(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error) {
	const q = `SELECT p.id, p.tenant_id, p.pg_id, p.room_id, p.amount, p.currency, p.gateway_order_id,
			p.gateway_payment_id, p.payment_date,
			COALESCE(t.name, ''), COALESCE(t.mobile, ''), COALESCE(g.name, ''), COALESCE(g.address, ''),
			COALESCE(rm.room_number, '')
		FROM pg_payments p
		LEFT JOIN tenants t ON t.id = p.tenant_id
		LEFT JOIN pgs g ON g.id = p.pg_id
		LEFT JOIN pg_rooms rm ON rm.id = p.room_id
		WHERE p.id = $1`
	var rc models.Receipt
	err := r.db.QueryRow(ctx, q, paymentID).Scan(&rc.ID, &rc.TenantID, &rc.PGID, &rc.RoomID, &rc.Amount,
		&rc.Currency, &rc.GatewayOrderID, &rc.GatewayPaymentID, &rc.PaymentDate,
		&rc.TenantName, &rc.TenantMobile, &rc.PGName, &rc.PGAddress, &rc.RoomNumber)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Payment not found")
		}
		return nil, err
	}
	return &rc, nil
}

// Export lists a PG's payments in [from, to) by date.
func (r *Repository) Export(ctx context.Context, pgID uuid.UUID, from, to time.Time) ([]models.PaymentExportRow, error) {
	const q = `SELECT p.payment_date, COALESCE(t.name, ''), COALESCE(rm.room_number, ''), p.amount, p.gateway_payment_id
		FROM pg_payments p
		LEFT JOIN tenants t ON t.id = p.tenant_id
		LEFT JOIN pg_rooms rm ON rm.id = p.room_id
		WHERE p.pg_id = $1 AND p.payment_date >= $2 AND p.payment_date < $3
		ORDER BY p.payment_date, p.id`
	rows, err := r.db.Query(ctx, q, pgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.PaymentExportRow{}
	for rows.Next() {
		var row models.PaymentExportRow
		if err := rows.Scan(&row.Date, &row.Tenant, &row.Room, &row.Amount, &row.TransactionID); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
