package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
)

// Store is the read side the engine needs.
type Store interface {
	Account(ctx context.Context, tenantID uuid.UUID) (*Account, error)
	RosterAccounts(ctx context.Context, pgID uuid.UUID, createdBefore time.Time) ([]Account, error)
	Payments(ctx context.Context, tenantIDs []uuid.UUID) (map[uuid.UUID][]models.Payment, error)
}

// Detail is the per-tenant billing view.
type Detail struct {
	TenantID   uuid.UUID  `json:"tenantId"`
	Name       string     `json:"name"`
	RoomID     *uuid.UUID `json:"roomId"`
	RoomNumber string     `json:"roomNumber"`
	Month      string     `json:"month"`
	Summary
	PaymentHistory []models.Payment `json:"paymentHistory"`
}

// RosterEntry is one row of a PG's monthly collection roster.
type RosterEntry struct {
	TenantID           uuid.UUID       `json:"tenantId"`
	Name               string          `json:"name"`
	Mobile             string          `json:"mobile"`
	RoomNumber         string          `json:"roomNumber"`
	Rent               decimal.Decimal `json:"rent"`
	TotalDueAmount     decimal.Decimal `json:"totalDueAmount"`
	PaidInMonth        decimal.Decimal `json:"paidInMonth"`
	CurrentMonthStatus string          `json:"currentMonthStatus"`
	PaymentID          *uuid.UUID      `json:"paymentId"`
}

// Engine computes billing views. Detail and Roster read the same Account shape and both go
// through Compute, so they always agree.
type Engine struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewEngine creates a billing engine evaluating calendar months in loc.
func NewEngine(store Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, loc: loc, now: time.Now}
}

// Location is the billing time zone.
func (e *Engine) Location() *time.Location { return e.loc }

// Now is the engine clock in the billing time zone.
func (e *Engine) Now() time.Time { return e.now().In(e.loc) }

// TenantDetail computes one tenant's position for the month containing ref.
func (e *Engine) TenantDetail(ctx context.Context, tenantID uuid.UUID, ref time.Time) (*Detail, error) {
	acc, err := e.store.Account(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	payments, err := e.store.Payments(ctx, []uuid.UUID{tenantID})
	if err != nil {
		return nil, err
	}
	history := payments[tenantID]
	if history == nil {
		history = []models.Payment{}
	}
	return &Detail{
		TenantID:       acc.TenantID,
		Name:           acc.Name,
		RoomID:         acc.RoomID,
		RoomNumber:     acc.RoomNumber,
		Month:          ref.In(e.loc).Format(MonthLayout),
		Summary:        Compute(acc.input(history), ref, e.loc),
		PaymentHistory: history,
	}, nil
}

// Roster computes every assigned tenant of a PG for the month containing ref. Tenants created
// after that month are left out.
func (e *Engine) Roster(ctx context.Context, pgID uuid.UUID, ref time.Time) ([]RosterEntry, error) {
	_, next := MonthBounds(ref, e.loc)
	accounts, err := e.store.RosterAccounts(ctx, pgID, next)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(accounts))
	for i, a := range accounts {
		ids[i] = a.TenantID
	}
	payments, err := e.store.Payments(ctx, ids)
	if err != nil {
		return nil, err
	}
	list := make([]RosterEntry, 0, len(accounts))
	for _, a := range accounts {
		s := Compute(a.input(payments[a.TenantID]), ref, e.loc)
		list = append(list, RosterEntry{
			TenantID:           a.TenantID,
			Name:               a.Name,
			Mobile:             a.Mobile,
			RoomNumber:         a.RoomNumber,
			Rent:               s.Rent,
			TotalDueAmount:     s.TotalDueAmount,
			PaidInMonth:        s.PaidInMonth,
			CurrentMonthStatus: s.CurrentMonthStatus,
			PaymentID:          s.FirstPaymentID,
		})
	}
	return list, nil
}

func (a *Account) input(payments []models.Payment) Input {
	return Input{Rent: a.Rent, Assigned: a.Assigned, CreatedAt: a.CreatedAt, Payments: payments}
}

// Date layouts accepted for the reference date.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ParseDate reads a reference date as YYYY-MM-DD, YYYY-MM or RFC 3339. Empty means now.
func ParseDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.In(loc), nil
	}
	for _, layout := range []string{DateLayout, MonthLayout} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", raw)
}
