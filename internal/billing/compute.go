// Package billing derives rent obligations, dues and monthly status from a tenant's room rent
// and payment history.
package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartnex-ai/backend/internal/models"
)

// Monthly statuses.
const (
	StatusPaid          = "Paid"
	StatusPartiallyPaid = "Partially Paid"
	StatusUnpaid        = "Unpaid"
	StatusNotApplicable = "N/A"
)

// Input is everything Compute needs about one tenant.
type Input struct {
	Rent      decimal.Decimal
	Assigned  bool
	CreatedAt time.Time
	Payments  []models.Payment
}

// Summary is the billing position of a tenant as of a reference month.
type Summary struct {
	Rent                decimal.Decimal `json:"rent"`
	MonthsActive        int             `json:"monthsActive"`
	TotalRentObligation decimal.Decimal `json:"totalRentObligation"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	TotalDueAmount      decimal.Decimal `json:"totalDueAmount"`
	PaidInMonth         decimal.Decimal `json:"paidInMonth"`
	CurrentMonthStatus  string          `json:"currentMonthStatus"`
	FirstPaymentID      *uuid.UUID      `json:"paymentId"`
}

// MonthBounds returns the start of ref's calendar month and of the following month in loc.
func MonthBounds(ref time.Time, loc *time.Location) (start, next time.Time) {
	r := ref.In(loc)
	start = time.Date(r.Year(), r.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthsActive counts calendar months from created through ref inclusive, never less than 1.
func MonthsActive(created, ref time.Time, loc *time.Location) int {
	c, r := created.In(loc), ref.In(loc)
	n := (r.Year()*12 + int(r.Month())) - (c.Year()*12 + int(c.Month())) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Compute applies the billing formula for the calendar month containing ref. Payments dated on or
// after the start of the next month are ignored. Unassigned tenants owe nothing and report N/A.
func Compute(in Input, ref time.Time, loc *time.Location) Summary {
	start, next := MonthBounds(ref, loc)

	paid := decimal.Zero
	inMonth := decimal.Zero
	var first *models.Payment
	for i := range in.Payments {
		p := &in.Payments[i]
		if !p.PaymentDate.Before(next) {
			continue
		}
		paid = paid.Add(p.Amount)
		if !p.PaymentDate.Before(start) {
			inMonth = inMonth.Add(p.Amount)
			if first == nil || p.PaymentDate.Before(first.PaymentDate) {
				first = p
			}
		}
	}

	s := Summary{
		MonthsActive: MonthsActive(in.CreatedAt, ref, loc),
		TotalPaid:    paid,
		PaidInMonth:  inMonth,
	}
	if first != nil {
		id := first.ID
		s.FirstPaymentID = &id
	}
	if !in.Assigned {
		s.Rent = decimal.Zero
		s.TotalRentObligation = decimal.Zero
		s.TotalDueAmount = decimal.Zero
		s.CurrentMonthStatus = StatusNotApplicable
		return s
	}

	s.Rent = in.Rent
	s.TotalRentObligation = in.Rent.Mul(decimal.NewFromInt(int64(s.MonthsActive)))
	s.TotalDueAmount = s.TotalRentObligation.Sub(paid)
	switch {
	case inMonth.GreaterThanOrEqual(in.Rent):
		s.CurrentMonthStatus = StatusPaid
	case inMonth.IsPositive():
		s.CurrentMonthStatus = StatusPartiallyPaid
	default:
		s.CurrentMonthStatus = StatusUnpaid
	}
	return s
}
