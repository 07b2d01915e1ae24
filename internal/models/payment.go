package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is an append-only record of rent received through the gateway.
type Payment struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenantId"`
	PGID             *uuid.UUID      `json:"pgId"`
	RoomID           *uuid.UUID      `json:"roomId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	GatewayOrderID   string          `json:"razorpayOrderId"`
	GatewayPaymentID string          `json:"razorpayPaymentId"`
	PaymentDate      time.Time       `json:"paymentDate"`
}

// Receipt is a payment joined with the tenant, PG and room it was made for.
type Receipt struct {
	Payment
	TenantName   string `json:"tenantName"`
	TenantMobile string `json:"tenantMobile"`
	PGName       string `json:"pgName"`
	PGAddress    string `json:"pgAddress"`
	RoomNumber   string `json:"roomNumber"`
}

// PaymentExportRow is one line of the monthly collection export.
type PaymentExportRow struct {
	Date          time.Time       `json:"date"`
	Tenant        string          `json:"tenant"`
	Room          string          `json:"room"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
}
