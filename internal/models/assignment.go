package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Assignment is one entry of a tenant's room history. At most one per tenant is active.
type Assignment struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenantId"`
	RoomID    uuid.UUID       `json:"roomId"`
	PGID      uuid.UUID       `json:"pgId"`
	Rent      decimal.Decimal `json:"rent"`
	StartDate time.Time       `json:"startDate"`
	EndDate   *time.Time      `json:"endDate"`
	Active    bool            `json:"active"`
}
