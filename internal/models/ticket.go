package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses used by the admin console. Any non-empty status is accepted on update.
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in-progress"
	TicketStatusResolved   = "resolved"
)

// Ticket is a maintenance request raised for a tenant's room.
type Ticket struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenantId"`
	PGID        uuid.UUID  `json:"pgId"`
	RoomID      *uuid.UUID `json:"roomId"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TicketView is a ticket joined with display names for the owner's console.
type TicketView struct {
	Ticket
	TenantName string `json:"tenantName"`
	PGName     string `json:"pgName"`
	RoomNumber string `json:"roomNumber"`
}
