package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PG is a paying-guest property owned by one admin.
type PG struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PGStats is a PG with its current tenant count.
type PGStats struct {
	PG
	TenantCount int `json:"tenantCount"`
}

// Floor belongs to exactly one PG; the number is unique within it.
type Floor struct {
	ID          uuid.UUID `json:"id"`
	PGID        uuid.UUID `json:"pgId"`
	FloorNumber int       `json:"floorNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Room belongs to one floor and one PG. Rent is nil until set.
type Room struct {
	ID         uuid.UUID        `json:"id"`
	PGID       uuid.UUID        `json:"pgId"`
	FloorID    uuid.UUID        `json:"floorId"`
	RoomNumber string           `json:"roomNumber"`
	Capacity   int              `json:"capacity"`
	Rent       *decimal.Decimal `json:"rent"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// RentOrZero returns the room rent, treating an unset rent as zero.
func (r *Room) RentOrZero() decimal.Decimal {
	if r == nil || r.Rent == nil {
		return decimal.Zero
	}
	return *r.Rent
}

// RoomTree is a room with its current occupants.
type RoomTree struct {
	Room
	Tenants []TenantPublic `json:"tenants"`
}

// FloorTree is a floor with its rooms.
type FloorTree struct {
	Floor
	Rooms []RoomTree `json:"rooms"`
}

// PGTree is the nested PG -> floors -> rooms -> tenants view.
type PGTree struct {
	PG
	Floors []FloorTree `json:"floors"`
}
