package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a resident of a PG. RoomID and PGID are nil until assigned.
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"ownerId"`
	PGID      *uuid.UUID `json:"pgId"`
	RoomID    *uuid.UUID `json:"roomId"`
	Name      string     `json:"name"`
	Mobile    string     `json:"mobile"`
	Address   string     `json:"address"`
	Password  string     `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TenantPublic is Tenant without the credential.
type TenantPublic struct {
	ID        uuid.UUID  `json:"id"`
	PGID      *uuid.UUID `json:"pgId"`
	RoomID    *uuid.UUID `json:"roomId"`
	Name      string     `json:"name"`
	Mobile    string     `json:"mobile"`
	Address   string     `json:"address"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ToPublic converts Tenant to TenantPublic.
func (t *Tenant) ToPublic() TenantPublic {
	return TenantPublic{
		ID:        t.ID,
		PGID:      t.PGID,
		RoomID:    t.RoomID,
		Name:      t.Name,
		Mobile:    t.Mobile,
		Address:   t.Address,
		CreatedAt: t.CreatedAt,
	}
}

// UnassignedTenant is the projection used by the room assignment picker.
type UnassignedTenant struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Mobile string    `json:"mobile"`
}
