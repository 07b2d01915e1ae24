package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a principal's role in the platform.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleTenant     Role = "tenant"
)

// User is an admin or superadmin account in the core database.
type User struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Password         string    `json:"-"`
	Role             Role      `json:"role"`
	AssignedProducts []Product `json:"assignedProducts,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	ProductKey string    `json:"productKey,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PrimaryProductKey returns the key of the first assigned product, or "".
func (u *User) PrimaryProductKey() string {
	if len(u.AssignedProducts) == 0 {
		return ""
	}
	return u.AssignedProducts[0].Key
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		ProductKey: u.PrimaryProductKey(),
		CreatedAt:  u.CreatedAt,
	}
}
