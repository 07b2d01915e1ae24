package models

import "github.com/google/uuid"

// Principal is the authenticated caller of a request.
type Principal struct {
	ID         uuid.UUID `json:"id"`
	Role       Role      `json:"role"`
	ProductKey string    `json:"productKey,omitempty"`
	SessionID  string    `json:"-"`
}

// IsSuperAdmin reports whether the caller bypasses ownership checks.
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }
