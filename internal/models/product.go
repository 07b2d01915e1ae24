package models

import (
	"time"

	"github.com/google/uuid"
)

// Product keys of the catalog seeded at install time.
const (
	ProductCollegeManagement = "college-management"
	ProductMessManagement    = "mess-management"
	ProductPGManagement      = "pg-management"
)

// Product is a catalog entry an admin can be scoped to.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"productKey"`
	Name        string    `json:"productName"`
	Description string    `json:"description"`
	AccessURL   string    `json:"accessUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}
