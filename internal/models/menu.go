package models

import (
	"time"

	"github.com/google/uuid"
)

// Menu is the food menu of one PG for one calendar day.
type Menu struct {
	ID            uuid.UUID `json:"id"`
	PGID          uuid.UUID `json:"pgId"`
	Date          time.Time `json:"date"`
	Breakfast     string    `json:"breakfast"`
	Lunch         string    `json:"lunch"`
	Dinner        string    `json:"dinner"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
