package menus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository persists one menu per PG per day.
type Repository struct {
	db database.DB
}

// NewRepository creates a menu repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const menuColumns = `id, pg_id, menu_date, breakfast, lunch, dinner, last_updated_at`

// Upsert writes the menu for m.PGID on m.Date, replacing any earlier one for that day.
func (r *Repository) Upsert(ctx context.Context, m *models.Menu) error {
	const q = `INSERT INTO pg_menus (pg_id, menu_date, breakfast, lunch, dinner)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pg_id, menu_date) DO UPDATE
		SET breakfast = EXCLUDED.breakfast, lunch = EXCLUDED.lunch, dinner = EXCLUDED.dinner, last_updated_at = NOW()
		RETURNING ` + menuColumns
	return r.db.QueryRow(ctx, q, m.PGID, m.Date, m.Breakfast, m.Lunch, m.Dinner).
		Scan(&m.ID, &m.PGID, &m.Date, &m.Breakfast, &m.Lunch, &m.Dinner, &m.LastUpdatedAt)
}

// Get returns the PG's menu for a day or a NotFound error.
func (r *Repository) Get(ctx context.Context, pgID uuid.UUID, day time.Time) (*models.Menu, error) {
	var m models.Menu
	err := r.db.QueryRow(ctx, `SELECT `+menuColumns+` FROM pg_menus WHERE pg_id = $1 AND menu_date = $2`, pgID, day).
		Scan(&m.ID, &m.PGID, &m.Date, &m.Breakfast, &m.Lunch, &m.Dinner, &m.LastUpdatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Today's menu has not been set yet.")
		}
		return nil, err
	}
	return &m, nil
}
