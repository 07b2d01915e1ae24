package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Repository reads admin and superadmin credentials from the core database.
type Repository struct {
	db database.DB
}

// NewRepository creates an auth repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// GetByEmail returns a user with its assigned products, or a NotFound error.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, name, email, phone, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`
	var u models.User
	err := r.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	products, err := r.assignedProducts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.AssignedProducts = products
	return &u, nil
}

func (r *Repository) assignedProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	const q = `SELECT p.id, p.product_key, p.product_name, p.description, p.access_url, p.is_active, p.created_at
		FROM user_products up JOIN products p ON p.id = up.product_id
		WHERE up.user_id = $1 ORDER BY up.position, p.product_key`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.AccessURL, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
