package admins

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

const emailInUse = "Email already exists"

// Repository persists admin accounts in the core database.
type Repository struct {
	db database.DB
}

// NewRepository creates an admin repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// CreateParams holds a new account. Product is nil for superadmins.
type CreateParams struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         models.Role
	Product      *models.Product
}

const userColumns = `id, name, email, phone, password_hash, role, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and its product assignment in one transaction.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `INSERT INTO users (name, email, phone, password_hash, role) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	u, err := scanUser(tx.QueryRow(ctx, q, p.Name, p.Email, p.Phone, p.PasswordHash, p.Role))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(emailInUse).Wrap(err)
		}
		return nil, err
	}
	if p.Product != nil {
		if _, err := tx.Exec(ctx, `INSERT INTO user_products (user_id, product_id, position) VALUES ($1, $2, 0)`, u.ID, p.Product.ID); err != nil {
			return nil, err
		}
		u.AssignedProducts = []models.Product{*p.Product}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns an admin or superadmin, or a NotFound error.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Admin not found")
		}
		return nil, err
	}
	return u, nil
}

// Update changes an admin's contact details.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, email, phone string) (*models.User, error) {
	const q = `UPDATE users SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1 AND role = 'admin' RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, id, name, email, phone))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Admin not found")
		}
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Email already in use by another admin").Wrap(err)
		}
		return nil, err
	}
	return u, nil
}

// Delete removes an admin. Superadmins cannot be deleted through it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1 AND role = 'admin'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Admin not found")
	}
	return nil
}

// ListByProduct returns the admins assigned to a product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productKey string) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.name, u.email, u.phone, u.role, p.product_key, u.created_at
		FROM users u
		JOIN user_products up ON up.user_id = u.id
		JOIN products p ON p.id = up.product_id
		WHERE p.product_key = $1 AND u.role = 'admin'
		ORDER BY u.created_at DESC`
	rows, err := r.db.Query(ctx, q, productKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.ProductKey, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
