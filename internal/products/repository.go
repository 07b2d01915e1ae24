// Package products is the catalog of SmartNex products admins are scoped to.
package products

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

// Catalog is the product set seeded at install time.
var Catalog = []models.Product{
	{Key: models.ProductCollegeManagement, Name: "College Management", Description: "Admissions, attendance and fees for colleges", AccessURL: "/college", IsActive: true},
	{Key: models.ProductMessManagement, Name: "Mess Management", Description: "Menus, meal plans and billing for messes", AccessURL: "/mess", IsActive: true},
	{Key: models.ProductPGManagement, Name: "PG Management", Description: "Rooms, tenants and rent for PG accommodation", AccessURL: "/pg", IsActive: true},
}

// Repository reads and seeds products in the core database.
type Repository struct {
	db database.DB
}

// NewRepository creates a product repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `p.id, p.product_key, p.product_name, p.description, p.access_url, p.is_active, p.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Key, &p.Name, &p.Description, &p.AccessURL, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns every active product.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products p WHERE p.is_active ORDER BY p.product_name`)
}

// ListActiveByUser returns the active products assigned to a user, in assignment order.
func (r *Repository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM user_products up JOIN products p ON p.id = up.product_id
		WHERE up.user_id = $1 AND p.is_active ORDER BY up.position, p.product_name`, userID)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Product, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// GetByKey returns a product by key or a NotFound error.
func (r *Repository) GetByKey(ctx context.Context, key string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.product_key = $1`, key))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, err
	}
	return p, nil
}

// Seed upserts products by key. Running it twice changes nothing.
func (r *Repository) Seed(ctx context.Context, list []models.Product) (int, error) {
	const q = `INSERT INTO products (product_key, product_name, description, access_url, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_key) DO UPDATE
		SET product_name = EXCLUDED.product_name, description = EXCLUDED.description,
			access_url = EXCLUDED.access_url, is_active = EXCLUDED.is_active`
	n := 0
	for _, p := range list {
		if _, err := r.db.Exec(ctx, q, p.Key, p.Name, p.Description, p.AccessURL, p.IsActive); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
