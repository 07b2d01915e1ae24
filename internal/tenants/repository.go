package tenants

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/database"
)

const mobileInUse = "Mobile number already in use"

// Repository persists tenants in the PG database.
type Repository struct {
	db database.DB
}

// NewRepository creates a tenant repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const tenantColumns = `id, owner_id, pg_id, room_id, name, mobile, address, password_hash, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*models.Tenant, error) {
	var t models.Tenant
	if err := row.Scan(&t.ID, &t.OwnerID, &t.PGID, &t.RoomID, &t.Name, &t.Mobile, &t.Address, &t.Password, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateParams holds the fields of a new tenant.
type CreateParams struct {
	OwnerID      uuid.UUID
	PGID         uuid.UUID
	Name         string
	Mobile       string
	Address      string
	PasswordHash string
}

// Create inserts an unassigned tenant. The unique mobile index turns a duplicate into a Conflict
// with nothing written.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Tenant, error) {
	const q = `INSERT INTO tenants (owner_id, pg_id, name, mobile, address, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRow(ctx, q, p.OwnerID, p.PGID, p.Name, p.Mobile, p.Address, p.PasswordHash))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict(mobileInUse).Wrap(err)
		}
		return nil, err
	}
	return t, nil
}

// GetByID returns a tenant or a NotFound error.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := scanTenant(r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Tenant not found")
		}
		return nil, err
	}
	return t, nil
}

// GetByMobile returns a tenant or a NotFound error.
func (r *Repository) GetByMobile(ctx context.Context, mobile string) (*models.Tenant, error) {
	t, err := scanTenant(r.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE mobile = $1`, mobile))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Tenant not found")
		}
		return nil, err
	}
	return t, nil
}

// ListByPG returns the tenants registered to a PG, assigned or not.
func (r *Repository) ListByPG(ctx context.Context, pgID uuid.UUID) ([]models.TenantPublic, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE pg_id = $1 ORDER BY name, created_at`, pgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.TenantPublic{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t.ToPublic())
	}
	return list, rows.Err()
}

// ListUnassigned returns the PG's tenants without a room.
func (r *Repository) ListUnassigned(ctx context.Context, pgID uuid.UUID) ([]models.UnassignedTenant, error) {
	const q = `SELECT id, name, mobile FROM tenants WHERE pg_id = $1 AND room_id IS NULL ORDER BY name`
	rows, err := r.db.Query(ctx, q, pgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.UnassignedTenant{}
	for rows.Next() {
		var u models.UnassignedTenant
		if err := rows.Scan(&u.ID, &u.Name, &u.Mobile); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Update changes a tenant's profile. A mobile collision is a Conflict.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, mobile, address string) (*models.Tenant, error) {
	const q = `UPDATE tenants SET name = $2, mobile = $3, address = $4 WHERE id = $1 RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRow(ctx, q, id, name, mobile, address))
	if err != nil {
		switch {
		case database.IsNotFound(err):
			return nil, apperr.NotFound("Tenant not found")
		case database.IsUniqueViolation(err):
			return nil, apperr.Conflict(mobileInUse).Wrap(err)
		}
		return nil, err
	}
	return t, nil
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE tenants SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Tenant not found")
	}
	return nil
}

// Delete removes a tenant and its assignment history. Payments are retained.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Tenant not found")
	}
	return nil
}
