// Package access decides whether a caller may act on a PG, a tenant or an owner's data.
package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
)

// PGGetter loads PGs.
type PGGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error)
}

// TenantGetter loads tenants.
type TenantGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Guard performs ownership checks. Superadmins pass every check.
type Guard struct {
	pgs     PGGetter
	tenants TenantGetter
}

// NewGuard creates an ownership guard.
func NewGuard(pgs PGGetter, tenants TenantGetter) *Guard {
	return &Guard{pgs: pgs, tenants: tenants}
}

// PG loads the PG and checks the caller may use it: its owner, a superadmin, or a tenant living there.
func (g *Guard) PG(ctx context.Context, p models.Principal, pgID uuid.UUID) (*models.PG, error) {
	pg, err := g.pgs.GetByID(ctx, pgID)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case models.RoleSuperAdmin:
		return pg, nil
	case models.RoleAdmin:
		if pg.OwnerID == p.ID {
			return pg, nil
		}
	case models.RoleTenant:
		t, err := g.tenants.GetByID(ctx, p.ID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.Forbidden("not authorized for this PG")
			}
			return nil, err
		}
		if t.PGID != nil && *t.PGID == pg.ID {
			return pg, nil
		}
	}
	return nil, apperr.Forbidden("not authorized for this PG")
}

// ManagePG is PG but rejects tenants: only the owner or a superadmin may change a PG.
func (g *Guard) ManagePG(ctx context.Context, p models.Principal, pgID uuid.UUID) (*models.PG, error) {
	if p.Role == models.RoleTenant {
		return nil, apperr.Forbidden("not authorized for this PG")
	}
	return g.PG(ctx, p, pgID)
}

// Tenant loads the tenant and checks the caller is the tenant, the owning admin or a superadmin.
func (g *Guard) Tenant(ctx context.Context, p models.Principal, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := g.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	switch p.Role {
	case models.RoleSuperAdmin:
		return t, nil
	case models.RoleAdmin:
		if t.OwnerID == p.ID {
			return t, nil
		}
	case models.RoleTenant:
		if t.ID == p.ID {
			return t, nil
		}
	}
	return nil, apperr.Forbidden("not authorized for this tenant")
}

// Owner resolves the owner a listing is scoped to. Admins may only name themselves (or nothing);
// superadmins must name an owner.
func Owner(p models.Principal, raw string) (uuid.UUID, error) {
	switch p.Role {
	case models.RoleAdmin:
		if raw == "" {
			return p.ID, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, apperr.Validation("invalid ownerId")
		}
		if id != p.ID {
			return uuid.Nil, apperr.Forbidden("not authorized for this owner")
		}
		return id, nil
	case models.RoleSuperAdmin:
		if raw == "" {
			return uuid.Nil, apperr.Validation("ownerId is required")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, apperr.Validation("invalid ownerId")
		}
		return id, nil
	default:
		return uuid.Nil, apperr.Forbidden("not authorized for this owner")
	}
}

// SelfOrSuperAdmin allows a superadmin, or the admin whose id is given.
func SelfOrSuperAdmin(p models.Principal, id uuid.UUID) error {
	if p.IsSuperAdmin() || (p.Role == models.RoleAdmin && p.ID == id) {
		return nil
	}
	return apperr.Forbidden("not authorized for this admin")
}

// ParseID parses a required uuid parameter, naming it in the validation message.
func ParseID(name, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, apperr.Validation("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}
