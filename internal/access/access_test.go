package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/models"
)

type fakePGs map[uuid.UUID]*models.PG

func (f fakePGs) GetByID(_ context.Context, id uuid.UUID) (*models.PG, error) {
	if pg, ok := f[id]; ok {
		return pg, nil
	}
	return nil, apperr.NotFound("PG not found")
}

type fakeTenants map[uuid.UUID]*models.Tenant

func (f fakeTenants) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f[id]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("Tenant not found")
}

func TestGuardPG(t *testing.T) {
	owner, other := uuid.New(), uuid.New()
	pg := &models.PG{ID: uuid.New(), OwnerID: owner}
	resident := &models.Tenant{ID: uuid.New(), OwnerID: owner, PGID: &pg.ID}
	outsider := &models.Tenant{ID: uuid.New(), OwnerID: owner}
	g := NewGuard(fakePGs{pg.ID: pg}, fakeTenants{resident.ID: resident, outsider.ID: outsider})
	ctx := context.Background()

	cases := []struct {
		name string
		p    models.Principal
		kind apperr.Kind
		ok   bool
	}{
		{"owner", models.Principal{ID: owner, Role: models.RoleAdmin}, 0, true},
		{"superadmin", models.Principal{ID: other, Role: models.RoleSuperAdmin}, 0, true},
		{"resident", models.Principal{ID: resident.ID, Role: models.RoleTenant}, 0, true},
		{"other admin", models.Principal{ID: other, Role: models.RoleAdmin}, apperr.KindForbidden, false},
		{"outsider", models.Principal{ID: outsider.ID, Role: models.RoleTenant}, apperr.KindForbidden, false},
	}
	for _, tc := range cases {
		got, err := g.PG(ctx, tc.p, pg.ID)
		if tc.ok {
			require.NoError(t, err, tc.name)
			assert.Equal(t, pg.ID, got.ID)
			continue
		}
		assert.True(t, apperr.Is(err, tc.kind), tc.name)
	}

	_, err := g.PG(ctx, models.Principal{ID: owner, Role: models.RoleAdmin}, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = g.ManagePG(ctx, models.Principal{ID: resident.ID, Role: models.RoleTenant}, pg.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestGuardTenant(t *testing.T) {
	owner := uuid.New()
	tn := &models.Tenant{ID: uuid.New(), OwnerID: owner}
	g := NewGuard(fakePGs{}, fakeTenants{tn.ID: tn})
	ctx := context.Background()

	_, err := g.Tenant(ctx, models.Principal{ID: tn.ID, Role: models.RoleTenant}, tn.ID)
	assert.NoError(t, err)
	_, err = g.Tenant(ctx, models.Principal{ID: owner, Role: models.RoleAdmin}, tn.ID)
	assert.NoError(t, err)
	_, err = g.Tenant(ctx, models.Principal{ID: uuid.New(), Role: models.RoleTenant}, tn.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = g.Tenant(ctx, models.Principal{ID: owner, Role: models.RoleAdmin}, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOwner(t *testing.T) {
	admin := models.Principal{ID: uuid.New(), Role: models.RoleAdmin}
	super := models.Principal{ID: uuid.New(), Role: models.RoleSuperAdmin}

	id, err := Owner(admin, "")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, id)

	_, err = Owner(admin, uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = Owner(super, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	target := uuid.New()
	id, err = Owner(super, target.String())
	require.NoError(t, err)
	assert.Equal(t, target, id)

	_, err = Owner(models.Principal{Role: models.RoleTenant}, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestParseID(t *testing.T) {
	_, err := ParseID("pgId", "")
	assert.EqualError(t, err, "pgId is required")
	_, err = ParseID("pgId", "nope")
	assert.EqualError(t, err, "invalid pgId")
	id := uuid.New()
	got, err := ParseID("pgId", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
