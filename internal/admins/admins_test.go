package admins

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/pkg/utils"
)

type memStore struct {
	users map[uuid.UUID]*models.User
}

func (m *memStore) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, p CreateParams) (*models.User, error) {
	if m.emailTaken(p.Email, uuid.Nil) {
		return nil, apperr.Conflict(emailInUse)
	}
	u := &models.User{ID: uuid.New(), Name: p.Name, Email: p.Email, Phone: p.Phone, Password: p.PasswordHash, Role: p.Role, CreatedAt: time.Now()}
	if p.Product != nil {
		u.AssignedProducts = []models.Product{*p.Product}
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("Admin not found")
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, name, email, phone string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("Admin not found")
	}
	if m.emailTaken(email, id) {
		return nil, apperr.Conflict("Email already in use by another admin")
	}
	u.Name, u.Email, u.Phone = name, email, phone
	return u, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("Admin not found")
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) ListByProduct(_ context.Context, key string) ([]models.UserPublic, error) {
	list := []models.UserPublic{}
	for _, u := range m.users {
		if u.PrimaryProductKey() == key {
			list = append(list, u.ToPublic())
		}
	}
	return list, nil
}

type catalog map[string]*models.Product

func (c catalog) GetByKey(_ context.Context, key string) (*models.Product, error) {
	if p, ok := c[key]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("Product not found")
}

type pgStats map[uuid.UUID][]models.PGStats

func (s pgStats) ListStatsByOwner(_ context.Context, owner uuid.UUID) ([]models.PGStats, error) {
	if list, ok := s[owner]; ok {
		return list, nil
	}
	return []models.PGStats{}, nil
}

func setup() (*memStore, pgStats, func(models.Principal) *gin.Engine) {
	gin.SetMode(gin.TestMode)
	store := &memStore{users: map[uuid.UUID]*models.User{}}
	stats := pgStats{}
	products := catalog{models.ProductPGManagement: {ID: uuid.New(), Key: models.ProductPGManagement}}
	h := NewHandler(store, products, stats, zap.NewNop())
	return store, stats, func(p models.Principal) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) { middleware.SetPrincipal(c, p); c.Next() })
		r.POST("/admins", h.Create)
		r.PUT("/admins", h.Update)
		r.DELETE("/admins", h.Delete)
		r.GET("/admins", h.List)
		r.GET("/admins/:id", h.Get)
		r.GET("/admins/:id/pgs", h.PGs)
		return r
	}
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var super = models.Principal{ID: uuid.New(), Role: models.RoleSuperAdmin}

func TestCreateAdmin(t *testing.T) {
	store, _, router := setup()
	r := router(super)
	body := gin.H{"name": "Owner", "email": "Owner@Example.com", "phone": "1", "password": "secret1", "productKey": models.ProductPGManagement}

	w := do(r, http.MethodPost, "/admins", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.Contains(t, w.Body.String(), `"productKey":"pg-management"`)
	require.Len(t, store.users, 1)
	for _, u := range store.users {
		assert.Equal(t, "owner@example.com", u.Email)
		assert.Equal(t, models.RoleAdmin, u.Role)
		assert.True(t, utils.CheckPassword("secret1", u.Password))
		cost, err := bcrypt.Cost([]byte(u.Password))
		require.NoError(t, err)
		assert.Equal(t, utils.PasswordCost, cost)
	}

	w = do(r, http.MethodPost, "/admins", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	body["email"] = "other@example.com"
	body["productKey"] = "rocket-science"
	w = do(r, http.MethodPost, "/admins", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, store.users, 1)
}

func TestUpdateDeleteAdmin(t *testing.T) {
	store, _, router := setup()
	r := router(super)
	a, _ := store.Create(context.Background(), CreateParams{Name: "A", Email: "a@x.io", Role: models.RoleAdmin})
	b, _ := store.Create(context.Background(), CreateParams{Name: "B", Email: "b@x.io", Role: models.RoleAdmin})

	w := do(r, http.MethodPut, "/admins", gin.H{"id": a.ID, "name": "A2", "email": "b@x.io"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(r, http.MethodPut, "/admins", gin.H{"id": a.ID, "name": "A2", "email": "a2@x.io"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A2", store.users[a.ID].Name)
	w = do(r, http.MethodPut, "/admins", gin.H{"id": uuid.New(), "name": "Z", "email": "z@x.io"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/admins?id="+b.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/admins?id="+b.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEmptyIsOK(t *testing.T) {
	_, _, router := setup()
	w := do(router(super), http.MethodGet, "/admins", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Empty(t, body.Data)
}

func TestGetAndPGsSelfOrSuperAdmin(t *testing.T) {
	store, stats, router := setup()
	a, _ := store.Create(context.Background(), CreateParams{Name: "A", Email: "a@x.io", Phone: "9", Role: models.RoleAdmin})
	stats[a.ID] = []models.PGStats{{PG: models.PG{ID: uuid.New(), Name: "Sunrise", OwnerID: a.ID}, TenantCount: 4}}
	self := models.Principal{ID: a.ID, Role: models.RoleAdmin}

	w := do(router(self), http.MethodGet, "/admins/"+a.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@x.io"`)

	w = do(router(self), http.MethodGet, "/admins/"+a.ID.String()+"/pgs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tenantCount":4`)

	other := models.Principal{ID: uuid.New(), Role: models.RoleAdmin}
	assert.Equal(t, http.StatusForbidden, do(router(other), http.MethodGet, "/admins/"+a.ID.String()+"/pgs", nil).Code)
	assert.Equal(t, http.StatusOK, do(router(super), http.MethodGet, "/admins/"+a.ID.String()+"/pgs", nil).Code)
}

func TestRepositoryCreateAssignsProductInTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	product := &models.Product{ID: uuid.New(), Key: models.ProductPGManagement}
	id := uuid.New()
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Owner", "o@x.io", "1", "hash", models.RoleAdmin).
		WillReturnRows(mock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "created_at", "updated_at"}).
			AddRow(id, "Owner", "o@x.io", "1", "hash", models.RoleAdmin, now, now))
	mock.ExpectExec("INSERT INTO user_products").
		WithArgs(id, product.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	u, err := NewRepository(mock).Create(context.Background(), CreateParams{
		Name: "Owner", Email: "o@x.io", Phone: "1", PasswordHash: "hash", Role: models.RoleAdmin, Product: product,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductPGManagement, u.PrimaryProductKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Owner", "o@x.io", "", "h", models.RoleAdmin).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	_, err = NewRepository(mock).Create(context.Background(), CreateParams{Name: "Owner", Email: "o@x.io", PasswordHash: "h", Role: models.RoleAdmin})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}
