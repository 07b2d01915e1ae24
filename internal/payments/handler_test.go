package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/realtime"
)

const secret = "test_secret"

func TestSignKnownVector(t *testing.T) {
	assert.Equal(t, "cf1c4e5a087f73cbd82e15e812f31ed3b612004c7a504056ac1652f33e838182",
		Sign(secret, "order_DBJOWzybf0sJbb", "pay_DGNqBkGQJgwq3w"))
	assert.True(t, VerifySignature(secret, "order_DBJOWzybf0sJbb", "pay_DGNqBkGQJgwq3w",
		"cf1c4e5a087f73cbd82e15e812f31ed3b612004c7a504056ac1652f33e838182"))
	assert.False(t, VerifySignature(secret, "order_DBJOWzybf0sJbb", "pay_other",
		"cf1c4e5a087f73cbd82e15e812f31ed3b612004c7a504056ac1652f33e838182"))
	assert.False(t, NewRazorpay("", "x").Configured())
}

type memStore struct {
	mu       sync.Mutex
	payments []*models.Payment
	exported [2]time.Time
}

func (m *memStore) Insert(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.GatewayPaymentID == p.GatewayPaymentID {
			return apperr.Conflict("Payment already recorded")
		}
	}
	p.ID = uuid.New()
	cp := *p
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memStore) Receipt(_ context.Context, id uuid.UUID) (*models.Receipt, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return &models.Receipt{Payment: *p, TenantName: "Asha"}, nil
		}
	}
	return nil, apperr.NotFound("Payment not found")
}

func (m *memStore) Export(_ context.Context, _ uuid.UUID, from, to time.Time) ([]models.PaymentExportRow, error) {
	m.exported = [2]time.Time{from, to}
	return []models.PaymentExportRow{}, nil
}

type fakeGateway struct {
	configured bool
	err        error
	minor      int64
	receipt    string
	orders     map[string]*Order
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, minor int64, currency, receipt string) (*Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.minor, g.receipt = minor, receipt
	o := &Order{ID: fmt.Sprintf("order_%d", len(g.orders)+1), Amount: minor, Currency: currency, Receipt: receipt, Status: "created"}
	g.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, id string) (*Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	o, ok := g.orders[id]
	if !ok {
		return nil, errors.New("BAD_REQUEST_ERROR: The id provided does not exist")
	}
	cp := *o
	return &cp, nil
}

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

type recorder struct {
	owners []uuid.UUID
	events []string
}

func (r *recorder) Notify(owner uuid.UUID, event string, _ interface{}) {
	r.owners = append(r.owners, owner)
	r.events = append(r.events, event)
}

type fixture struct {
	store   *memStore
	gateway *fakeGateway
	events  *recorder
	admin   models.Principal
	tenant  *models.Tenant
	pg      *models.PG
	opts    Options
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	admin := models.Principal{ID: uuid.New(), Role: models.RoleAdmin}
	pg := &models.PG{ID: uuid.New(), OwnerID: admin.ID}
	room := uuid.New()
	tn := &models.Tenant{ID: uuid.New(), OwnerID: admin.ID, PGID: &pg.ID, RoomID: &room}
	return &fixture{
		store:   &memStore{},
		gateway: &fakeGateway{configured: true, orders: map[string]*Order{
			"order_1": {ID: "order_1", Amount: 300000, AmountPaid: 300000, Currency: "INR", Status: "paid"},
		}},
		events:  &recorder{},
		admin:   admin,
		tenant:  tn,
		pg:      pg,
		opts:    Options{KeySecret: secret, Currency: "INR", Location: time.FixedZone("IST", 19800)},
	}
}

func (f *fixture) router(p models.Principal) *gin.Engine {
	guard := access.NewGuard(fakePGs{f.pg.ID: f.pg}, fakeTenants{f.tenant.ID: f.tenant})
	h := NewHandler(f.store, f.gateway, guard, f.events, f.opts, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 2, 20, 6, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.SetPrincipal(c, p); c.Next() })
	r.POST("/payments/create-order", h.CreateOrder)
	r.POST("/payments/verify", h.Verify)
	r.POST("/payments/dummy-verify", h.DummyVerify)
	r.GET("/payments/receipt", h.Receipt)
	r.GET("/payments/export", h.Export)
	return r
}

func (f *fixture) self() models.Principal {
	return models.Principal{ID: f.tenant.ID, Role: models.RoleTenant}
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

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	w := do(f.router(f.self()), http.MethodPost, "/payments/create-order", gin.H{"amount": 1234.56})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(123456), f.gateway.minor)
	assert.True(t, strings.HasPrefix(f.gateway.receipt, "receipt_order_"))
	assert.Contains(t, w.Body.String(), `"currency":"INR"`)
	assert.Contains(t, w.Body.String(), `"keyId":"rzp_test_key"`)

	w = do(f.router(f.self()), http.MethodPost, "/payments/create-order", gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderGatewayUnavailable(t *testing.T) {
	f := newFixture()
	f.gateway.configured = false
	w := do(f.router(f.self()), http.MethodPost, "/payments/create-order", gin.H{"amount": 100})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f.gateway.configured = true
	f.gateway.err = errors.New("timeout")
	w = do(f.router(f.self()), http.MethodPost, "/payments/create-order", gin.H{"amount": 100})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func (f *fixture) verifyBody(paymentID, signature string) gin.H {
	return gin.H{
		"orderId": "order_1", "paymentId": paymentID, "signature": signature,
		"amount": 3000, "currency": "inr", "tenantId": f.tenant.ID, "pgId": f.pg.ID, "roomId": *f.tenant.RoomID,
	}
}

func TestVerifyRecordsPayment(t *testing.T) {
	f := newFixture()
	r := f.router(f.self())

	w := do(r, http.MethodPost, "/payments/verify", f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.store.payments, 1)
	p := f.store.payments[0]
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, "INR", p.Currency)
	assert.Equal(t, "pay_1", p.GatewayPaymentID)
	assert.Equal(t, []string{realtime.EventPaymentRecorded}, f.events.events)
	assert.Equal(t, f.admin.ID, f.events.owners[0])

	w = do(r, http.MethodPost, "/payments/verify", f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1")))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, f.store.payments, 1)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	f := newFixture()
	w := do(f.router(f.self()), http.MethodPost, "/payments/verify", f.verifyBody("pay_1", Sign("wrong", "order_1", "pay_1")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid payment signature")
	assert.Empty(t, f.store.payments)
	assert.Empty(t, f.events.events)
}

func TestVerifyForOtherTenantForbidden(t *testing.T) {
	f := newFixture()
	other := models.Principal{ID: uuid.New(), Role: models.RoleTenant}
	w := do(f.router(other), http.MethodPost, "/payments/verify", f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1")))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.store.payments)
}

func TestDummyVerify(t *testing.T) {
	f := newFixture()
	body := gin.H{"amount": 5000, "tenantId": f.tenant.ID, "pgId": f.pg.ID}

	w := do(f.router(f.admin), http.MethodPost, "/payments/dummy-verify", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.opts.DummyEnabled = true
	w = do(f.router(f.self()), http.MethodPost, "/payments/dummy-verify", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(f.router(f.admin), http.MethodPost, "/payments/dummy-verify", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.store.payments, 1)
	assert.True(t, strings.HasPrefix(f.store.payments[0].GatewayPaymentID, "pay_dummy_"))
}

func TestReceiptAccess(t *testing.T) {
	f := newFixture()
	r := f.router(f.self())
	w := do(r, http.MethodPost, "/payments/verify", f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1")))
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/payments/receipt?paymentId=" + f.store.payments[0].ID.String()

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, do(f.router(f.admin), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(f.router(models.Principal{ID: uuid.New(), Role: models.RoleTenant}), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(f.router(models.Principal{ID: uuid.New(), Role: models.RoleAdmin}), http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/payments/receipt?paymentId="+uuid.NewString(), nil).Code)
}

func TestExportUsesBillingMonth(t *testing.T) {
	f := newFixture()
	w := do(f.router(f.admin), http.MethodGet, "/payments/export?pgId="+f.pg.ID.String()+"&date=2024-02-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.store.exported[0].Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, f.opts.Location)))
	assert.True(t, f.store.exported[1].Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, f.opts.Location)))

	w = do(f.router(f.self()), http.MethodGet, "/payments/export?pgId="+f.pg.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyRequiresOrderAmount(t *testing.T) {
	f := newFixture()
	r := f.router(f.self())

	w := do(r, http.MethodPost, "/payments/create-order", gin.H{"amount": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Data Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	orderID := env.Data.ID
	require.NotEmpty(t, orderID)

	body := gin.H{
		"orderId": orderID, "paymentId": "pay_9", "signature": Sign(secret, orderID, "pay_9"),
		"amount": 50000, "tenantId": f.tenant.ID, "pgId": f.pg.ID,
	}
	w = do(r, http.MethodPost, "/payments/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Payment amount does not match the order")
	assert.Empty(t, f.store.payments)
	assert.Empty(t, f.events.events)

	body["amount"] = 1
	body["currency"] = "USD"
	w = do(r, http.MethodPost, "/payments/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.store.payments)

	delete(body, "currency")
	w = do(r, http.MethodPost, "/payments/verify", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, f.store.payments, 1)
	assert.True(t, f.store.payments[0].Amount.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, f.tenant.RoomID, f.store.payments[0].RoomID)
}

func TestVerifyUnknownOrder(t *testing.T) {
	f := newFixture()
	body := f.verifyBody("pay_2", "")
	body["orderId"] = "order_missing"
	body["signature"] = Sign(secret, "order_missing", "pay_2")
	w := do(f.router(f.self()), http.MethodPost, "/payments/verify", body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, f.store.payments)
}

func TestVerifyTiesRoomAndPGToTenant(t *testing.T) {
	f := newFixture()
	other := &models.PG{ID: uuid.New(), OwnerID: f.admin.ID}
	guard := access.NewGuard(fakePGs{f.pg.ID: f.pg, other.ID: other}, fakeTenants{f.tenant.ID: f.tenant})
	h := NewHandler(f.store, f.gateway, guard, f.events, f.opts, zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) { middleware.SetPrincipal(c, f.admin); c.Next() })
	r.POST("/payments/verify", h.Verify)

	body := f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1"))
	body["roomId"] = uuid.New()
	w := do(r, http.MethodPost, "/payments/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "roomId does not match the tenant's room")

	body = f.verifyBody("pay_1", Sign(secret, "order_1", "pay_1"))
	body["pgId"] = other.ID
	w = do(r, http.MethodPost, "/payments/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "pgId does not match the tenant's PG")
	assert.Empty(t, f.store.payments)
}
