package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/access"
	"github.com/smartnex-ai/backend/internal/apperr"
	"github.com/smartnex-ai/backend/internal/billing"
	"github.com/smartnex-ai/backend/internal/middleware"
	"github.com/smartnex-ai/backend/internal/models"
	"github.com/smartnex-ai/backend/internal/realtime"
	"github.com/smartnex-ai/backend/pkg/response"
)

// Store is the persistence used by the handler.
type Store interface {
	Insert(ctx context.Context, p *models.Payment) error
	Receipt(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error)
	Export(ctx context.Context, pgID uuid.UUID, from, to time.Time) ([]models.PaymentExportRow, error)
}

// Notifier publishes owner feed events.
type Notifier interface {
	Notify(ownerID uuid.UUID, event string, payload interface{})
}

// Options configures the handler.
type Options struct {
	KeySecret    string
	Currency     string
	DummyEnabled bool
	Location     *time.Location
}

// CreateOrderRequest is the body for POST /payments/create-order.
type CreateOrderRequest struct {
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	Currency string           `json:"currency"`
}

// VerifyRequest is the body for POST /payments/verify.
type VerifyRequest struct {
	OrderID   string           `json:"orderId" binding:"required"`
	PaymentID string           `json:"paymentId" binding:"required"`
	Signature string           `json:"signature" binding:"required"`
	Amount    *decimal.Decimal `json:"amount" binding:"required"`
	Currency  string           `json:"currency"`
	TenantID  string           `json:"tenantId" binding:"required"`
	PGID      string           `json:"pgId" binding:"required"`
	RoomID    string           `json:"roomId"`
}

// DummyVerifyRequest is the body for POST /payments/dummy-verify.
type DummyVerifyRequest struct {
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
	TenantID string           `json:"tenantId" binding:"required"`
	PGID     string           `json:"pgId" binding:"required"`
	RoomID   string           `json:"roomId"`
}

// Handler serves the payment endpoints.
type Handler struct {
	store    Store
	gateway  Gateway
	guard    *access.Guard
	notifier Notifier
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a payment handler. notifier may be nil.
func NewHandler(store Store, gateway Gateway, guard *access.Guard, notifier Notifier, opts Options, logger *zap.Logger) *Handler {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{store: store, gateway: gateway, guard: guard, notifier: notifier, opts: opts, logger: logger, now: time.Now}
}

// CreateOrder handles POST /payments/create-order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount is required")
		return
	}
	if !req.Amount.IsPositive() {
		response.BadRequest(c, "amount must be positive")
		return
	}
	if h.gateway == nil || !h.gateway.Configured() {
		response.ServiceUnavailable(c, "Payment gateway is not configured")
		return
	}
	currency := h.currency(req.Currency)
	minor := minorUnits(*req.Amount)
	receipt := fmt.Sprintf("receipt_order_%d", h.now().UnixNano())
	order, err := h.gateway.CreateOrder(c.Request.Context(), minor, currency, receipt)
	if err != nil {
		h.logger.Error("create order failed", zap.Error(err))
		response.Error(c, h.logger, apperr.Unavailable("Could not create payment order").Wrap(err))
		return
	}
	order.KeyID = h.gateway.KeyID()
	response.OK(c, order)
}

// Verify handles POST /payments/verify. The checkout signature must match and the gateway order
// must carry the claimed amount before anything is written.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "orderId, paymentId, signature, amount, tenantId and pgId are required")
		return
	}
	if !VerifySignature(h.opts.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		response.BadRequest(c, "Invalid payment signature")
		return
	}
	p, tenant, err := h.payment(c, req.TenantID, req.PGID, req.RoomID, req.Amount)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p.Currency = h.currency(req.Currency)
	if h.gateway == nil || !h.gateway.Configured() {
		response.ServiceUnavailable(c, "Payment gateway is not configured")
		return
	}
	order, err := h.gateway.FetchOrder(c.Request.Context(), req.OrderID)
	if err != nil {
		response.Error(c, h.logger, apperr.Unavailable("Could not confirm payment order").Wrap(err))
		return
	}
	if err := matchOrder(order, p.Amount, p.Currency); err != nil {
		h.logger.Warn("payment does not match gateway order",
			zap.String("order_id", req.OrderID),
			zap.Int64("order_amount", order.Amount),
			zap.String("claimed", p.Amount.String()))
		response.Error(c, h.logger, err)
		return
	}
	p.GatewayOrderID = req.OrderID
	p.GatewayPaymentID = req.PaymentID
	h.record(c, p, tenant)
}

// DummyVerify handles POST /payments/dummy-verify: an owner records a payment without the gateway.
func (h *Handler) DummyVerify(c *gin.Context) {
	if !h.opts.DummyEnabled {
		response.Forbidden(c, "Dummy payments are disabled")
		return
	}
	var req DummyVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "amount, tenantId and pgId are required")
		return
	}
	if middleware.CurrentPrincipal(c).Role == models.RoleTenant {
		response.Forbidden(c, "only owners can record dummy payments")
		return
	}
	p, tenant, err := h.payment(c, req.TenantID, req.PGID, req.RoomID, req.Amount)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p.Currency = h.opts.Currency
	p.GatewayOrderID = fmt.Sprintf("order_dummy_%d", h.now().UnixNano())
	p.GatewayPaymentID = "pay_dummy_" + uuid.NewString()
	h.record(c, p, tenant)
}

// Receipt handles GET /payments/receipt?paymentId=.
func (h *Handler) Receipt(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := access.ParseID("paymentId", c.Query("paymentId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	rc, err := h.store.Receipt(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	switch p.Role {
	case models.RoleSuperAdmin:
	case models.RoleTenant:
		if rc.TenantID != p.ID {
			response.Forbidden(c, "not authorized for this payment")
			return
		}
	default:
		if rc.PGID == nil {
			response.Forbidden(c, "not authorized for this payment")
			return
		}
		if _, err := h.guard.ManagePG(ctx, p, *rc.PGID); err != nil {
			response.Error(c, h.logger, err)
			return
		}
	}
	response.OK(c, rc)
}

// Export handles GET /payments/export?pgId=&date=: the month's collections, by date.
func (h *Handler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	pgID, err := access.ParseID("pgId", c.Query("pgId"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ref, err := billing.ParseDate(c.Query("date"), h.opts.Location, h.now())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if _, err := h.guard.ManagePG(ctx, middleware.CurrentPrincipal(c), pgID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	from, to := billing.MonthBounds(ref, h.opts.Location)
	rows, err := h.store.Export(ctx, pgID, from, to)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, rows)
}

// payment validates the ids and amount and checks the caller may pay for the tenant in that PG.
func (h *Handler) payment(c *gin.Context, rawTenant, rawPG, rawRoom string, amount *decimal.Decimal) (*models.Payment, *models.Tenant, error) {
	if !amount.IsPositive() {
		return nil, nil, apperr.Validation("amount must be positive")
	}
	tenantID, err := access.ParseID("tenantId", rawTenant)
	if err != nil {
		return nil, nil, err
	}
	pgID, err := access.ParseID("pgId", rawPG)
	if err != nil {
		return nil, nil, err
	}
	ctx := c.Request.Context()
	p := middleware.CurrentPrincipal(c)
	tenant, err := h.guard.Tenant(ctx, p, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := h.guard.PG(ctx, p, pgID); err != nil {
		return nil, nil, err
	}
	if tenant.PGID == nil || *tenant.PGID != pgID {
		return nil, nil, apperr.Validation("pgId does not match the tenant's PG")
	}
	roomID := tenant.RoomID
	if strings.TrimSpace(rawRoom) != "" {
		id, err := access.ParseID("roomId", rawRoom)
		if err != nil {
			return nil, nil, err
		}
		if tenant.RoomID == nil || *tenant.RoomID != id {
			return nil, nil, apperr.Validation("roomId does not match the tenant's room")
		}
	}
	return &models.Payment{
		TenantID:    tenantID,
		PGID:        &pgID,
		RoomID:      roomID,
		Amount:      amount.Round(2),
		PaymentDate: h.now().UTC(),
	}, tenant, nil
}

func (h *Handler) record(c *gin.Context, p *models.Payment, tenant *models.Tenant) {
	if err := h.store.Insert(c.Request.Context(), p); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("payment recorded",
		zap.String("payment_id", p.ID.String()),
		zap.String("tenant_id", p.TenantID.String()),
		zap.String("amount", p.Amount.String()))
	if h.notifier != nil {
		h.notifier.Notify(tenant.OwnerID, realtime.EventPaymentRecorded, p)
	}
	response.Created(c, p)
}

// matchOrder requires the gateway order to be for exactly the amount and currency being recorded.
func matchOrder(order *Order, amount decimal.Decimal, currency string) error {
	minor := minorUnits(amount)
	if order.Amount != minor || (order.AmountPaid != 0 && order.AmountPaid != minor) {
		return apperr.Validation("Payment amount does not match the order")
	}
	if order.Currency != "" && !strings.EqualFold(order.Currency, currency) {
		return apperr.Validation("Payment currency does not match the order")
	}
	return nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (h *Handler) currency(raw string) string {
	if s := strings.ToUpper(strings.TrimSpace(raw)); s != "" {
		return s
	}
	return h.opts.Currency
}
