// Package payments records rent payments confirmed by the gateway and serves receipts and exports.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Order is a gateway order the client completes checkout against. Amounts are in minor units.
type Order struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amountPaid"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	KeyID      string `json:"keyId,omitempty"`
}

// Gateway creates and looks up orders with the payment provider.
type Gateway interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

// Razorpay is the Gateway backed by razorpay-go.
type Razorpay struct {
	client *razorpay.Client
	keyID  string
}

// NewRazorpay creates a gateway client. An empty keyID leaves it unconfigured.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{client: razorpay.NewClient(keyID, keySecret), keyID: keyID}
}

// Configured reports whether orders can be created.
func (r *Razorpay) Configured() bool { return r.keyID != "" }

// KeyID is the public key the checkout widget needs.
func (r *Razorpay) KeyID() string { return r.keyID }

// CreateOrder creates an order for amountMinor (paise for INR).
func (r *Razorpay) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order: %w", err)
	}
	o := orderFromBody(body, &Order{Amount: amountMinor, Currency: currency, Receipt: receipt})
	if o.ID == "" {
		return nil, fmt.Errorf("razorpay order: response without id")
	}
	return o, nil
}

// FetchOrder loads an order as the gateway sees it, including what has been paid against it.
func (r *Razorpay) FetchOrder(_ context.Context, orderID string) (*Order, error) {
	body, err := r.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch order %s: %w", orderID, err)
	}
	o := orderFromBody(body, &Order{})
	if o.ID != orderID {
		return nil, fmt.Errorf("razorpay fetch order %s: unexpected response", orderID)
	}
	return o, nil
}

// orderFromBody overlays the fields present in a Razorpay order response onto o.
func orderFromBody(body map[string]interface{}, o *Order) *Order {
	if v, ok := body["id"].(string); ok {
		o.ID = v
	}
	if v, ok := body["status"].(string); ok {
		o.Status = v
	}
	if v, ok := body["currency"].(string); ok {
		o.Currency = v
	}
	if v, ok := body["receipt"].(string); ok {
		o.Receipt = v
	}
	if v, ok := body["amount"].(float64); ok {
		o.Amount = int64(v)
	}
	if v, ok := body["amount_paid"].(float64); ok {
		o.AmountPaid = int64(v)
	}
	return o
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the checkout signature in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, orderID, paymentID)), []byte(signature))
}
