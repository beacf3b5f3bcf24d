package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS CONSTANTS
// =====================================================
// Order-level lifecycle, distinct from payment status. A paid order is
// "processing" (awaiting fulfillment); "completed" is an explicit admin
// fulfillment action.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// =====================================================
// PAYMENT METHOD CONSTANTS
// =====================================================
const (
	PaymentMethodSSLCommerz = "sslcommerz"
	PaymentMethodStripe     = "stripe"
	PaymentMethodPayoneer   = "payoneer"
	PaymentMethodBkash      = "bkash"
	PaymentMethodNagad      = "nagad"
	PaymentMethodRocket     = "rocket"
)

var ValidPaymentMethods = []string{
	PaymentMethodSSLCommerz,
	PaymentMethodStripe,
	PaymentMethodPayoneer,
	PaymentMethodBkash,
	PaymentMethodNagad,
	PaymentMethodRocket,
}

// =====================================================
// PAYMENT STATUS CONSTANTS
// =====================================================
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// =====================================================
// CURRENCY / LOCATION CONSTANTS
// =====================================================
const (
	CurrencyBDT = "BDT"
	CurrencyUSD = "USD"

	LocationLocal         = "local"
	LocationInternational = "international"
)

// CurrencyForMethod maps a payment method to the currency it settles in.
// Local Bangladeshi gateways take BDT, international ones USD.
func CurrencyForMethod(method string) string {
	switch method {
	case PaymentMethodStripe, PaymentMethodPayoneer:
		return CurrencyUSD
	default:
		return CurrencyBDT
	}
}

// MethodAllowedForLocation reports whether a payment method belongs to
// the checkout location the customer selected. An empty location places
// no restriction.
func MethodAllowedForLocation(method, location string) bool {
	switch location {
	case LocationLocal:
		return method != PaymentMethodStripe && method != PaymentMethodPayoneer
	case LocationInternational:
		return method == PaymentMethodStripe || method == PaymentMethodPayoneer
	default:
		return true
	}
}

// =====================================================
// ENTITY: Order
// =====================================================
// Order is the sole persistent aggregate of the payment core: one row
// per checkout attempt, mutated exactly once more by the provider
// callback (or the stale sweep) to record the terminal outcome.
// Orders are never deleted.
type Order struct {
	ID              uuid.UUID   `json:"id"`
	OrderRef        string      `json:"order_ref"` // correlation key, assigned once at creation
	CustomerEmail   string      `json:"customer_email"`
	CustomerMessage *string     `json:"customer_message,omitempty"`
	Items           []OrderItem `json:"items"` // denormalized cart snapshot

	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"payment_status"`

	// Provider details, populated by the callback handler
	TransactionID     *string `json:"transaction_id,omitempty"`
	ValidationID      *string `json:"validation_id,omitempty"`
	CardType          *string `json:"card_type,omitempty"`
	CardBrand         *string `json:"card_brand,omitempty"`
	CardIssuer        *string `json:"card_issuer,omitempty"`
	BankTransactionID *string `json:"bank_transaction_id,omitempty"`

	FailureCode   *string `json:"failure_code,omitempty"`
	FailureReason *string `json:"failure_reason,omitempty"`

	Status string `json:"status"`

	PaidAt     *time.Time `json:"paid_at,omitempty"`
	FailedAt   *time.Time `json:"failed_at,omitempty"`
	RefundedAt *time.Time `json:"refunded_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// OrderItem is a snapshot of one cart line at checkout time. Prices are
// copied, not referenced; later catalog edits never change an order.
type OrderItem struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type,omitempty"`
}

// IsTerminal reports whether the payment reached a final state.
// Callbacks arriving for a terminal order are idempotent no-ops.
func (o *Order) IsTerminal() bool {
	return o.PaymentStatus != PaymentStatusPending
}

// IsPaid reports whether the payment completed successfully.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusCompleted
}

// CanBeRefunded reports whether an admin may mark the order refunded.
// Only completed payments qualify; refunds are settled out-of-band on
// the provider dashboard.
func (o *Order) CanBeRefunded() bool {
	return o.PaymentStatus == PaymentStatusCompleted
}

// ItemsTotal sums the snapshot prices. The orchestrator recomputes this
// at checkout and rejects a client-submitted total that disagrees.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price)
	}
	return total
}

// =====================================================
// ORDER REFERENCE GENERATION
// =====================================================

// NewOrderRef generates the correlation key used to match provider
// callbacks back to an order. SSLCommerz refs use the REF prefix; all
// other gateways get PAY plus a random suffix so two checkouts in the
// same millisecond cannot collide.
func NewOrderRef(method string) string {
	now := time.Now().UnixMilli()
	if method == PaymentMethodSSLCommerz {
		return fmt.Sprintf("REF%d", now)
	}
	return fmt.Sprintf("PAY%d%s", now, randomSuffix())
}

func randomSuffix() string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a fixed suffix; the millisecond prefix still
		// keeps refs unique enough for a retry.
		return "0000"
	}
	return hex.EncodeToString(b)
}
