package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// =====================================================
// ORDER STATUS RESPONSE (public polling endpoint)
// =====================================================
// Deliberately omits provider internals: the browser only ever sees the
// normalized state, never raw gateway identifiers.
type OrderStatusResponse struct {
	OrderRef      string          `json:"order_ref"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

func NewOrderStatusResponse(o *Order) *OrderStatusResponse {
	return &OrderStatusResponse{
		OrderRef:      o.OrderRef,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		Amount:        o.Amount,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

// =====================================================
// ADMIN LIST / DETAIL
// =====================================================

type AdminListOrdersRequest struct {
	Status        *string `form:"status"`
	PaymentStatus *string `form:"payment_status"`
	Method        *string `form:"method"`
	Page          int     `form:"page"`
	Limit         int     `form:"limit"`
}

func (r *AdminListOrdersRequest) Validate() error {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Status, validation.In(
			OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled,
		)),
		validation.Field(&r.PaymentStatus, validation.In(
			PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded,
		)),
		validation.Field(&r.Method, validation.In(
			PaymentMethodSSLCommerz, PaymentMethodStripe, PaymentMethodPayoneer,
			PaymentMethodBkash, PaymentMethodNagad, PaymentMethodRocket,
		)),
	)
}

// ReconcileRequest is the admin manual-reconciliation body: the admin
// verified the outcome on the provider dashboard and overrides a stuck
// pending payment.
type ReconcileRequest struct {
	Outcome       string `json:"outcome"` // completed or failed
	TransactionID string `json:"transaction_id,omitempty"`
	Notes         string `json:"notes"`
}

func (r ReconcileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Outcome, validation.Required, validation.In(
			PaymentStatusCompleted, PaymentStatusFailed,
		)),
		validation.Field(&r.Notes, validation.Required, validation.Length(3, 500)),
	)
}

// RefundRequest marks a completed payment as refunded. The money moves
// on the provider dashboard; this records the fact.
type RefundRequest struct {
	Reason string `json:"reason"`
}

func (r RefundRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(3, 500)),
	)
}
