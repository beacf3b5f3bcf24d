package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	ordermodel "technest-backend/internal/domains/order/model"
)

// =====================================================
// INITIATION REQUEST (shared by all gateway endpoints)
// =====================================================

type CartItem struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Type  string          `json:"type,omitempty"`
}

func (i CartItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ID, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.Title, validation.Required, validation.Length(1, 300)),
	)
}

// InitiatePaymentRequest is the checkout body. The submitted Total is
// cross-checked against the recomputed cart sum; the client never gets
// to decide the amount on its own.
type InitiatePaymentRequest struct {
	Cart          []CartItem      `json:"cart"`
	Total         decimal.Decimal `json:"total"`
	CustomerEmail string          `json:"customer_email"`
	Message       string          `json:"message,omitempty"`
	Location      string          `json:"location,omitempty"`
}

func (r InitiatePaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Cart, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.CustomerEmail, validation.Required, is.EmailFormat),
		validation.Field(&r.Message, validation.Length(0, 1000)),
		validation.Field(&r.Location, validation.In(
			ordermodel.LocationLocal, ordermodel.LocationInternational,
		)),
	)
}

// CartTotal recomputes the authoritative amount from the line items.
func (r InitiatePaymentRequest) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Cart {
		total = total.Add(item.Price)
	}
	return total
}

// OrderItems converts the cart into the denormalized ledger snapshot.
func (r InitiatePaymentRequest) OrderItems() []ordermodel.OrderItem {
	items := make([]ordermodel.OrderItem, 0, len(r.Cart))
	for _, item := range r.Cart {
		items = append(items, ordermodel.OrderItem{
			ID:    item.ID,
			Title: item.Title,
			Price: item.Price,
			Type:  item.Type,
		})
	}
	return items
}

// =====================================================
// RESPONSES
// =====================================================

// InitiatePaymentResponse is returned by the redirect-style gateways:
// the browser navigates to PaymentURL to finish the payment.
type InitiatePaymentResponse struct {
	OrderRef   string `json:"order_ref"`
	PaymentURL string `json:"payment_url"`
}

// InvoiceRequestResponse is returned by the manual Payoneer path: no
// redirect happens, the customer waits for an emailed invoice.
type InvoiceRequestResponse struct {
	OrderRef string `json:"order_ref"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}
