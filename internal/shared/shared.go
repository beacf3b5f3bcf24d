package shared

// Asynq task type names. The api binary enqueues these, the worker binary
// registers handlers for them.
const (
	TypeSendPaymentEmail   = "payment:send_email"
	TypeSendInvoiceRequest = "payment:send_invoice_request"
	TypeExpireStaleOrders  = "order:expire_stale"
)

// Queue names, highest priority first.
const (
	QueueEmails = "emails"
	QueueOrders = "orders"
)

// PaymentEmailPayload is the task payload for customer/admin payment emails.
type PaymentEmailPayload struct {
	Event         string `json:"event"` // payment_initiated, payment_completed, payment_failed
	OrderRef      string `json:"orderRef"`
	CustomerEmail string `json:"customerEmail"`
	Method        string `json:"method"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// InvoiceRequestPayload is the task payload for the manual Payoneer
// settlement path. It triggers an admin-facing invoice email.
type InvoiceRequestPayload struct {
	OrderRef      string `json:"orderRef"`
	CustomerEmail string `json:"customerEmail"`
	Message       string `json:"message,omitempty"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}
