package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// ConfirmationMode describes how a provider reports the payment outcome.
type ConfirmationMode string

const (
	// ModeRedirect providers post the outcome to a server endpoint after
	// the customer returns from the hosted payment page (SSLCommerz IPN,
	// bKash and Nagad callbacks).
	ModeRedirect ConfirmationMode = "redirect"

	// ModeWebhook providers deliver a signed asynchronous event (Stripe).
	ModeWebhook ConfirmationMode = "webhook"

	// ModeManual providers have no machine confirmation at all; an admin
	// reconciles the payment by hand (Payoneer invoices).
	ModeManual ConfirmationMode = "manual"
)

// InitiateRequest is what the orchestrator hands an adapter to open a
// payment session. The order row already exists in pending state.
type InitiateRequest struct {
	OrderRef      string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	ItemSummary   string // short human-readable cart description
}

// InitiateResult carries the provider session back to the orchestrator.
type InitiateResult struct {
	PaymentURL string // where to send the browser; empty for manual mode
	SessionID  string // provider-side session identifier, if any
}

// Callback is the raw inbound confirmation before any verification.
// Form-posting providers fill Form; JSON webhook providers fill RawBody
// and Signature.
type Callback struct {
	RawBody   []byte
	Signature string // provider signature header, when delivered that way
	Form      map[string]string
	Query     map[string]string
}

// CallbackResult is the normalized, verified outcome of a callback.
type CallbackResult struct {
	OrderRef    string
	Outcome     string // model.OutcomeSuccess / OutcomeFailed / OutcomeUnknown
	ProviderRef string // provider transaction id
	Amount      decimal.Decimal
	Currency    string

	// Provider detail fields, persisted on the order when present.
	ValidationID      string
	CardType          string
	CardBrand         string
	CardIssuer        string
	BankTransactionID string

	FailureReason string
}

// Adapter is the uniform gateway contract. Each provider package
// implements it once; the orchestrator never branches on provider
// names.
//
// VerifyCallback MUST be called before ParseCallback output is trusted.
// Adapters that cannot verify offline (bKash) verify by re-querying the
// provider.
type Adapter interface {
	Name() string
	Mode() ConfirmationMode

	// Initiate opens a payment session with the provider. Manual-mode
	// adapters return an empty PaymentURL without any network call.
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)

	// VerifyCallback authenticates an inbound callback. Returns
	// model.ErrInvalidSignature when the payload fails verification.
	VerifyCallback(ctx context.Context, cb Callback) error

	// ParseCallback extracts the normalized outcome from a callback that
	// already passed VerifyCallback.
	ParseCallback(cb Callback) (*CallbackResult, error)
}
