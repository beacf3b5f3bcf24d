package model

// =====================================================
// ERROR CODES (stable API contract, logged and returned)
// =====================================================
const (
	ErrCodeValidation       = "PAY001" // malformed initiation request
	ErrCodeUnsupported      = "PAY002" // payment method not supported for initiation
	ErrCodeTotalMismatch    = "PAY003" // client total disagrees with recomputed cart total
	ErrCodeGatewayInit      = "PAY004" // provider session creation failed
	ErrCodeInvalidSignature = "PAY005" // callback failed signature verification
	ErrCodeUnknownOrder     = "PAY006" // callback referenced an unknown order ref
	ErrCodeAmountMismatch   = "PAY007" // callback amount drifted from the ledger amount
	ErrCodeOrderNotFound    = "PAY008"
	ErrCodeOrderNotPending  = "PAY009"
	ErrCodeInternal         = "PAY010"
)

// =====================================================
// CALLBACK OUTCOMES (normalized across providers)
// =====================================================
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeUnknown = "unknown"
)

// =====================================================
// FAILURE CODES persisted on the order row
// =====================================================
const (
	FailureCodeGatewayInit    = "GATEWAY_INIT_FAILED"
	FailureCodeDeclined       = "PAYMENT_DECLINED"
	FailureCodeCancelled      = "PAYMENT_CANCELLED"
	FailureCodeAmountTampered = "AMOUNT_MISMATCH"
)

// =====================================================
// WEBHOOK LOG STATUS
// =====================================================
const (
	WebhookStatusReceived  = "received"
	WebhookStatusProcessed = "processed"
	WebhookStatusRejected  = "rejected"
	WebhookStatusIgnored   = "ignored" // duplicate or already-terminal order
)
