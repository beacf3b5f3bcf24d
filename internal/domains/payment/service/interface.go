package service

import (
	"context"

	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

// PaymentService orchestrates checkout initiation and callback
// processing across all gateway adapters.
type PaymentService interface {
	// Initiate creates the pending order and opens a provider session
	// for a redirect- or webhook-mode gateway.
	Initiate(ctx context.Context, method string, req model.InitiatePaymentRequest) (*model.InitiatePaymentResponse, error)

	// RequestInvoice creates a pending order on the manual Payoneer path
	// and queues the invoice request for the admin. No redirect happens.
	RequestInvoice(ctx context.Context, req model.InitiatePaymentRequest) (*model.InvoiceRequestResponse, error)

	// HandleCallback runs a provider confirmation through audit logging,
	// verification, replay guarding and the conditional ledger
	// transition. sourceIP is recorded on the audit row.
	HandleCallback(ctx context.Context, provider string, cb gateway.Callback, sourceIP string) error
}
