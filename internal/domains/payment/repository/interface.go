package repository

import (
	"context"

	"technest-backend/internal/domains/payment/model"
)

// WebhookLogRepository persists the callback audit trail. Writes here
// are best-effort: a failed audit insert never blocks callback
// processing, only gets logged.
type WebhookLogRepository interface {
	Create(ctx context.Context, log *model.PaymentWebhookLog) error

	// Resolve finalizes a log entry with the processing outcome.
	Resolve(ctx context.Context, id string, orderRef, status, reason string) error

	// ListByOrderRef returns the audit trail for one order, oldest first.
	ListByOrderRef(ctx context.Context, orderRef string) ([]model.PaymentWebhookLog, error)
}
