package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ENTITY: PaymentWebhookLog
// =====================================================
// Every callback delivery is recorded before verification, so forged or
// malformed payloads leave an audit trail even when they are rejected.
type PaymentWebhookLog struct {
	ID        uuid.UUID `json:"id"`
	Provider  string    `json:"provider"`
	OrderRef  *string   `json:"order_ref,omitempty"` // nil when the payload never parsed
	Status    string    `json:"status"`              // received / processed / rejected / ignored
	Reason    *string   `json:"reason,omitempty"`
	RawBody   []byte    `json:"-"`
	SourceIP  string    `json:"source_ip"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewWebhookLog(provider, sourceIP string, rawBody []byte) *PaymentWebhookLog {
	return &PaymentWebhookLog{
		ID:       uuid.New(),
		Provider: provider,
		Status:   WebhookStatusReceived,
		RawBody:  rawBody,
		SourceIP: sourceIP,
	}
}
