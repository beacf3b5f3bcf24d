package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"technest-backend/internal/infrastructure/email"
	"technest-backend/internal/shared"
)

// ============================================
// Payment Email Handler
// ============================================

type PaymentEmailHandler struct {
	emailService email.EmailService
}

func NewPaymentEmailHandler(emailService email.EmailService) *PaymentEmailHandler {
	return &PaymentEmailHandler{
		emailService: emailService,
	}
}

func (h *PaymentEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.PaymentEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal PaymentEmail payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log.Info().
		Str("order_ref", payload.OrderRef).
		Str("event", payload.Event).
		Msg("Processing payment email")

	if err := h.emailService.SendPaymentEmail(ctx, payload); err != nil {
		log.Error().Err(err).Str("order_ref", payload.OrderRef).Msg("Failed to send payment email")
		return fmt.Errorf("send payment email: %w", err)
	}

	log.Info().
		Str("order_ref", payload.OrderRef).
		Msg("Payment email sent successfully")

	return nil
}

// ============================================
// Invoice Request Handler
// ============================================

type InvoiceRequestHandler struct {
	emailService email.EmailService
}

func NewInvoiceRequestHandler(emailService email.EmailService) *InvoiceRequestHandler {
	return &InvoiceRequestHandler{
		emailService: emailService,
	}
}

func (h *InvoiceRequestHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.InvoiceRequestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal InvoiceRequest payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log.Info().
		Str("order_ref", payload.OrderRef).
		Msg("Processing invoice request email")

	if err := h.emailService.SendInvoiceRequestEmail(ctx, payload); err != nil {
		log.Error().Err(err).Str("order_ref", payload.OrderRef).Msg("Failed to send invoice request email")
		return fmt.Errorf("send invoice request email: %w", err)
	}

	return nil
}
