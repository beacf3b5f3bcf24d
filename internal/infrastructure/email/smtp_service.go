package email

import (
	"context"
	"fmt"
	"net/smtp"

	"technest-backend/internal/config"
	"technest-backend/internal/shared"
	"technest-backend/pkg/logger"
)

// EmailService renders and sends the payment notification emails. All
// sends happen from the worker binary; the api binary only enqueues.
type EmailService interface {
	SendPaymentEmail(ctx context.Context, payload shared.PaymentEmailPayload) error
	SendInvoiceRequestEmail(ctx context.Context, payload shared.InvoiceRequestPayload) error
}

type smtpEmailService struct {
	smtpAddr   string
	smtpFrom   string
	adminEmail string
}

func NewSMTPEmailService(cfg config.SMTPConfig) EmailService {
	return &smtpEmailService{
		smtpAddr:   cfg.Host + ":" + cfg.Port,
		smtpFrom:   cfg.From,
		adminEmail: cfg.AdminEmail,
	}
}

func (s *smtpEmailService) SendPaymentEmail(_ context.Context, payload shared.PaymentEmailPayload) error {
	var subject, body string

	switch payload.Event {
	case "payment_initiated":
		subject = fmt.Sprintf("Order %s received", payload.OrderRef)
		body = fmt.Sprintf(`Hi,

We created your order and sent you to %s to complete the payment of %s %s.

Order reference: %s

You will get a confirmation email as soon as the payment goes through.

TechNest`,
			payload.Method, payload.Amount, payload.Currency, payload.OrderRef)
	case "payment_completed":
		subject = fmt.Sprintf("Payment received for order %s", payload.OrderRef)
		body = fmt.Sprintf(`Hi,

We received your payment of %s %s via %s.

Order reference: %s

Your order is now being processed. You will hear from us again once it ships.

Thanks for shopping with TechNest!`,
			payload.Amount, payload.Currency, payload.Method, payload.OrderRef)
	case "payment_failed":
		subject = fmt.Sprintf("Payment failed for order %s", payload.OrderRef)
		body = fmt.Sprintf(`Hi,

Unfortunately your payment of %s %s via %s did not go through.

Order reference: %s

No money was taken. You can retry the payment from your cart at any time.

TechNest`,
			payload.Amount, payload.Currency, payload.Method, payload.OrderRef)
	default:
		return fmt.Errorf("unknown payment email event: %s", payload.Event)
	}

	return s.send(payload.CustomerEmail, subject, body)
}

// SendInvoiceRequestEmail notifies the admin that a Payoneer invoice is
// wanted and confirms receipt to the customer.
func (s *smtpEmailService) SendInvoiceRequestEmail(_ context.Context, payload shared.InvoiceRequestPayload) error {
	adminSubject := fmt.Sprintf("Payoneer invoice request: %s", payload.OrderRef)
	adminBody := fmt.Sprintf(`A customer requested a Payoneer invoice.

Order reference: %s
Customer: %s
Amount: %s %s
Message: %s

Send the invoice from the Payoneer dashboard, then reconcile the order
once the payment arrives.`,
		payload.OrderRef, payload.CustomerEmail, payload.Amount, payload.Currency, payload.Message)

	if err := s.send(s.adminEmail, adminSubject, adminBody); err != nil {
		return err
	}

	customerSubject := fmt.Sprintf("Your invoice request %s", payload.OrderRef)
	customerBody := fmt.Sprintf(`Hi,

We received your request to pay %s %s by Payoneer invoice.

Order reference: %s

You will receive the invoice by email shortly. The order stays reserved
until the payment arrives.

TechNest`,
		payload.Amount, payload.Currency, payload.OrderRef)

	return s.send(payload.CustomerEmail, customerSubject, customerBody)
}

func (s *smtpEmailService) send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.smtpFrom, to, subject, body))

	if err := smtp.SendMail(s.smtpAddr, nil, s.smtpFrom, []string{to}, msg); err != nil {
		logger.Info("Failed to send email", map[string]interface{}{
			"error":     err.Error(),
			"to":        to,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
