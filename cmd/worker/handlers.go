package main

import (
	"github.com/hibiken/asynq"

	orderJob "technest-backend/internal/domains/order/job"
	"technest-backend/internal/infrastructure/email"
	emailjob "technest-backend/internal/infrastructure/email/job"
	"technest-backend/internal/shared"
	"technest-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Email handlers
	paymentEmail   *emailjob.PaymentEmailHandler
	invoiceRequest *emailjob.InvoiceRequestHandler

	// Maintenance handlers
	expireStaleOrders *orderJob.ExpireStaleOrdersHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	emailSvc := email.NewSMTPEmailService(c.Config.SMTP)

	return &HandlerRegistry{
		paymentEmail:      emailjob.NewPaymentEmailHandler(emailSvc),
		invoiceRequest:    emailjob.NewInvoiceRequestHandler(emailSvc),
		expireStaleOrders: orderJob.NewExpireStaleOrdersHandler(c.OrderService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeSendPaymentEmail, h.paymentEmail.ProcessTask)
	mux.HandleFunc(shared.TypeSendInvoiceRequest, h.invoiceRequest.ProcessTask)
	mux.HandleFunc(shared.TypeExpireStaleOrders, h.expireStaleOrders.ProcessTask)
}
