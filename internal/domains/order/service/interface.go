package service

import (
	"context"

	"technest-backend/internal/domains/order/model"
)

// OrderService exposes the ledger to the public polling endpoint, the
// admin surface, and the stale sweep.
type OrderService interface {
	// GetStatus serves the public order-status polling endpoint.
	GetStatus(ctx context.Context, orderRef string) (*model.OrderStatusResponse, error)

	AdminList(ctx context.Context, req model.AdminListOrdersRequest) ([]model.Order, int, error)
	AdminGet(ctx context.Context, orderRef string) (*model.Order, error)

	// Reconcile lets an admin resolve a stuck pending payment after
	// verifying the outcome on the provider dashboard.
	Reconcile(ctx context.Context, orderRef string, req model.ReconcileRequest) error

	// MarkRefunded records an out-of-band refund on a completed payment.
	MarkRefunded(ctx context.Context, orderRef string, req model.RefundRequest) error

	// MarkFulfilled closes a paid order after the service was delivered.
	MarkFulfilled(ctx context.Context, orderRef string) error

	// ExpireStaleOrders fails pending orders older than the configured
	// threshold. Returns the number of orders expired.
	ExpireStaleOrders(ctx context.Context) (int, error)
}

// Notifier is the fire-and-forget notification sink consumed by the
// service layer. Implementations must never block the caller on mail
// transport problems.
type Notifier interface {
	Notify(ctx context.Context, event string, order *model.Order)
}
