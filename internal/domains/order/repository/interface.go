package repository

import (
	"context"
	"time"

	"technest-backend/internal/domains/order/model"
)

// OrderRepository is the persistence boundary for the order ledger.
//
// The three transition methods are conditional writes: they apply the
// state change only when the current status still allows it and report
// whether a row was actually updated. This single-row compare-and-swap
// is what makes duplicate webhook delivery safe without any cross-order
// locking.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error

	GetByRef(ctx context.Context, orderRef string) (*model.Order, error)

	// CompletePayment transitions pending -> completed and records the
	// provider confirmation. Returns applied=false when the order was
	// already terminal.
	CompletePayment(ctx context.Context, orderRef string, conf model.PaymentConfirmation) (bool, error)

	// FailPayment transitions pending -> failed with a failure code and
	// reason. Returns applied=false when the order was already terminal.
	FailPayment(ctx context.Context, orderRef, code, reason string) (bool, error)

	// MarkRefunded transitions completed -> refunded (admin only path).
	MarkRefunded(ctx context.Context, orderRef, reason string) (bool, error)

	// MarkFulfilled transitions order status processing -> completed.
	MarkFulfilled(ctx context.Context, orderRef string) (bool, error)

	List(ctx context.Context, filters map[string]interface{}, page, limit int) ([]model.Order, int, error)

	// FindStalePending returns pending orders created before the cutoff,
	// batch-limited for the sweep job.
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
}
