package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technest-backend/internal/domains/order/model"
)

func newTestOrder(ref, paymentStatus, status string) *model.Order {
	return &model.Order{
		ID:            uuid.New(),
		OrderRef:      ref,
		CustomerEmail: "buyer@example.com",
		PaymentMethod: model.PaymentMethodSSLCommerz,
		Amount:        decimal.RequireFromString("1500.00"),
		Currency:      model.CurrencyBDT,
		PaymentStatus: paymentStatus,
		Status:        status,
		CreatedAt:     time.Now(),
	}
}

func newTestService(repo *fakeOrderRepo, c *fakeCache, n *recordingNotifier) OrderService {
	return NewOrderService(repo, c, n, 24*time.Hour, 100)
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns normalized status and caches it", func(t *testing.T) {
		repo := newFakeOrderRepo()
		c := newFakeCache()
		svc := newTestService(repo, c, &recordingNotifier{})

		repo.put(newTestOrder("REF1", model.PaymentStatusPending, model.OrderStatusPending))

		resp, err := svc.GetStatus(ctx, "REF1")
		require.NoError(t, err)
		assert.Equal(t, "REF1", resp.OrderRef)
		assert.Equal(t, model.PaymentStatusPending, resp.PaymentStatus)

		// Second read served from cache even if the row disappears.
		repo.orders = map[string]*model.Order{}
		resp2, err := svc.GetStatus(ctx, "REF1")
		require.NoError(t, err)
		assert.Equal(t, resp.OrderRef, resp2.OrderRef)
	})

	t.Run("unknown ref returns not found", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), newFakeCache(), &recordingNotifier{})
		_, err := svc.GetStatus(ctx, "NOPE")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("completes a pending payment and notifies", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &recordingNotifier{}
		svc := newTestService(repo, newFakeCache(), notifier)

		repo.put(newTestOrder("PAY1", model.PaymentStatusPending, model.OrderStatusPending))

		err := svc.Reconcile(ctx, "PAY1", model.ReconcileRequest{
			Outcome:       model.PaymentStatusCompleted,
			TransactionID: "TXN-1",
			Notes:         "verified on provider dashboard",
		})
		require.NoError(t, err)

		order, _ := repo.GetByRef(ctx, "PAY1")
		assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)
		assert.Equal(t, model.OrderStatusProcessing, order.Status)
		assert.Equal(t, []string{EventPaymentCompleted}, notifier.events)
	})

	t.Run("rejects terminal orders", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeCache(), &recordingNotifier{})

		repo.put(newTestOrder("PAY2", model.PaymentStatusCompleted, model.OrderStatusProcessing))

		err := svc.Reconcile(ctx, "PAY2", model.ReconcileRequest{
			Outcome: model.PaymentStatusFailed,
			Notes:   "should not apply",
		})
		assert.ErrorIs(t, err, model.ErrOrderNotPending)
	})

	t.Run("validates the request body", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), newFakeCache(), &recordingNotifier{})
		err := svc.Reconcile(ctx, "PAY3", model.ReconcileRequest{Outcome: "bogus", Notes: "notes"})
		assert.Error(t, err)
	})
}

func TestMarkRefunded(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds a completed payment", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeCache(), &recordingNotifier{})

		repo.put(newTestOrder("PAY4", model.PaymentStatusCompleted, model.OrderStatusProcessing))

		err := svc.MarkRefunded(ctx, "PAY4", model.RefundRequest{Reason: "customer cancelled"})
		require.NoError(t, err)

		order, _ := repo.GetByRef(ctx, "PAY4")
		assert.Equal(t, model.PaymentStatusRefunded, order.PaymentStatus)
	})

	t.Run("rejects non-completed payments", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeCache(), &recordingNotifier{})

		repo.put(newTestOrder("PAY5", model.PaymentStatusPending, model.OrderStatusPending))

		err := svc.MarkRefunded(ctx, "PAY5", model.RefundRequest{Reason: "too early"})
		assert.ErrorIs(t, err, model.ErrOrderNotRefundable)
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), newFakeCache(), &recordingNotifier{})
		err := svc.MarkRefunded(ctx, "NOPE", model.RefundRequest{Reason: "missing"})
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestMarkFulfilled(t *testing.T) {
	ctx := context.Background()

	t.Run("fulfills a paid order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeCache(), &recordingNotifier{})

		repo.put(newTestOrder("PAY6", model.PaymentStatusCompleted, model.OrderStatusProcessing))

		require.NoError(t, svc.MarkFulfilled(ctx, "PAY6"))

		order, _ := repo.GetByRef(ctx, "PAY6")
		assert.Equal(t, model.OrderStatusCompleted, order.Status)
	})

	t.Run("rejects unpaid orders", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeCache(), &recordingNotifier{})

		repo.put(newTestOrder("PAY7", model.PaymentStatusPending, model.OrderStatusPending))

		err := svc.MarkFulfilled(ctx, "PAY7")
		assert.ErrorIs(t, err, model.ErrOrderNotPaid)
	})
}

func TestExpireStaleOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("expires only pending orders past the threshold", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &recordingNotifier{}
		svc := newTestService(repo, newFakeCache(), notifier)

		stale := newTestOrder("OLD1", model.PaymentStatusPending, model.OrderStatusPending)
		stale.CreatedAt = time.Now().Add(-48 * time.Hour)
		repo.put(stale)

		fresh := newTestOrder("NEW1", model.PaymentStatusPending, model.OrderStatusPending)
		repo.put(fresh)

		paid := newTestOrder("OLD2", model.PaymentStatusCompleted, model.OrderStatusProcessing)
		paid.CreatedAt = time.Now().Add(-48 * time.Hour)
		repo.put(paid)

		expired, err := svc.ExpireStaleOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, expired)

		order, _ := repo.GetByRef(ctx, "OLD1")
		assert.Equal(t, model.PaymentStatusFailed, order.PaymentStatus)
		assert.Equal(t, model.OrderStatusCancelled, order.Status)
		require.NotNil(t, order.FailureCode)
		assert.Equal(t, FailureCodeExpired, *order.FailureCode)

		assert.Equal(t, []string{EventPaymentFailed}, notifier.events)
		assert.Equal(t, []string{"OLD1"}, notifier.refs)

		// Untouched orders keep their state.
		untouched, _ := repo.GetByRef(ctx, "NEW1")
		assert.Equal(t, model.PaymentStatusPending, untouched.PaymentStatus)
	})

	t.Run("second sweep is a no-op", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &recordingNotifier{}
		svc := newTestService(repo, newFakeCache(), notifier)

		stale := newTestOrder("OLD3", model.PaymentStatusPending, model.OrderStatusPending)
		stale.CreatedAt = time.Now().Add(-48 * time.Hour)
		repo.put(stale)

		expired, err := svc.ExpireStaleOrders(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, expired)

		expired, err = svc.ExpireStaleOrders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, expired)
		assert.Len(t, notifier.events, 1)
	})
}
