package service

import (
	"context"
	"sync"
	"time"

	"technest-backend/internal/domains/order/model"
)

// fakeOrderRepo is an in-memory OrderRepository with the same
// conditional-write semantics as the Postgres implementation.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order

	failPaymentErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.Order)}
}

func (r *fakeOrderRepo) put(o *model.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderRef] = &cp
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.OrderRef]; exists {
		return model.ErrDuplicateOrderRef
	}
	cp := *order
	r.orders[order.OrderRef] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByRef(_ context.Context, orderRef string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) CompletePayment(_ context.Context, orderRef string, conf model.PaymentConfirmation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok || o.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusCompleted
	o.Status = model.OrderStatusProcessing
	if conf.TransactionID != "" {
		tx := conf.TransactionID
		o.TransactionID = &tx
	}
	now := time.Now()
	o.PaidAt = &now
	return true, nil
}

func (r *fakeOrderRepo) FailPayment(_ context.Context, orderRef, code, reason string) (bool, error) {
	if r.failPaymentErr != nil {
		return false, r.failPaymentErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok || o.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusFailed
	o.Status = model.OrderStatusCancelled
	o.FailureCode = &code
	o.FailureReason = &reason
	now := time.Now()
	o.FailedAt = &now
	return true, nil
}

func (r *fakeOrderRepo) MarkRefunded(_ context.Context, orderRef, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok || o.PaymentStatus != model.PaymentStatusCompleted {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusRefunded
	o.FailureReason = &reason
	now := time.Now()
	o.RefundedAt = &now
	return true, nil
}

func (r *fakeOrderRepo) MarkFulfilled(_ context.Context, orderRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok || o.Status != model.OrderStatusProcessing {
		return false, nil
	}
	o.Status = model.OrderStatusCompleted
	return true, nil
}

func (r *fakeOrderRepo) List(_ context.Context, filters map[string]interface{}, page, limit int) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if v, ok := filters["payment_status"]; ok && o.PaymentStatus != v.(string) {
			continue
		}
		if v, ok := filters["status"]; ok && o.Status != v.(string) {
			continue
		}
		if v, ok := filters["payment_method"]; ok && o.PaymentMethod != v.(string) {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) FindStalePending(_ context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.orders {
		if o.PaymentStatus == model.PaymentStatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeCache is a minimal in-memory cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	if resp, ok := v.(*model.OrderStatusResponse); ok {
		if target, ok := dest.(*model.OrderStatusResponse); ok {
			*target = *resp
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; exists {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) Ping(_ context.Context) error { return nil }

// recordingNotifier captures emitted events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	refs   []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.refs = append(n.refs, order.OrderRef)
}
