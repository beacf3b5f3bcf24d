package service

import (
	"context"
	"errors"
	"sync"
	"time"

	ordermodel "technest-backend/internal/domains/order/model"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

// mockAdapter is a scriptable gateway.Adapter.
type mockAdapter struct {
	name string
	mode gateway.ConfirmationMode

	initiateResult *gateway.InitiateResult
	initiateErr    error
	verifyErr      error
	parseResult    *gateway.CallbackResult
	parseErr       error

	initiateCalls int
}

func (m *mockAdapter) Name() string                   { return m.name }
func (m *mockAdapter) Mode() gateway.ConfirmationMode { return m.mode }

func (m *mockAdapter) Initiate(_ context.Context, _ gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	m.initiateCalls++
	if m.initiateErr != nil {
		return nil, m.initiateErr
	}
	if m.initiateResult != nil {
		return m.initiateResult, nil
	}
	return &gateway.InitiateResult{PaymentURL: "https://gateway.example/pay"}, nil
}

func (m *mockAdapter) VerifyCallback(_ context.Context, _ gateway.Callback) error {
	return m.verifyErr
}

func (m *mockAdapter) ParseCallback(_ gateway.Callback) (*gateway.CallbackResult, error) {
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	return m.parseResult, nil
}

// fakeOrderRepo mirrors the Postgres conditional-write behavior.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*ordermodel.Order

	// completePaymentErr fails the next CompletePayment call once, then
	// the repo behaves normally again.
	completePaymentErr error
	// failReadWhenTerminal makes GetByRef error for settled orders,
	// simulating a read failure right after the conditional write.
	failReadWhenTerminal bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*ordermodel.Order)}
}

func (r *fakeOrderRepo) put(o *ordermodel.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.OrderRef] = &cp
}

func (r *fakeOrderRepo) Create(_ context.Context, order *ordermodel.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.OrderRef]; exists {
		return ordermodel.ErrDuplicateOrderRef
	}
	order.CreatedAt = time.Now()
	cp := *order
	r.orders[order.OrderRef] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByRef(_ context.Context, orderRef string) (*ordermodel.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok {
		return nil, ordermodel.ErrOrderNotFound
	}
	if r.failReadWhenTerminal && o.PaymentStatus != ordermodel.PaymentStatusPending {
		return nil, errors.New("connection reset by peer")
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) CompletePayment(_ context.Context, orderRef string, conf ordermodel.PaymentConfirmation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completePaymentErr != nil {
		err := r.completePaymentErr
		r.completePaymentErr = nil
		return false, err
	}
	o, ok := r.orders[orderRef]
	if !ok || o.PaymentStatus != ordermodel.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = ordermodel.PaymentStatusCompleted
	o.Status = ordermodel.OrderStatusProcessing
	if conf.TransactionID != "" {
		tx := conf.TransactionID
		o.TransactionID = &tx
	}
	if conf.ValidationID != "" {
		v := conf.ValidationID
		o.ValidationID = &v
	}
	now := time.Now()
	o.PaidAt = &now
	return true, nil
}

func (r *fakeOrderRepo) FailPayment(_ context.Context, orderRef, code, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderRef]
	if !ok || o.PaymentStatus != ordermodel.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = ordermodel.PaymentStatusFailed
	o.Status = ordermodel.OrderStatusCancelled
	o.FailureCode = &code
	o.FailureReason = &reason
	now := time.Now()
	o.FailedAt = &now
	return true, nil
}

func (r *fakeOrderRepo) MarkRefunded(_ context.Context, orderRef, reason string) (bool, error) {
	return false, nil
}

func (r *fakeOrderRepo) MarkFulfilled(_ context.Context, orderRef string) (bool, error) {
	return false, nil
}

func (r *fakeOrderRepo) List(_ context.Context, _ map[string]interface{}, _, _ int) ([]ordermodel.Order, int, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) FindStalePending(_ context.Context, _ time.Time, _ int) ([]ordermodel.Order, error) {
	return nil, nil
}

// fakeWebhookRepo records audit writes.
type fakeWebhookRepo struct {
	mu       sync.Mutex
	created  []*model.PaymentWebhookLog
	resolved map[string]string // log id -> final status
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{resolved: make(map[string]string)}
}

func (r *fakeWebhookRepo) Create(_ context.Context, log *model.PaymentWebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, log)
	return nil
}

func (r *fakeWebhookRepo) Resolve(_ context.Context, id string, _, status, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved[id] = status
	return nil
}

func (r *fakeWebhookRepo) ListByOrderRef(_ context.Context, _ string) ([]model.PaymentWebhookLog, error) {
	return nil, nil
}

func (r *fakeWebhookRepo) lastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.created) == 0 {
		return ""
	}
	return r.resolved[r.created[len(r.created)-1].ID.String()]
}

// fakeCache backs the replay guard.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]interface{}
	nxErr   error
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (c *fakeCache) Get(_ context.Context, _ string, _ interface{}) (bool, error) {
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
	if c.nxErr != nil {
		return false, c.nxErr
	}
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
		c.deleted = append(c.deleted, k)
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

func (n *recordingNotifier) Notify(_ context.Context, event string, order *ordermodel.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.refs = append(n.refs, order.OrderRef)
}
