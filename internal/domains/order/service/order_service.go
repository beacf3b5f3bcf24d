package service

import (
	"context"
	"fmt"
	"time"

	"technest-backend/internal/domains/order/model"
	"technest-backend/internal/domains/order/repository"
	"technest-backend/pkg/cache"
	"technest-backend/pkg/logger"
)

const (
	// payment_failed is reused for sweep expiry so the customer gets the
	// same "payment did not go through" email either way.
	EventPaymentInitiated = "payment_initiated"
	EventPaymentCompleted = "payment_completed"
	EventPaymentFailed    = "payment_failed"

	FailureCodeExpired    = "PAYMENT_EXPIRED"
	FailureCodeReconciled = "ADMIN_RECONCILED"

	statusCacheTTL = 10 * time.Second
)

type orderService struct {
	orderRepo repository.OrderRepository
	cache     cache.Cache
	notifier  Notifier

	staleThreshold time.Duration
	staleBatchSize int
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	c cache.Cache,
	notifier Notifier,
	staleThreshold time.Duration,
	staleBatchSize int,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		cache:          c,
		notifier:       notifier,
		staleThreshold: staleThreshold,
		staleBatchSize: staleBatchSize,
	}
}

// =====================================================
// PUBLIC STATUS POLLING
// =====================================================

// GetStatus returns the normalized order state. The short cache TTL
// absorbs the polling burst right after a payment redirect without
// delaying the visible outcome for long.
func (s *orderService) GetStatus(ctx context.Context, orderRef string) (*model.OrderStatusResponse, error) {
	cacheKey := "order:status:" + orderRef

	var cached model.OrderStatusResponse
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	order, err := s.orderRepo.GetByRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	resp := model.NewOrderStatusResponse(order)

	if err := s.cache.Set(ctx, cacheKey, resp, statusCacheTTL); err != nil {
		// Cache failures never fail the read path.
		logger.Error("Failed to cache order status", err)
	}

	return resp, nil
}

// =====================================================
// ADMIN
// =====================================================

func (s *orderService) AdminList(
	ctx context.Context,
	req model.AdminListOrdersRequest,
) ([]model.Order, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}

	filters := make(map[string]interface{})
	if req.Status != nil {
		filters["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		filters["payment_status"] = *req.PaymentStatus
	}
	if req.Method != nil {
		filters["payment_method"] = *req.Method
	}

	return s.orderRepo.List(ctx, filters, req.Page, req.Limit)
}

func (s *orderService) AdminGet(ctx context.Context, orderRef string) (*model.Order, error) {
	return s.orderRepo.GetByRef(ctx, orderRef)
}

// Reconcile applies an admin-verified outcome through the same
// conditional transitions the webhook path uses, so a late-arriving
// provider callback after reconciliation is still a no-op.
func (s *orderService) Reconcile(ctx context.Context, orderRef string, req model.ReconcileRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	order, err := s.orderRepo.GetByRef(ctx, orderRef)
	if err != nil {
		return err
	}
	if order.IsTerminal() {
		return model.ErrOrderNotPending
	}

	var applied bool
	switch req.Outcome {
	case model.PaymentStatusCompleted:
		applied, err = s.orderRepo.CompletePayment(ctx, orderRef, model.PaymentConfirmation{
			TransactionID: req.TransactionID,
		})
	case model.PaymentStatusFailed:
		applied, err = s.orderRepo.FailPayment(ctx, orderRef, FailureCodeReconciled, req.Notes)
	}
	if err != nil {
		return fmt.Errorf("failed to reconcile order: %w", err)
	}
	if !applied {
		return model.ErrOrderNotPending
	}

	logger.Info("Order reconciled by admin", map[string]interface{}{
		"order_ref": orderRef,
		"outcome":   req.Outcome,
		"notes":     req.Notes,
	})

	order, err = s.orderRepo.GetByRef(ctx, orderRef)
	if err == nil {
		if req.Outcome == model.PaymentStatusCompleted {
			s.notifier.Notify(ctx, EventPaymentCompleted, order)
		} else {
			s.notifier.Notify(ctx, EventPaymentFailed, order)
		}
	}

	s.invalidateStatus(ctx, orderRef)
	return nil
}

func (s *orderService) MarkRefunded(ctx context.Context, orderRef string, req model.RefundRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	applied, err := s.orderRepo.MarkRefunded(ctx, orderRef, req.Reason)
	if err != nil {
		return err
	}
	if !applied {
		// Either the order does not exist or the payment never completed.
		if _, err := s.orderRepo.GetByRef(ctx, orderRef); err != nil {
			return err
		}
		return model.ErrOrderNotRefundable
	}

	logger.Info("Order marked refunded", map[string]interface{}{
		"order_ref": orderRef,
		"reason":    req.Reason,
	})

	s.invalidateStatus(ctx, orderRef)
	return nil
}

func (s *orderService) MarkFulfilled(ctx context.Context, orderRef string) error {
	applied, err := s.orderRepo.MarkFulfilled(ctx, orderRef)
	if err != nil {
		return err
	}
	if !applied {
		if _, err := s.orderRepo.GetByRef(ctx, orderRef); err != nil {
			return err
		}
		return model.ErrOrderNotPaid
	}

	s.invalidateStatus(ctx, orderRef)
	return nil
}

// =====================================================
// STALE ORDER SWEEP
// =====================================================

// ExpireStaleOrders fails pending orders whose customer abandoned the
// provider page and for which no callback ever arrived. Runs on a
// schedule from the worker binary.
func (s *orderService) ExpireStaleOrders(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleThreshold)

	stale, err := s.orderRepo.FindStalePending(ctx, cutoff, s.staleBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale orders: %w", err)
	}

	expired := 0
	for i := range stale {
		order := &stale[i]
		reason := fmt.Sprintf("no payment confirmation within %s", s.staleThreshold)

		applied, err := s.orderRepo.FailPayment(ctx, order.OrderRef, FailureCodeExpired, reason)
		if err != nil {
			logger.Error("Failed to expire stale order "+order.OrderRef, err)
			continue
		}
		if !applied {
			// A callback won the race between the query and the update.
			continue
		}

		expired++
		s.notifier.Notify(ctx, EventPaymentFailed, order)
		s.invalidateStatus(ctx, order.OrderRef)
	}

	if expired > 0 {
		logger.Info("Stale order sweep finished", map[string]interface{}{
			"expired": expired,
			"scanned": len(stale),
		})
	}

	return expired, nil
}

func (s *orderService) invalidateStatus(ctx context.Context, orderRef string) {
	if err := s.cache.Delete(ctx, "order:status:"+orderRef); err != nil {
		logger.Error("Failed to invalidate status cache", err)
	}
}
