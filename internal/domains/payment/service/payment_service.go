package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	ordermodel "technest-backend/internal/domains/order/model"
	orderrepo "technest-backend/internal/domains/order/repository"
	orderservice "technest-backend/internal/domains/order/service"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
	"technest-backend/internal/domains/payment/repository"
	"technest-backend/pkg/cache"
	"technest-backend/pkg/logger"
)

const (
	EventInvoiceRequested = "invoice_requested"

	// Replay guard entries outlive any realistic webhook retry schedule.
	replayGuardTTL = 72 * time.Hour
)

type paymentService struct {
	orderRepo      orderrepo.OrderRepository
	webhookRepo    repository.WebhookLogRepository
	cache          cache.Cache
	notifier       orderservice.Notifier
	adapters       map[string]gateway.Adapter
	gatewayTimeout time.Duration
}

func NewPaymentService(
	orderRepo orderrepo.OrderRepository,
	webhookRepo repository.WebhookLogRepository,
	c cache.Cache,
	notifier orderservice.Notifier,
	adapters map[string]gateway.Adapter,
	gatewayTimeout time.Duration,
) PaymentService {
	return &paymentService{
		orderRepo:      orderRepo,
		webhookRepo:    webhookRepo,
		cache:          c,
		notifier:       notifier,
		adapters:       adapters,
		gatewayTimeout: gatewayTimeout,
	}
}

// =====================================================
// INITIATION
// =====================================================

// Initiate runs the checkout flow for session-based gateways:
// 1. Validate the request and recompute the cart total server-side
// 2. Persist the pending order BEFORE any provider call
// 3. Open the provider session under the gateway timeout
// 4. On session failure, fail the order so no zombie pending row remains
func (s *paymentService) Initiate(
	ctx context.Context,
	method string,
	req model.InitiatePaymentRequest,
) (*model.InitiatePaymentResponse, error) {
	adapter, ok := s.adapters[method]
	if !ok || adapter.Mode() == gateway.ModeManual {
		return nil, model.ErrUnsupportedMethod
	}

	order, err := s.createPendingOrder(ctx, method, req)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := adapter.Initiate(gwCtx, gateway.InitiateRequest{
		OrderRef:      order.OrderRef,
		Amount:        order.Amount,
		Currency:      order.Currency,
		CustomerEmail: order.CustomerEmail,
		ItemSummary:   itemSummary(order.Items),
	})
	if err != nil {
		logger.Error("Gateway initiation failed for "+order.OrderRef, err)

		if _, failErr := s.orderRepo.FailPayment(ctx, order.OrderRef,
			model.FailureCodeGatewayInit, err.Error()); failErr != nil {
			logger.Error("Failed to roll back order "+order.OrderRef, failErr)
		}

		if errors.Is(err, model.ErrGatewayInit) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrGatewayInit, err)
	}

	logger.Info("Payment initiated", map[string]interface{}{
		"order_ref": order.OrderRef,
		"method":    method,
		"amount":    order.Amount.String(),
		"currency":  order.Currency,
	})

	s.notifier.Notify(ctx, orderservice.EventPaymentInitiated, order)

	return &model.InitiatePaymentResponse{
		OrderRef:   order.OrderRef,
		PaymentURL: result.PaymentURL,
	}, nil
}

// RequestInvoice is the Payoneer path. The order is created pending and
// stays that way until an admin reconciles it; the only side effect is
// the queued invoice-request email.
func (s *paymentService) RequestInvoice(
	ctx context.Context,
	req model.InitiatePaymentRequest,
) (*model.InvoiceRequestResponse, error) {
	order, err := s.createPendingOrder(ctx, ordermodel.PaymentMethodPayoneer, req)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, EventInvoiceRequested, order)

	logger.Info("Invoice requested", map[string]interface{}{
		"order_ref": order.OrderRef,
		"amount":    order.Amount.String(),
	})

	return &model.InvoiceRequestResponse{
		OrderRef: order.OrderRef,
		Status:   ordermodel.PaymentStatusPending,
		Message:  "Invoice request received. You will get a Payoneer invoice by email.",
	}, nil
}

func (s *paymentService) createPendingOrder(
	ctx context.Context,
	method string,
	req model.InitiatePaymentRequest,
) (*ordermodel.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !ordermodel.MethodAllowedForLocation(method, req.Location) {
		return nil, model.ErrUnsupportedMethod
	}

	// The client-submitted total is a cross-check, never the source of
	// truth. A mismatch means a stale cart or a tampered request.
	total := req.CartTotal()
	if !total.Equal(req.Total) {
		logger.Security("Checkout total mismatch", map[string]interface{}{
			"method":    method,
			"submitted": req.Total.String(),
			"computed":  total.String(),
			"email":     req.CustomerEmail,
		})
		return nil, model.ErrTotalMismatch
	}

	order := &ordermodel.Order{
		ID:            uuid.New(),
		OrderRef:      ordermodel.NewOrderRef(method),
		CustomerEmail: req.CustomerEmail,
		Items:         req.OrderItems(),
		PaymentMethod: method,
		Amount:        total,
		Currency:      ordermodel.CurrencyForMethod(method),
		PaymentStatus: ordermodel.PaymentStatusPending,
		Status:        ordermodel.OrderStatusPending,
	}
	if req.Message != "" {
		msg := req.Message
		order.CustomerMessage = &msg
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// =====================================================
// CALLBACK PROCESSING
// =====================================================

// HandleCallback is the single funnel for every provider confirmation:
// 1. Record the raw delivery in the audit log, before any judgment
// 2. Authenticate it with the adapter; forged payloads stop here
// 3. Parse the normalized outcome
// 4. Replay-guard on (provider, order, outcome)
// 5. Look up the order; unknown refs are logged anomalies, not errors
// 6. Cross-check amount and currency against the ledger
// 7. Apply the conditional transition; notify only when it applied
func (s *paymentService) HandleCallback(
	ctx context.Context,
	provider string,
	cb gateway.Callback,
	sourceIP string,
) error {
	adapter, ok := s.adapters[provider]
	if !ok || adapter.Mode() == gateway.ModeManual {
		return model.ErrUnsupportedMethod
	}

	audit := model.NewWebhookLog(provider, sourceIP, cb.RawBody)
	if err := s.webhookRepo.Create(ctx, audit); err != nil {
		// Audit is best-effort; the callback still has to be processed.
		logger.Error("Failed to write webhook audit log", err)
	}

	if err := adapter.VerifyCallback(ctx, cb); err != nil {
		logger.Security("Callback verification failed", map[string]interface{}{
			"provider":  provider,
			"source_ip": sourceIP,
			"error":     err.Error(),
		})
		s.resolveAudit(ctx, audit, "", model.WebhookStatusRejected, "verification failed")
		return model.ErrInvalidSignature
	}

	result, err := adapter.ParseCallback(cb)
	if err != nil {
		s.resolveAudit(ctx, audit, "", model.WebhookStatusRejected, "malformed payload")
		return model.ErrMalformedCallback
	}

	if result.Outcome == model.OutcomeUnknown {
		// Verified but not a terminal outcome. Acknowledge so the
		// provider stops retrying.
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusIgnored, "non-terminal outcome")
		return nil
	}

	guardKey := fmt.Sprintf("payment:callback:%s:%s:%s", provider, result.OrderRef, result.Outcome)
	fresh, err := s.cache.SetNX(ctx, guardKey, 1, replayGuardTTL)
	if err != nil {
		// Redis being down degrades to database-level idempotency; the
		// conditional write below still holds the line.
		logger.Error("Replay guard unavailable", err)
		fresh = true
	}
	if !fresh {
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusIgnored, "duplicate delivery")
		return nil
	}

	order, err := s.orderRepo.GetByRef(ctx, result.OrderRef)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			// Never create an order from a callback. Log loudly, ack
			// quietly so the provider does not retry forever.
			logger.Security("Callback for unknown order", map[string]interface{}{
				"provider":  provider,
				"order_ref": result.OrderRef,
				"source_ip": sourceIP,
			})
			s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusRejected, "unknown order ref")
			return nil
		}
		// Transient failure: release the guard so the provider's retry
		// can reach the conditional write instead of being dropped as a
		// duplicate.
		s.releaseGuard(ctx, guardKey)
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusRejected, "order lookup failed")
		return err
	}

	if result.Outcome == model.OutcomeSuccess && s.amountDrifted(order, result) {
		logger.Security("Callback amount mismatch", map[string]interface{}{
			"provider":          provider,
			"order_ref":         result.OrderRef,
			"order_amount":      order.Amount.String(),
			"callback_amount":   result.Amount.String(),
			"order_currency":    order.Currency,
			"callback_currency": result.Currency,
		})
		if _, failErr := s.orderRepo.FailPayment(ctx, order.OrderRef,
			model.FailureCodeAmountTampered, "callback amount does not match order"); failErr != nil {
			logger.Error("Failed to fail mismatched order "+order.OrderRef, failErr)
		}
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusRejected, "amount mismatch")
		s.invalidateStatus(ctx, order.OrderRef)
		return model.ErrAmountMismatch
	}

	applied, err := s.applyOutcome(ctx, order.OrderRef, result)
	if err != nil {
		s.releaseGuard(ctx, guardKey)
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusRejected, "transition failed")
		return err
	}

	if !applied {
		// The order was already terminal: a duplicate that slipped past
		// the replay guard, or a sweep/admin action got there first.
		s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusIgnored, "order already terminal")
		return nil
	}

	s.resolveAudit(ctx, audit, result.OrderRef, model.WebhookStatusProcessed, "")
	s.invalidateStatus(ctx, order.OrderRef)

	logger.Info("Callback processed", map[string]interface{}{
		"provider":  provider,
		"order_ref": result.OrderRef,
		"outcome":   result.Outcome,
	})

	// The notification payload only needs the fields that were fixed at
	// creation time, so the pre-apply snapshot is enough; a second read
	// here would just add a failure mode.
	if result.Outcome == model.OutcomeSuccess {
		s.notifier.Notify(ctx, orderservice.EventPaymentCompleted, order)
	} else {
		s.notifier.Notify(ctx, orderservice.EventPaymentFailed, order)
	}

	return nil
}

func (s *paymentService) applyOutcome(
	ctx context.Context,
	orderRef string,
	result *gateway.CallbackResult,
) (bool, error) {
	if result.Outcome == model.OutcomeSuccess {
		return s.orderRepo.CompletePayment(ctx, orderRef, ordermodel.PaymentConfirmation{
			TransactionID:     result.ProviderRef,
			ValidationID:      result.ValidationID,
			CardType:          result.CardType,
			CardBrand:         result.CardBrand,
			CardIssuer:        result.CardIssuer,
			BankTransactionID: result.BankTransactionID,
		})
	}

	code := model.FailureCodeDeclined
	reason := result.FailureReason
	if reason == "" {
		reason = "payment failed"
	}
	return s.orderRepo.FailPayment(ctx, orderRef, code, reason)
}

// amountDrifted compares the verified callback amount against the
// ledger. Adapters that cannot report an amount leave it zero; drift
// checking then falls back to the signature alone.
func (s *paymentService) amountDrifted(order *ordermodel.Order, result *gateway.CallbackResult) bool {
	if result.Amount.IsZero() {
		return false
	}
	if !result.Amount.Equal(order.Amount) {
		return true
	}
	return result.Currency != "" && result.Currency != order.Currency
}

// releaseGuard frees a claimed replay-guard key after a transient
// failure. Without this the provider's retry would be dropped as a
// duplicate for the guard TTL and a verified outcome could be lost.
func (s *paymentService) releaseGuard(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Error("Failed to release replay guard", err)
	}
}

func (s *paymentService) resolveAudit(
	ctx context.Context,
	audit *model.PaymentWebhookLog,
	orderRef, status, reason string,
) {
	if err := s.webhookRepo.Resolve(ctx, audit.ID.String(), orderRef, status, reason); err != nil {
		logger.Error("Failed to resolve webhook audit log", err)
	}
}

func (s *paymentService) invalidateStatus(ctx context.Context, orderRef string) {
	if err := s.cache.Delete(ctx, "order:status:"+orderRef); err != nil {
		logger.Error("Failed to invalidate status cache", err)
	}
}

func itemSummary(items []ordermodel.OrderItem) string {
	if len(items) == 0 {
		return "Order"
	}
	if len(items) == 1 {
		return items[0].Title
	}
	return fmt.Sprintf("%s (+%d more)", items[0].Title, len(items)-1)
}
