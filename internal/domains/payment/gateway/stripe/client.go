package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"technest-backend/internal/config"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

const ProviderName = "stripe"

// Webhook event types that carry a terminal outcome for a checkout
// session. Everything else is acknowledged and ignored.
const (
	eventSessionCompleted     = "checkout.session.completed"
	eventSessionExpired       = "checkout.session.expired"
	eventAsyncPaymentFailed   = "checkout.session.async_payment_failed"
	eventAsyncPaymentSucceeds = "checkout.session.async_payment_succeeded"
)

type adapter struct {
	cfg        config.StripeConfig
	httpClient *http.Client
	now        func() time.Time
}

func New(cfg config.StripeConfig, timeout time.Duration) gateway.Adapter {
	return &adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (a *adapter) Name() string                   { return ProviderName }
func (a *adapter) Mode() gateway.ConfirmationMode { return gateway.ModeWebhook }

type checkoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	PaymentStatus string `json:"payment_status"`
	Metadata      struct {
		OrderRef string `json:"order_ref"`
	} `json:"metadata"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Initiate creates a Checkout Session. Stripe's API is form-encoded on
// the way in and JSON on the way out; the order ref rides along in
// session metadata so the webhook can correlate it back.
func (a *adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	// Stripe wants minor units.
	unitAmount := req.Amount.Mul(decimal.NewFromInt(100)).IntPart()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", a.cfg.SuccessURL)
	form.Set("cancel_url", a.cfg.CancelURL)
	form.Set("customer_email", req.CustomerEmail)
	form.Set("metadata[order_ref]", req.OrderRef)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", unitAmount))
	form.Set("line_items[0][price_data][product_data][name]", req.ItemSummary)

	endpoint := strings.TrimRight(a.cfg.APIURL, "/") + "/v1/checkout/sessions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGatewayInit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("session endpoint returned %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", model.ErrGatewayInit, msg)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: malformed session response: %v", model.ErrGatewayInit, err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: session has no redirect URL", model.ErrGatewayInit)
	}

	return &gateway.InitiateResult{
		PaymentURL: session.URL,
		SessionID:  session.ID,
	}, nil
}

// VerifyCallback validates the Stripe-Signature header against the raw
// webhook body.
func (a *adapter) VerifyCallback(_ context.Context, cb gateway.Callback) error {
	return verifySignature(cb.RawBody, cb.Signature, a.cfg.WebhookSecret, a.now())
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object checkoutSession `json:"object"`
	} `json:"data"`
}

// ParseCallback extracts the session outcome from a verified webhook
// event.
func (a *adapter) ParseCallback(cb gateway.Callback) (*gateway.CallbackResult, error) {
	var event webhookEvent
	if err := json.Unmarshal(cb.RawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedCallback, err)
	}

	session := event.Data.Object
	if session.Metadata.OrderRef == "" {
		return nil, model.ErrMalformedCallback
	}

	amount := decimal.NewFromInt(session.AmountTotal).Div(decimal.NewFromInt(100))

	result := &gateway.CallbackResult{
		OrderRef:    session.Metadata.OrderRef,
		ProviderRef: session.PaymentIntent,
		Amount:      amount,
		Currency:    strings.ToUpper(session.Currency),
	}
	if result.ProviderRef == "" {
		result.ProviderRef = session.ID
	}

	switch event.Type {
	case eventSessionCompleted, eventAsyncPaymentSucceeds:
		// A completed session can still carry an unpaid status when the
		// payment settles asynchronously.
		if session.PaymentStatus == "unpaid" {
			result.Outcome = model.OutcomeUnknown
		} else {
			result.Outcome = model.OutcomeSuccess
		}
	case eventSessionExpired:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "checkout session expired"
	case eventAsyncPaymentFailed:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "asynchronous payment failed"
	default:
		result.Outcome = model.OutcomeUnknown
	}

	return result, nil
}
