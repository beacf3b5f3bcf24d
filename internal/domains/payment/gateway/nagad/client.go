package nagad

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"technest-backend/internal/config"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

const ProviderName = "nagad"

const (
	statusSuccess = "Success"
	statusFailed  = "Failed"
	statusAborted = "Aborted"
)

type adapter struct {
	cfg config.NagadConfig
	now func() time.Time
}

func New(cfg config.NagadConfig) gateway.Adapter {
	return &adapter{cfg: cfg, now: time.Now}
}

func (a *adapter) Name() string                   { return ProviderName }
func (a *adapter) Mode() gateway.ConfirmationMode { return gateway.ModeRedirect }

// Initiate builds the signed hosted-checkout URL. Nagad's merchant flow
// needs no session call: the parameters plus the merchant signature ARE
// the session, so initiation cannot fail on a provider outage.
func (a *adapter) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	params := map[string]string{
		"merchant_id":  a.cfg.MerchantID,
		"order_ref":    req.OrderRef,
		"amount":       req.Amount.StringFixed(2),
		"currency":     req.Currency,
		"timestamp":    strconv.FormatInt(a.now().Unix(), 10),
		"callback_url": a.cfg.CallbackURL,
	}
	params["signature"] = signParams(params, a.cfg.MerchantKey)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	paymentURL := strings.TrimRight(a.cfg.APIURL, "/") + "/payment?" + values.Encode()

	return &gateway.InitiateResult{
		PaymentURL: paymentURL,
		SessionID:  req.OrderRef,
	}, nil
}

// VerifyCallback recomputes the merchant signature over the callback
// parameters.
func (a *adapter) VerifyCallback(_ context.Context, cb gateway.Callback) error {
	if len(cb.Query) == 0 {
		return model.ErrMalformedCallback
	}

	got := cb.Query["signature"]
	if got == "" {
		return model.ErrInvalidSignature
	}
	if !signatureMatches(cb.Query, a.cfg.MerchantKey, got) {
		return model.ErrInvalidSignature
	}

	return nil
}

func (a *adapter) ParseCallback(cb gateway.Callback) (*gateway.CallbackResult, error) {
	orderRef := cb.Query["order_ref"]
	if orderRef == "" {
		return nil, model.ErrMalformedCallback
	}

	amount, err := decimal.NewFromString(cb.Query["amount"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", model.ErrMalformedCallback, cb.Query["amount"])
	}

	result := &gateway.CallbackResult{
		OrderRef:    orderRef,
		ProviderRef: cb.Query["payment_ref_id"],
		Amount:      amount,
		Currency:    cb.Query["currency"],
	}

	switch cb.Query["status"] {
	case statusSuccess:
		result.Outcome = model.OutcomeSuccess
	case statusFailed:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment failed at gateway"
	case statusAborted:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment aborted by customer"
	default:
		result.Outcome = model.OutcomeUnknown
	}

	return result, nil
}
