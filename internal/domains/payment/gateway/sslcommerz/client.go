package sslcommerz

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

const ProviderName = "sslcommerz"

// statuses SSLCommerz reports on the IPN. VALID and VALIDATED both mean
// the money moved.
const (
	statusValid     = "VALID"
	statusValidated = "VALIDATED"
	statusFailed    = "FAILED"
	statusCancelled = "CANCELLED"
)

type adapter struct {
	cfg        config.SSLCommerzConfig
	httpClient *http.Client
}

func New(cfg config.SSLCommerzConfig, timeout time.Duration) gateway.Adapter {
	return &adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (a *adapter) Name() string                   { return ProviderName }
func (a *adapter) Mode() gateway.ConfirmationMode { return gateway.ModeRedirect }

type sessionResponse struct {
	Status         string `json:"status"`
	GatewayPageURL string `json:"GatewayPageURL"`
	SessionKey     string `json:"sessionkey"`
	FailedReason   string `json:"failedreason"`
}

// Initiate opens a v4 gateway session. SSLCommerz takes a form POST and
// answers with a hosted payment page URL.
func (a *adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	form := url.Values{}
	form.Set("store_id", a.cfg.StoreID)
	form.Set("store_passwd", a.cfg.StorePassword)
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.OrderRef)
	form.Set("success_url", a.cfg.SuccessURL)
	form.Set("fail_url", a.cfg.FailURL)
	form.Set("cancel_url", a.cfg.CancelURL)
	form.Set("ipn_url", a.cfg.IPNURL)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_name", req.CustomerEmail)
	form.Set("cus_add1", "N/A")
	form.Set("cus_city", "N/A")
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", "N/A")
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ItemSummary)
	form.Set("product_category", "digital")
	form.Set("product_profile", "general")

	endpoint := strings.TrimRight(a.cfg.APIURL, "/") + "/gwprocess/v4/api.php"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGatewayInit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: session endpoint returned %d", model.ErrGatewayInit, resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: malformed session response: %v", model.ErrGatewayInit, err)
	}

	if session.Status != "SUCCESS" || session.GatewayPageURL == "" {
		reason := session.FailedReason
		if reason == "" {
			reason = "no gateway page returned"
		}
		return nil, fmt.Errorf("%w: %s", model.ErrGatewayInit, reason)
	}

	return &gateway.InitiateResult{
		PaymentURL: session.GatewayPageURL,
		SessionID:  session.SessionKey,
	}, nil
}

// VerifyCallback checks the verify_sign hash on the IPN form body.
func (a *adapter) VerifyCallback(_ context.Context, cb gateway.Callback) error {
	if cb.Form == nil {
		return model.ErrMalformedCallback
	}
	return verifySign(cb.Form, a.cfg.StorePassword)
}

// ParseCallback maps the IPN fields onto the normalized outcome. Call
// only after VerifyCallback succeeded.
func (a *adapter) ParseCallback(cb gateway.Callback) (*gateway.CallbackResult, error) {
	orderRef := cb.Form["tran_id"]
	if orderRef == "" {
		return nil, model.ErrMalformedCallback
	}

	amount, err := decimal.NewFromString(cb.Form["amount"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q", model.ErrMalformedCallback, cb.Form["amount"])
	}

	result := &gateway.CallbackResult{
		OrderRef:          orderRef,
		ProviderRef:       cb.Form["tran_id"],
		Amount:            amount,
		Currency:          cb.Form["currency"],
		ValidationID:      cb.Form["val_id"],
		CardType:          cb.Form["card_type"],
		CardBrand:         cb.Form["card_brand"],
		CardIssuer:        cb.Form["card_issuer"],
		BankTransactionID: cb.Form["bank_tran_id"],
	}

	switch cb.Form["status"] {
	case statusValid, statusValidated:
		result.Outcome = model.OutcomeSuccess
	case statusFailed:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment failed at gateway"
	case statusCancelled:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment cancelled by customer"
	default:
		result.Outcome = model.OutcomeUnknown
	}

	return result, nil
}
