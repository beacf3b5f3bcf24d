package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"technest-backend/internal/config"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

const ProviderName = "bkash"

// bKash has no callback signature. The redirect only says "the customer
// came back"; the adapter authenticates the outcome by re-querying the
// payment server-to-server and matching the invoice number, so a forged
// redirect cannot flip an order.

type adapter struct {
	cfg        config.BkashConfig
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	verified    map[string]*paymentState // paymentID -> confirmed state
}

type paymentState struct {
	TrxID             string
	TransactionStatus string
	InvoiceNumber     string
	Amount            decimal.Decimal
	Currency          string
}

func New(cfg config.BkashConfig, timeout time.Duration) gateway.Adapter {
	return &adapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		verified:   make(map[string]*paymentState),
	}
}

func (a *adapter) Name() string                   { return ProviderName }
func (a *adapter) Mode() gateway.ConfirmationMode { return gateway.ModeRedirect }

// =====================================================
// TOKEN GRANT
// =====================================================

type tokenResponse struct {
	IDToken   string `json:"id_token"`
	ExpiresIn int    `json:"expires_in"`
	Msg       string `json:"msg"`
}

// grantToken fetches (or reuses) the tokenized-checkout id_token. The
// token lives about an hour; a one minute margin avoids using one that
// expires mid-request.
func (a *adapter) grantToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	body, _ := json.Marshal(map[string]string{
		"app_key":    a.cfg.AppKey,
		"app_secret": a.cfg.AppSecret,
	})

	endpoint := strings.TrimRight(a.cfg.APIURL, "/") + "/tokenized/checkout/token/grant"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", a.cfg.Username)
	req.Header.Set("password", a.cfg.Password)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token grant failed: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("malformed token response: %w", err)
	}
	if tr.IDToken == "" {
		return "", fmt.Errorf("token grant rejected: %s", tr.Msg)
	}

	a.mu.Lock()
	a.token = tr.IDToken
	a.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	a.mu.Unlock()

	return tr.IDToken, nil
}

func (a *adapter) apiCall(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := a.grantToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := strings.TrimRight(a.cfg.APIURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-APP-Key", a.cfg.AppKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}

	return nil
}

// =====================================================
// CREATE PAYMENT
// =====================================================

type createResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

func (a *adapter) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	// The order ref rides on the callback URL because the bKash redirect
	// itself only carries paymentID and status.
	callbackURL := a.cfg.CallbackURL
	if strings.Contains(callbackURL, "?") {
		callbackURL += "&order_ref=" + url.QueryEscape(req.OrderRef)
	} else {
		callbackURL += "?order_ref=" + url.QueryEscape(req.OrderRef)
	}

	payload := map[string]string{
		"mode":                  "0011",
		"payerReference":        req.CustomerEmail,
		"callbackURL":           callbackURL,
		"amount":                req.Amount.StringFixed(2),
		"currency":              req.Currency,
		"intent":                "sale",
		"merchantInvoiceNumber": req.OrderRef,
	}

	var created createResponse
	if err := a.apiCall(ctx, "/tokenized/checkout/create", payload, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGatewayInit, err)
	}
	if created.BkashURL == "" {
		msg := created.StatusMessage
		if msg == "" {
			msg = "no payment URL returned"
		}
		return nil, fmt.Errorf("%w: %s", model.ErrGatewayInit, msg)
	}

	return &gateway.InitiateResult{
		PaymentURL: created.BkashURL,
		SessionID:  created.PaymentID,
	}, nil
}

// =====================================================
// CALLBACK VERIFICATION (server-to-server)
// =====================================================

type executeResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

// VerifyCallback re-queries bKash for the payment named in the redirect
// and checks the invoice number against the order ref the redirect
// claims. The confirmed state is kept for ParseCallback.
func (a *adapter) VerifyCallback(ctx context.Context, cb gateway.Callback) error {
	paymentID := cb.Query["paymentID"]
	orderRef := cb.Query["order_ref"]
	status := cb.Query["status"]
	if paymentID == "" || orderRef == "" {
		return model.ErrMalformedCallback
	}

	var state executeResponse
	if status == "success" {
		// Execute completes the authorized payment. A duplicate redirect
		// gets "already completed" from bKash; fall back to the status
		// query so the duplicate still verifies cleanly.
		if err := a.apiCall(ctx, "/tokenized/checkout/execute",
			map[string]string{"paymentID": paymentID}, &state); err != nil {
			return err
		}
		if state.TrxID == "" {
			if err := a.apiCall(ctx, "/tokenized/checkout/payment/status",
				map[string]string{"paymentID": paymentID}, &state); err != nil {
				return err
			}
		}
	} else {
		if err := a.apiCall(ctx, "/tokenized/checkout/payment/status",
			map[string]string{"paymentID": paymentID}, &state); err != nil {
			return err
		}
	}

	if state.MerchantInvoiceNumber == "" || state.MerchantInvoiceNumber != orderRef {
		return model.ErrInvalidSignature
	}

	amount := decimal.Zero
	if state.Amount != "" {
		parsed, err := decimal.NewFromString(state.Amount)
		if err != nil {
			return fmt.Errorf("%w: bad amount %q", model.ErrMalformedCallback, state.Amount)
		}
		amount = parsed
	}

	a.mu.Lock()
	a.verified[paymentID] = &paymentState{
		TrxID:             state.TrxID,
		TransactionStatus: state.TransactionStatus,
		InvoiceNumber:     state.MerchantInvoiceNumber,
		Amount:            amount,
		Currency:          state.Currency,
	}
	a.mu.Unlock()

	return nil
}

func (a *adapter) ParseCallback(cb gateway.Callback) (*gateway.CallbackResult, error) {
	paymentID := cb.Query["paymentID"]

	a.mu.Lock()
	state, ok := a.verified[paymentID]
	delete(a.verified, paymentID)
	a.mu.Unlock()

	if !ok {
		// ParseCallback without a prior successful VerifyCallback.
		return nil, model.ErrInvalidSignature
	}

	result := &gateway.CallbackResult{
		OrderRef:    state.InvoiceNumber,
		ProviderRef: state.TrxID,
		Amount:      state.Amount,
		Currency:    state.Currency,
	}

	switch state.TransactionStatus {
	case "Completed":
		result.Outcome = model.OutcomeSuccess
	case "Initiated":
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment abandoned by customer"
	default:
		result.Outcome = model.OutcomeFailed
		result.FailureReason = "payment not completed: " + state.TransactionStatus
	}

	return result, nil
}
