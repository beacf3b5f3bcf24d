package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	ordermodel "technest-backend/internal/domains/order/model"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
	"technest-backend/internal/domains/payment/service"
	"technest-backend/internal/shared/response"
	"technest-backend/internal/shared/utils"
)

// Webhook bodies above this size are rejected before parsing.
const maxCallbackBody = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
	frontendURL    string
}

func NewPaymentHandler(paymentService service.PaymentService, frontendURL string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		frontendURL:    frontendURL,
	}
}

// =====================================================
// INITIATION ENDPOINTS
// =====================================================

// InitiateSSLCommerz handles POST /payments/sslcommerz/init
func (h *PaymentHandler) InitiateSSLCommerz(c *gin.Context) {
	h.initiate(c, ordermodel.PaymentMethodSSLCommerz)
}

// InitiateStripe handles POST /payments/stripe/init
func (h *PaymentHandler) InitiateStripe(c *gin.Context) {
	h.initiate(c, ordermodel.PaymentMethodStripe)
}

// InitiateBkash handles POST /payments/bkash/init
func (h *PaymentHandler) InitiateBkash(c *gin.Context) {
	h.initiate(c, ordermodel.PaymentMethodBkash)
}

// InitiateNagad handles POST /payments/nagad/init
func (h *PaymentHandler) InitiateNagad(c *gin.Context) {
	h.initiate(c, ordermodel.PaymentMethodNagad)
}

func (h *PaymentHandler) initiate(c *gin.Context, method string) {
	var req model.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.paymentService.Initiate(c.Request.Context(), method, req)
	if err != nil {
		h.handleInitiateError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// RequestPayoneerInvoice handles POST /payments/payoneer/request
func (h *PaymentHandler) RequestPayoneerInvoice(c *gin.Context) {
	var req model.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.paymentService.RequestInvoice(c.Request.Context(), req)
	if err != nil {
		h.handleInitiateError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, resp)
}

func (h *PaymentHandler) handleInitiateError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, model.ErrCodeValidation, "Validation failed", verrs)
	case errors.Is(err, model.ErrUnsupportedMethod):
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeUnsupported, "Payment method not supported")
	case errors.Is(err, model.ErrTotalMismatch):
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeTotalMismatch, "Submitted total does not match cart total")
	case errors.Is(err, model.ErrGatewayInit):
		response.ErrorResponse(c, http.StatusBadGateway, model.ErrCodeGatewayInit, "Payment gateway is unavailable, please try again")
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, model.ErrCodeInternal, "Failed to initiate payment")
	}
}

// =====================================================
// CALLBACK ENDPOINTS
// =====================================================

// SSLCommerzIPN handles POST /payments/sslcommerz/ipn. SSLCommerz posts
// a form body; the raw bytes are kept for the audit trail.
func (h *PaymentHandler) SSLCommerzIPN(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Unreadable body")
		return
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Malformed form body")
		return
	}

	cb := gateway.Callback{RawBody: raw, Form: flatten(values)}
	h.processCallback(c, "sslcommerz", cb)
}

// StripeWebhook handles POST /payments/stripe/webhook. Verification
// needs the exact raw bytes, so the body is never bound through gin.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Unreadable body")
		return
	}

	cb := gateway.Callback{
		RawBody:   raw,
		Signature: c.GetHeader("Stripe-Signature"),
	}
	h.processCallback(c, "stripe", cb)
}

// BkashCallback handles GET /payments/bkash/callback, the customer's
// browser coming back from the bKash page. The outcome is settled
// server-to-server before the browser is redirected onward.
func (h *PaymentHandler) BkashCallback(c *gin.Context) {
	cb := gateway.Callback{Query: queryMap(c)}
	err := h.paymentService.HandleCallback(c.Request.Context(), "bkash", cb, utils.ExtractClientIP(c))
	h.redirectAfterCallback(c, cb.Query["status"] == "success" && err == nil)
}

// NagadCallback handles GET /payments/nagad/callback.
func (h *PaymentHandler) NagadCallback(c *gin.Context) {
	cb := gateway.Callback{Query: queryMap(c)}
	err := h.paymentService.HandleCallback(c.Request.Context(), "nagad", cb, utils.ExtractClientIP(c))
	h.redirectAfterCallback(c, cb.Query["status"] == "Success" && err == nil)
}

func (h *PaymentHandler) processCallback(c *gin.Context, provider string, cb gateway.Callback) {
	err := h.paymentService.HandleCallback(c.Request.Context(), provider, cb, utils.ExtractClientIP(c))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidSignature):
			response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidSignature, "Signature verification failed")
		case errors.Is(err, model.ErrMalformedCallback):
			response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Malformed callback payload")
		case errors.Is(err, model.ErrAmountMismatch):
			response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeAmountMismatch, "Amount mismatch")
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, model.ErrCodeInternal, "Failed to process callback")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}

// redirectAfterCallback sends the customer's browser to the frontend
// result page. The page polls the order status endpoint for the real
// outcome, so a lying query parameter only changes which page loads.
func (h *PaymentHandler) redirectAfterCallback(c *gin.Context, success bool) {
	target := h.frontendURL + "/payment/failed"
	if success {
		target = h.frontendURL + "/payment/success"
	}
	c.Redirect(http.StatusFound, target)
}

func flatten(values url.Values) map[string]string {
	m := make(map[string]string, len(values))
	for k := range values {
		m[k] = values.Get(k)
	}
	return m
}

func queryMap(c *gin.Context) map[string]string {
	return flatten(c.Request.URL.Query())
}
