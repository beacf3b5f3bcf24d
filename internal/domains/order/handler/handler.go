package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"technest-backend/internal/domains/order/model"
	"technest-backend/internal/domains/order/service"
	paymentrepo "technest-backend/internal/domains/payment/repository"
	"technest-backend/internal/shared/response"
	"technest-backend/pkg/logger"
)

type OrderHandler struct {
	orderService service.OrderService
	webhookRepo  paymentrepo.WebhookLogRepository
}

func NewOrderHandler(orderService service.OrderService, webhookRepo paymentrepo.WebhookLogRepository) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		webhookRepo:  webhookRepo,
	}
}

// =====================================================
// PUBLIC
// =====================================================

// GetStatus handles GET /orders/:order_ref. This is what the frontend
// result page polls after a payment redirect.
func (h *OrderHandler) GetStatus(c *gin.Context) {
	orderRef := c.Param("order_ref")

	status, err := h.orderService.GetStatus(c.Request.Context(), orderRef)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			response.NotFound(c, "Order not found")
			return
		}
		logger.Error("Failed to get order status", err)
		response.InternalServerError(c, "Failed to get order status")
		return
	}

	response.Success(c, http.StatusOK, status)
}

// =====================================================
// ADMIN
// =====================================================

// List handles GET /admin/orders
func (h *OrderHandler) List(c *gin.Context) {
	var req model.AdminListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.AdminList(c.Request.Context(), req)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filters", verrs)
			return
		}
		logger.Error("Failed to list orders", err)
		response.InternalServerError(c, "Failed to list orders")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

// Get handles GET /admin/orders/:order_ref. The detail view includes
// the callback audit trail so an admin can see exactly what each
// provider delivered.
func (h *OrderHandler) Get(c *gin.Context) {
	orderRef := c.Param("order_ref")

	order, err := h.orderService.AdminGet(c.Request.Context(), orderRef)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			response.NotFound(c, "Order not found")
			return
		}
		logger.Error("Failed to get order", err)
		response.InternalServerError(c, "Failed to get order")
		return
	}

	webhooks, err := h.webhookRepo.ListByOrderRef(c.Request.Context(), orderRef)
	if err != nil {
		// The audit trail is supplementary; the order itself still loads.
		logger.Error("Failed to load webhook logs for "+orderRef, err)
	}

	response.Success(c, http.StatusOK, gin.H{
		"order":        order,
		"webhook_logs": webhooks,
	})
}

// Reconcile handles POST /admin/orders/:order_ref/reconcile
func (h *OrderHandler) Reconcile(c *gin.Context) {
	orderRef := c.Param("order_ref")

	var req model.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.orderService.Reconcile(c.Request.Context(), orderRef, req); err != nil {
		h.handleTransitionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order_ref": orderRef, "reconciled": true})
}

// Refund handles POST /admin/orders/:order_ref/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	orderRef := c.Param("order_ref")

	var req model.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.orderService.MarkRefunded(c.Request.Context(), orderRef, req); err != nil {
		h.handleTransitionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order_ref": orderRef, "refunded": true})
}

// Fulfill handles POST /admin/orders/:order_ref/fulfill
func (h *OrderHandler) Fulfill(c *gin.Context) {
	orderRef := c.Param("order_ref")

	if err := h.orderService.MarkFulfilled(c.Request.Context(), orderRef); err != nil {
		h.handleTransitionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order_ref": orderRef, "fulfilled": true})
}

func (h *OrderHandler) handleTransitionError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verrs)
	case errors.Is(err, model.ErrOrderNotFound):
		response.NotFound(c, "Order not found")
	case errors.Is(err, model.ErrOrderNotPending):
		response.Conflict(c, "Payment already reached a final state")
	case errors.Is(err, model.ErrOrderNotRefundable):
		response.Conflict(c, "Only completed payments can be refunded")
	case errors.Is(err, model.ErrOrderNotPaid):
		response.Conflict(c, "Order is not awaiting fulfillment")
	default:
		logger.Error("Order transition failed", err)
		response.InternalServerError(c, "Failed to update order")
	}
}
