package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	ordermodel "technest-backend/internal/domains/order/model"
	paymentservice "technest-backend/internal/domains/payment/service"
	"technest-backend/internal/shared"
	"technest-backend/pkg/logger"
)

// AsynqNotifier bridges the service layer to the worker binary: every
// notification becomes a queued task, so a dead SMTP server can never
// block or fail payment processing.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(redisAddr, redisPassword string, redisDB int) *AsynqNotifier {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	return &AsynqNotifier{client: client}
}

// Notify implements the service-layer Notifier contract. Enqueue
// failures are logged and swallowed: notifications are best-effort by
// design of the ledger, which never depends on them.
func (n *AsynqNotifier) Notify(ctx context.Context, event string, order *ordermodel.Order) {
	var (
		taskType string
		payload  interface{}
	)

	switch event {
	case paymentservice.EventInvoiceRequested:
		taskType = shared.TypeSendInvoiceRequest
		message := ""
		if order.CustomerMessage != nil {
			message = *order.CustomerMessage
		}
		payload = shared.InvoiceRequestPayload{
			OrderRef:      order.OrderRef,
			CustomerEmail: order.CustomerEmail,
			Message:       message,
			Amount:        order.Amount.StringFixed(2),
			Currency:      order.Currency,
		}
	default:
		taskType = shared.TypeSendPaymentEmail
		payload = shared.PaymentEmailPayload{
			Event:         event,
			OrderRef:      order.OrderRef,
			CustomerEmail: order.CustomerEmail,
			Method:        order.PaymentMethod,
			Amount:        order.Amount.StringFixed(2),
			Currency:      order.Currency,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal notification payload", err)
		return
	}

	task := asynq.NewTask(taskType, data)
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueEmails),
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to enqueue notification for "+order.OrderRef, err)
		return
	}

	logger.Info("Notification enqueued", map[string]interface{}{
		"order_ref": order.OrderRef,
		"event":     event,
		"task_type": taskType,
	})
}

func (n *AsynqNotifier) Close() error {
	return n.client.Close()
}
