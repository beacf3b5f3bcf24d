package job

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"technest-backend/internal/domains/order/service"
)

// ============================================
// Expire Stale Orders Handler
// ============================================

type ExpireStaleOrdersHandler struct {
	orderService service.OrderService
}

func NewExpireStaleOrdersHandler(orderService service.OrderService) *ExpireStaleOrdersHandler {
	return &ExpireStaleOrdersHandler{
		orderService: orderService,
	}
}

func (h *ExpireStaleOrdersHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	log.Info().Msg("Running stale order sweep")

	expired, err := h.orderService.ExpireStaleOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Stale order sweep failed")
		return err
	}

	log.Info().
		Int("expired", expired).
		Msg("Stale order sweep completed")

	return nil
}
