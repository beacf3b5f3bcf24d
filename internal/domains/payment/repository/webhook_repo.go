package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"technest-backend/internal/domains/payment/model"
)

type webhookLogRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookLogRepository(pool *pgxpool.Pool) WebhookLogRepository {
	return &webhookLogRepository{pool: pool}
}

func (r *webhookLogRepository) Create(ctx context.Context, log *model.PaymentWebhookLog) error {
	query := `
		INSERT INTO payment_webhook_logs (
			id, provider, order_ref, status, raw_body, source_ip
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		log.ID,
		log.Provider,
		log.OrderRef,
		log.Status,
		log.RawBody,
		log.SourceIP,
	).Scan(&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}

	return nil
}

func (r *webhookLogRepository) Resolve(ctx context.Context, id string, orderRef, status, reason string) error {
	query := `
		UPDATE payment_webhook_logs
		SET order_ref = NULLIF($2, ''),
			status = $3,
			reason = NULLIF($4, ''),
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, orderRef, status, reason); err != nil {
		return fmt.Errorf("failed to resolve webhook log: %w", err)
	}

	return nil
}

func (r *webhookLogRepository) ListByOrderRef(ctx context.Context, orderRef string) ([]model.PaymentWebhookLog, error) {
	query := `
		SELECT id, provider, order_ref, status, reason, raw_body, source_ip, created_at, updated_at
		FROM payment_webhook_logs
		WHERE order_ref = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderRef)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	defer rows.Close()

	logs := []model.PaymentWebhookLog{}
	for rows.Next() {
		var l model.PaymentWebhookLog
		err := rows.Scan(
			&l.ID, &l.Provider, &l.OrderRef, &l.Status, &l.Reason,
			&l.RawBody, &l.SourceIP, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}
