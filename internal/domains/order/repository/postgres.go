package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"technest-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY IMPLEMENTATION
// =====================================================
type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `
	id, order_ref, customer_email, customer_message, items,
	payment_method, amount, currency, payment_status,
	transaction_id, validation_id, card_type, card_brand, card_issuer,
	bank_transaction_id, failure_code, failure_reason, status,
	paid_at, failed_at, refunded_at, created_at, updated_at
`

// Create inserts the order with payment_status=pending. This runs
// BEFORE any provider call so a crashed outbound request still leaves
// an auditable pending record.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, order_ref, customer_email, customer_message, items,
			payment_method, amount, currency, payment_status, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING created_at, updated_at
	`

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		order.ID,
		order.OrderRef,
		order.CustomerEmail,
		order.CustomerMessage,
		itemsJSON,
		order.PaymentMethod,
		order.Amount,
		order.Currency,
		order.PaymentStatus,
		order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrDuplicateOrderRef
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByRef looks up an order by its correlation key. Never upserts:
// an unknown ref from a callback is an anomaly, not a new order.
func (r *orderRepository) GetByRef(ctx context.Context, orderRef string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_ref = $1`

	row := r.pool.QueryRow(ctx, query, orderRef)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// CompletePayment is the success-side compare-and-swap. The WHERE
// clause on payment_status makes duplicate webhook delivery a no-op:
// only the first delivery flips the row.
func (r *orderRepository) CompletePayment(
	ctx context.Context,
	orderRef string,
	conf model.PaymentConfirmation,
) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'completed',
			status = 'processing',
			transaction_id = NULLIF($2, ''),
			validation_id = NULLIF($3, ''),
			card_type = NULLIF($4, ''),
			card_brand = NULLIF($5, ''),
			card_issuer = NULLIF($6, ''),
			bank_transaction_id = NULLIF($7, ''),
			paid_at = NOW(),
			updated_at = NOW()
		WHERE order_ref = $1 AND payment_status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query,
		orderRef,
		conf.TransactionID,
		conf.ValidationID,
		conf.CardType,
		conf.CardBrand,
		conf.CardIssuer,
		conf.BankTransactionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// FailPayment is the failure-side compare-and-swap. Also used by the
// stale sweep and by init-failure rollback.
func (r *orderRepository) FailPayment(ctx context.Context, orderRef, code, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'failed',
			status = 'cancelled',
			failure_code = NULLIF($2, ''),
			failure_reason = NULLIF($3, ''),
			failed_at = NOW(),
			updated_at = NOW()
		WHERE order_ref = $1 AND payment_status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, orderRef, code, reason)
	if err != nil {
		return false, fmt.Errorf("failed to fail payment: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkRefunded records an out-of-band refund. Only completed payments
// can be refunded, enforced by the same conditional-write pattern.
func (r *orderRepository) MarkRefunded(ctx context.Context, orderRef, reason string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'refunded',
			failure_reason = $2,
			refunded_at = NOW(),
			updated_at = NOW()
		WHERE order_ref = $1 AND payment_status = 'completed'
	`

	result, err := r.pool.Exec(ctx, query, orderRef, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark refunded: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkFulfilled closes out a paid order after delivery of the service.
func (r *orderRepository) MarkFulfilled(ctx context.Context, orderRef string) (bool, error) {
	query := `
		UPDATE orders
		SET status = 'completed',
			updated_at = NOW()
		WHERE order_ref = $1 AND status = 'processing'
	`

	result, err := r.pool.Exec(ctx, query, orderRef)
	if err != nil {
		return false, fmt.Errorf("failed to mark fulfilled: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// List returns a filtered page of orders, newest first.
func (r *orderRepository) List(
	ctx context.Context,
	filters map[string]interface{},
	page, limit int,
) ([]model.Order, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	for _, key := range []string{"status", "payment_status", "payment_method"} {
		if v, ok := filters[key]; ok {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", key, argIdx))
			args = append(args, v)
			argIdx++
		}
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, argIdx, argIdx+1,
	)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	return orders, total, rows.Err()
}

// FindStalePending feeds the sweep job: pending orders whose customer
// abandoned the provider page and for which no callback ever arrived.
func (r *orderRepository) FindStalePending(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE payment_status = 'pending' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	order := &model.Order{}
	var itemsJSON []byte

	err := row.Scan(
		&order.ID,
		&order.OrderRef,
		&order.CustomerEmail,
		&order.CustomerMessage,
		&itemsJSON,
		&order.PaymentMethod,
		&order.Amount,
		&order.Currency,
		&order.PaymentStatus,
		&order.TransactionID,
		&order.ValidationID,
		&order.CardType,
		&order.CardBrand,
		&order.CardIssuer,
		&order.BankTransactionID,
		&order.FailureCode,
		&order.FailureReason,
		&order.Status,
		&order.PaidAt,
		&order.FailedAt,
		&order.RefundedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}

	return order, nil
}
