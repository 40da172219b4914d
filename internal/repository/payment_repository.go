package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create сохраняет созданный у провайдера заказ
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (user_id, expert_id, purpose, reference_id, provider, order_id, amount, currency,
		                      status, call_type, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		p.UserID,
		p.ExpertID,
		p.Purpose,
		p.ReferenceID,
		p.Provider,
		p.OrderID,
		p.Amount,
		p.Currency,
		p.Status,
		p.CallKind,
		p.DurationMinutes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

// GetByOrderID получает платёж по id заказа провайдера
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	query := `
		SELECT id, user_id, expert_id, purpose, reference_id, provider, order_id, payment_id, amount, currency,
		       status, call_type, duration_minutes, failure_reason, created_at, updated_at
		FROM payments
		WHERE order_id = $1
	`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&p.ID,
		&p.UserID,
		&p.ExpertID,
		&p.Purpose,
		&p.ReferenceID,
		&p.Provider,
		&p.OrderID,
		&p.PaymentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.CallKind,
		&p.DurationMinutes,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by order id: %w", err)
	}

	return &p, nil
}

// MarkFailed created -> failed
func (r *PaymentRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	query := `
		UPDATE payments
		SET status = 'failed', failure_reason = $2, updated_at = NOW()
		WHERE order_id = $1 AND status = 'created'
	`

	affected, err := execAffected(ctx, r.pool, query, orderID, reason)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}

	if affected == 0 {
		return ErrStaleTransition
	}

	return nil
}

// markPaid created -> paid внутри транзакции создания оплаченного ресурса
func markPaid(ctx context.Context, tx pgx.Tx, orderID, paymentID string) error {
	affected, err := execAffected(ctx, tx, `
		UPDATE payments
		SET status = 'paid', payment_id = NULLIF($2, ''), updated_at = NOW()
		WHERE order_id = $1 AND status = 'created'
	`, orderID, paymentID)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if affected == 0 {
		return ErrStaleTransition
	}
	return nil
}
