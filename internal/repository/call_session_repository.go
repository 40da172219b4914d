package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

type CallSessionRepository struct {
	pool *pgxpool.Pool
}

func NewCallSessionRepository(pool *pgxpool.Pool) *CallSessionRepository {
	return &CallSessionRepository{pool: pool}
}

const callColumns = `id, user_id, expert_id, call_type, status, selected_duration, cost, currency, payment_id,
	start_time, end_time, actual_duration, is_test, created_at, updated_at`

func scanCall(row pgx.Row) (*model.CallSession, error) {
	var c model.CallSession
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ExpertID,
		&c.Kind,
		&c.Status,
		&c.DurationMinutes,
		&c.Cost,
		&c.Currency,
		&c.PaymentID,
		&c.StartTime,
		&c.EndTime,
		&c.ActualDurationSeconds,
		&c.IsTest,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCalls(rows pgx.Rows) ([]*model.CallSession, error) {
	defer rows.Close()

	var out []*model.CallSession
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call session: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate call sessions: %w", err)
	}
	return out, nil
}

func insertCall(ctx context.Context, q querier, c *model.CallSession) error {
	query := `
		INSERT INTO call_sessions (id, user_id, expert_id, call_type, status, selected_duration, cost, currency,
		                           payment_id, is_test)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := q.QueryRow(
		ctx, query,
		c.ID,
		c.UserID,
		c.ExpertID,
		c.Kind,
		c.Status,
		c.DurationMinutes,
		c.Cost,
		c.Currency,
		c.PaymentID,
		c.IsTest,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create call session: %w", err)
	}
	return nil
}

// Create создаёт сессию без платежа (тестовые звонки)
func (r *CallSessionRepository) Create(ctx context.Context, c *model.CallSession) error {
	return insertCall(ctx, r.pool, c)
}

// CreatePaid атомарно отмечает платёж оплаченным и создаёт pending-сессию.
// Повторное подтверждение того же заказа вернёт ErrStaleTransition.
func (r *CallSessionRepository) CreatePaid(ctx context.Context, c *model.CallSession, orderID string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := markPaid(ctx, tx, orderID, derefString(c.PaymentID)); err != nil {
			return err
		}
		return insertCall(ctx, tx, c)
	})
}

// GetByID получает сессию по ID
func (r *CallSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CallSession, error) {
	query := `SELECT ` + callColumns + ` FROM call_sessions WHERE id = $1`

	c, err := scanCall(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get call session by id: %w", err)
	}
	return c, nil
}

// Activate pending -> active; время начала ставится, только если его ещё нет
func (r *CallSessionRepository) Activate(ctx context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error) {
	query := `
		UPDATE call_sessions
		SET status = 'active', start_time = COALESCE(start_time, $2), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + callColumns

	return r.transition(ctx, "activate call session", query, id, at)
}

// End active -> ended, считает фактическую длительность
func (r *CallSessionRepository) End(ctx context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error) {
	query := `
		UPDATE call_sessions
		SET status = 'ended',
		    end_time = $2,
		    actual_duration = GREATEST(0, EXTRACT(EPOCH FROM ($2 - start_time)))::INT,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + callColumns

	return r.transition(ctx, "end call session", query, id, at)
}

// Cancel pending -> cancelled
func (r *CallSessionRepository) Cancel(ctx context.Context, id uuid.UUID) (*model.CallSession, error) {
	query := `
		UPDATE call_sessions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + callColumns

	return r.transition(ctx, "cancel call session", query, id)
}

func (r *CallSessionRepository) transition(ctx context.Context, op, query string, args ...interface{}) (*model.CallSession, error) {
	c, err := scanCall(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrStaleTransition
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListByUser история звонков пользователя
func (r *CallSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.CallSession, error) {
	query := `
		SELECT ` + callColumns + `
		FROM call_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list call sessions by user: %w", err)
	}
	return collectCalls(rows)
}

// ListByExpert звонки эксперта в заданных статусах (входящие pending, текущий active)
func (r *CallSessionRepository) ListByExpert(ctx context.Context, expertID uuid.UUID, statuses []model.CallStatus) ([]*model.CallSession, error) {
	query := `
		SELECT ` + callColumns + `
		FROM call_sessions
		WHERE expert_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 100
	`

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}

	rows, err := r.pool.Query(ctx, query, expertID, names)
	if err != nil {
		return nil, fmt.Errorf("list call sessions by expert: %w", err)
	}
	return collectCalls(rows)
}

// ListStalePending pending-сессии, созданные до before (эксперт так и не ответил)
func (r *CallSessionRepository) ListStalePending(ctx context.Context, before time.Time) ([]*model.CallSession, error) {
	query := `
		SELECT ` + callColumns + `
		FROM call_sessions
		WHERE status = 'pending' AND created_at < $1
		LIMIT 500
	`

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("list stale pending calls: %w", err)
	}
	return collectCalls(rows)
}

// ListExpired активные сессии, у которых вышло оплаченное время
func (r *CallSessionRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.CallSession, error) {
	query := `
		SELECT ` + callColumns + `
		FROM call_sessions
		WHERE status = 'active'
		  AND start_time + make_interval(mins => selected_duration) < $1
		LIMIT 500
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired calls: %w", err)
	}
	return collectCalls(rows)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
