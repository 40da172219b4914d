package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

type AwayMessageRepository struct {
	pool *pgxpool.Pool
}

func NewAwayMessageRepository(pool *pgxpool.Pool) *AwayMessageRepository {
	return &AwayMessageRepository{pool: pool}
}

// Create сохраняет сообщение эксперту
func (r *AwayMessageRepository) Create(ctx context.Context, m *model.AwayMessage) error {
	query := `
		INSERT INTO away_messages (expert_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, m.ExpertID, m.UserID, m.Body).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create away message: %w", err)
	}

	return nil
}

// ListForExpert сообщения эксперту, новые сверху
func (r *AwayMessageRepository) ListForExpert(ctx context.Context, expertID uuid.UUID, unreadOnly bool) ([]*model.AwayMessage, error) {
	query := `
		SELECT id, expert_id, user_id, body, read_at, created_at
		FROM away_messages
		WHERE expert_id = $1 AND (read_at IS NULL OR NOT $2)
		ORDER BY created_at DESC
		LIMIT 200
	`

	rows, err := r.pool.Query(ctx, query, expertID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list away messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.AwayMessage
	for rows.Next() {
		var m model.AwayMessage
		if err := rows.Scan(&m.ID, &m.ExpertID, &m.UserID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan away message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate away messages: %w", err)
	}

	return messages, nil
}

// MarkRead отмечает сообщения эксперта прочитанными, возвращает сколько реально отмечено
func (r *AwayMessageRepository) MarkRead(ctx context.Context, expertID uuid.UUID, ids []uuid.UUID) (int, error) {
	query := `
		UPDATE away_messages
		SET read_at = NOW()
		WHERE expert_id = $1 AND id = ANY($2) AND read_at IS NULL
	`

	affected, err := execAffected(ctx, r.pool, query, expertID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark away messages read: %w", err)
	}

	return int(affected), nil
}

// UnreadCounts непрочитанные по экспертам; источник истины для счётчиков
func (r *AwayMessageRepository) UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `
		SELECT expert_id, COUNT(*)
		FROM away_messages
		WHERE read_at IS NULL
		GROUP BY expert_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count unread messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			expertID uuid.UUID
			n        int
		)
		if err := rows.Scan(&expertID, &n); err != nil {
			return nil, fmt.Errorf("scan unread count: %w", err)
		}
		counts[expertID] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unread counts: %w", err)
	}

	return counts, nil
}
