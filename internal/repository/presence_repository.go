package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

type PresenceRepository struct {
	pool *pgxpool.Pool
}

func NewPresenceRepository(pool *pgxpool.Pool) *PresenceRepository {
	return &PresenceRepository{pool: pool}
}

// Upsert сохраняет статус эксперта. Повтор того же статуса не меняет updated_at,
// возвращает changed=false.
func (r *PresenceRepository) Upsert(ctx context.Context, p *model.Presence) (bool, error) {
	query := `
		INSERT INTO expert_presence (expert_id, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (expert_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		WHERE expert_presence.status IS DISTINCT FROM EXCLUDED.status
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query, p.ExpertID, p.Status).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			// статус не изменился
			cur, getErr := r.Get(ctx, p.ExpertID)
			if getErr != nil {
				return false, getErr
			}
			if cur != nil {
				p.UpdatedAt = cur.UpdatedAt
			}
			return false, nil
		}
		return false, fmt.Errorf("upsert presence: %w", err)
	}

	return true, nil
}

// Get последний сохранённый статус; nil если эксперт ни разу его не выставлял
func (r *PresenceRepository) Get(ctx context.Context, expertID uuid.UUID) (*model.Presence, error) {
	query := `SELECT expert_id, status, updated_at FROM expert_presence WHERE expert_id = $1`

	var p model.Presence
	err := r.pool.QueryRow(ctx, query, expertID).Scan(&p.ExpertID, &p.Status, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get presence: %w", err)
	}

	return &p, nil
}

// ListAll статусы всех экспертов, для каталога
func (r *PresenceRepository) ListAll(ctx context.Context) (map[uuid.UUID]model.Presence, error) {
	rows, err := r.pool.Query(ctx, `SELECT expert_id, status, updated_at FROM expert_presence`)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]model.Presence)
	for rows.Next() {
		var p model.Presence
		if err := rows.Scan(&p.ExpertID, &p.Status, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		out[p.ExpertID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presence: %w", err)
	}

	return out, nil
}
