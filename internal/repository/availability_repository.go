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

type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

const slotColumns = `id, availability_id, start_time, end_time, day_of_week, specific_date, is_booked`

func scanSlot(row pgx.Row) (*model.TimeSlot, error) {
	var (
		slot model.TimeSlot
		dow  *int16
	)
	err := row.Scan(
		&slot.ID,
		&slot.AvailabilityID,
		&slot.StartTime,
		&slot.EndTime,
		&dow,
		&slot.SpecificDate,
		&slot.IsBooked,
	)
	if err != nil {
		return nil, err
	}
	if dow != nil {
		wd := time.Weekday(*dow)
		slot.DayOfWeek = &wd
	}
	return &slot, nil
}

func weekdayParam(d *time.Weekday) *int16 {
	if d == nil {
		return nil
	}
	v := int16(*d)
	return &v
}

// Create сохраняет окно вместе со слотами одной транзакцией
func (r *AvailabilityRepository) Create(ctx context.Context, a *model.ExpertAvailability) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO expert_availabilities (expert_id, start_date, end_date, availability_type)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		err := tx.QueryRow(ctx, query, a.ExpertID, a.StartDate, a.EndDate, a.Kind).
			Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("create availability: %w", err)
		}

		slotQuery := `
			INSERT INTO expert_time_slots (availability_id, start_time, end_time, day_of_week, specific_date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		for i := range a.Slots {
			slot := &a.Slots[i]
			slot.AvailabilityID = a.ID
			err := tx.QueryRow(
				ctx, slotQuery,
				a.ID,
				slot.StartTime,
				slot.EndTime,
				weekdayParam(slot.DayOfWeek),
				slot.SpecificDate,
			).Scan(&slot.ID)
			if err != nil {
				return fmt.Errorf("create time slot %d: %w", i, err)
			}
		}
		return nil
	})
}

// ListByExpert получает окна эксперта, не закончившиеся к from, со слотами
func (r *AvailabilityRepository) ListByExpert(ctx context.Context, expertID uuid.UUID, from time.Time) ([]*model.ExpertAvailability, error) {
	query := `
		SELECT id, expert_id, start_date, end_date, availability_type, created_at
		FROM expert_availabilities
		WHERE expert_id = $1 AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := r.pool.Query(ctx, query, expertID, model.DateOf(from))
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()

	var (
		windows []*model.ExpertAvailability
		byID    = make(map[uuid.UUID]*model.ExpertAvailability)
		ids     []uuid.UUID
	)
	for rows.Next() {
		var a model.ExpertAvailability
		if err := rows.Scan(&a.ID, &a.ExpertID, &a.StartDate, &a.EndDate, &a.Kind, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		windows = append(windows, &a)
		byID[a.ID] = &a
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return windows, nil
	}

	slotRows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM expert_time_slots
		WHERE availability_id = ANY($1)
		ORDER BY specific_date NULLS LAST, day_of_week, start_time
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	defer slotRows.Close()

	for slotRows.Next() {
		slot, err := scanSlot(slotRows)
		if err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		if a, ok := byID[slot.AvailabilityID]; ok {
			a.Slots = append(a.Slots, *slot)
		}
	}
	if err := slotRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time slots: %w", err)
	}

	return windows, nil
}

// GetSlot получает слот и окно, которому он принадлежит
func (r *AvailabilityRepository) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.TimeSlot, *model.ExpertAvailability, error) {
	query := `
		SELECT s.id, s.availability_id, s.start_time, s.end_time, s.day_of_week, s.specific_date, s.is_booked,
		       a.id, a.expert_id, a.start_date, a.end_date, a.availability_type, a.created_at
		FROM expert_time_slots s
		JOIN expert_availabilities a ON a.id = s.availability_id
		WHERE s.id = $1
	`

	var (
		slot model.TimeSlot
		a    model.ExpertAvailability
		dow  *int16
	)
	err := r.pool.QueryRow(ctx, query, slotID).Scan(
		&slot.ID, &slot.AvailabilityID, &slot.StartTime, &slot.EndTime, &dow, &slot.SpecificDate, &slot.IsBooked,
		&a.ID, &a.ExpertID, &a.StartDate, &a.EndDate, &a.Kind, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get time slot: %w", err)
	}
	if dow != nil {
		wd := time.Weekday(*dow)
		slot.DayOfWeek = &wd
	}

	return &slot, &a, nil
}

// Delete удаляет окно эксперта. Окно с живыми записями не удаляется: ErrSlotTaken.
func (r *AvailabilityRepository) Delete(ctx context.Context, id, expertID uuid.UUID) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var live int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(ap.id)
			FROM expert_availabilities a
			LEFT JOIN expert_time_slots s ON s.availability_id = a.id
			LEFT JOIN appointments ap ON ap.time_slot_id = s.id AND ap.status IN ('pending', 'confirmed')
			WHERE a.id = $1 AND a.expert_id = $2
			GROUP BY a.id
		`, id, expertID).Scan(&live)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("check availability usage: %w", err)
		}
		if live > 0 {
			return ErrSlotTaken
		}

		if _, err := tx.Exec(ctx, `DELETE FROM expert_availabilities WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete availability: %w", err)
		}
		return nil
	})
}
