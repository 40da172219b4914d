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

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `id, expert_id, user_id, time_slot_id, appointment_date, start_time, end_time,
	status, amount, currency, calendar_event_id, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.ExpertID,
		&a.UserID,
		&a.TimeSlotID,
		&a.AppointmentDate,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Amount,
		&a.Currency,
		&a.CalendarEventID,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*model.Appointment, error) {
	defer rows.Close()

	var out []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

// CreateIfAvailable создаёт запись в статусе pending, если слот свободен на дату.
// Слот блокируется FOR UPDATE, поэтому две параллельные записи не пройдут обе:
// вторая получит ErrSlotTaken.
func (r *AppointmentRepository) CreateIfAvailable(ctx context.Context, appt *model.Appointment) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			slot model.TimeSlot
			dow  *int16
			win  model.ExpertAvailability
		)
		err := tx.QueryRow(ctx, `
			SELECT s.id, s.start_time, s.end_time, s.day_of_week, s.specific_date, s.is_booked,
			       a.expert_id, a.start_date, a.end_date, a.availability_type
			FROM expert_time_slots s
			JOIN expert_availabilities a ON a.id = s.availability_id
			WHERE s.id = $1
			FOR UPDATE OF s
		`, appt.TimeSlotID).Scan(
			&slot.ID, &slot.StartTime, &slot.EndTime, &dow, &slot.SpecificDate, &slot.IsBooked,
			&win.ExpertID, &win.StartDate, &win.EndDate, &win.Kind,
		)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("lock time slot: %w", err)
		}
		if dow != nil {
			wd := time.Weekday(*dow)
			slot.DayOfWeek = &wd
		}

		if win.ExpertID != appt.ExpertID {
			return ErrNotFound
		}
		if !win.Covers(appt.AppointmentDate) || !slot.MatchesDate(appt.AppointmentDate) || slot.IsBooked {
			return ErrSlotTaken
		}

		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE time_slot_id = $1 AND appointment_date = $2 AND status IN ('pending', 'confirmed')
			)
		`, slot.ID, model.DateOf(appt.AppointmentDate)).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check slot usage: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		appt.StartTime = slot.StartTime
		appt.EndTime = slot.EndTime
		appt.Status = model.AppointmentPending
		err = tx.QueryRow(ctx, `
			INSERT INTO appointments (expert_id, user_id, time_slot_id, appointment_date, start_time, end_time,
			                          status, amount, currency, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at
		`,
			appt.ExpertID,
			appt.UserID,
			appt.TimeSlotID,
			model.DateOf(appt.AppointmentDate),
			appt.StartTime,
			appt.EndTime,
			appt.Status,
			appt.Amount,
			appt.Currency,
			appt.Notes,
		).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		// у date_range слот одноразовый, у recurring занятость считается по appointments
		if win.Kind == model.AvailabilityDateRange {
			if _, err := tx.Exec(ctx, `UPDATE expert_time_slots SET is_booked = TRUE WHERE id = $1`, slot.ID); err != nil {
				return fmt.Errorf("mark slot booked: %w", err)
			}
		}
		return nil
	})
}

// IsTimeSlotAvailable проверяет, что на слот и дату нет живой записи
func (r *AppointmentRepository) IsTimeSlotAvailable(ctx context.Context, slotID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE time_slot_id = $1 AND appointment_date = $2 AND status IN ('pending', 'confirmed')
		) AND NOT COALESCE((SELECT is_booked FROM expert_time_slots WHERE id = $1), TRUE)
	`

	var free bool
	if err := r.pool.QueryRow(ctx, query, slotID, model.DateOf(date)).Scan(&free); err != nil {
		return false, fmt.Errorf("check time slot availability: %w", err)
	}
	return free, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return a, nil
}

// ListByExpert записи эксперта в диапазоне дат [from, to]
func (r *AppointmentRepository) ListByExpert(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE expert_id = $1 AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date, start_time
	`

	rows, err := r.pool.Query(ctx, query, expertID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list appointments by expert: %w", err)
	}
	return collectAppointments(rows)
}

// ListByUser все записи пользователя, новые сверху
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1
		ORDER BY appointment_date DESC, start_time DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by user: %w", err)
	}
	return collectAppointments(rows)
}

// UpdateStatus условный переход from -> to. При отмене освобождает date_range слот.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error) {
	var updated *model.Appointment
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING `+appointmentColumns, id, from, to))
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrStaleTransition
			}
			return fmt.Errorf("update appointment status: %w", err)
		}

		if to == model.AppointmentCancelled {
			if err := releaseSlot(ctx, tx, a.TimeSlotID); err != nil {
				return err
			}
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ConfirmPaid атомарно отмечает платёж оплаченным и подтверждает запись
func (r *AppointmentRepository) ConfirmPaid(ctx context.Context, id uuid.UUID, orderID, paymentID string) (*model.Appointment, error) {
	var confirmed *model.Appointment
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := markPaid(ctx, tx, orderID, paymentID); err != nil {
			return err
		}

		a, err := scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = 'confirmed', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
			RETURNING `+appointmentColumns, id))
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrStaleTransition
			}
			return fmt.Errorf("confirm appointment: %w", err)
		}
		confirmed = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// SetCalendarEvent сохраняет id события Google Calendar
func (r *AppointmentRepository) SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID *string) error {
	affected, err := execAffected(ctx, r.pool,
		`UPDATE appointments SET calendar_event_id = $2, updated_at = NOW() WHERE id = $1`, id, eventID)
	if err != nil {
		return fmt.Errorf("set calendar event: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDueForCompletion подтверждённые записи, закончившиеся до now
func (r *AppointmentRepository) ListDueForCompletion(ctx context.Context, now time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'confirmed' AND (appointment_date + end_time) < $1
		ORDER BY appointment_date, end_time
		LIMIT 500
	`

	rows, err := r.pool.Query(ctx, query, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("list appointments due for completion: %w", err)
	}
	return collectAppointments(rows)
}

// ListStalePending записи, которые ждут оплату дольше допустимого
func (r *AppointmentRepository) ListStalePending(ctx context.Context, before time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'pending' AND created_at < $1
		LIMIT 500
	`

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("list stale pending appointments: %w", err)
	}
	return collectAppointments(rows)
}

func releaseSlot(ctx context.Context, tx pgx.Tx, slotID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE expert_time_slots s
		SET is_booked = FALSE
		FROM expert_availabilities a
		WHERE s.id = $1 AND a.id = s.availability_id AND a.availability_type = 'date_range'
	`, slotID)
	if err != nil {
		return fmt.Errorf("release time slot: %w", err)
	}
	return nil
}
