package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nearbook/nearbook/libs/db"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
)

// BookingRepository owns appointments and the live capacity counters on
// daily_slot_availability. Reservation is a single conditional update, so a
// successful booking can never push a slot past its ceiling; the partial
// unique index on active appointments closes the remaining race between two
// writers at the same business/date/time.
type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// ReserveSlotCapacity atomically takes one capacity unit if the slot is open
// and under its ceiling. On refusal the row is re-read once to classify the
// reason for the caller's error message.
func (r *BookingRepository) ReserveSlotCapacity(ctx context.Context, tx pgx.Tx, businessID, slotID, date string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE daily_slot_availability
		SET current_appointments_in_slot = current_appointments_in_slot + 1,
			updated_at = now()
		WHERE business_id = $1 AND slot_id = $2 AND date = $3::date
			AND is_available
			AND current_appointments_in_slot < max_appointments_in_slot
	`, businessID, slotID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var isAvailable bool
	var current, max int
	err = tx.QueryRow(ctx, `
		SELECT is_available, current_appointments_in_slot, max_appointments_in_slot
		FROM daily_slot_availability
		WHERE business_id = $1 AND slot_id = $2 AND date = $3::date
	`, businessID, slotID, date).Scan(&isAvailable, &current, &max)
	if err != nil {
		if IsNotFound(err) {
			return ErrSlotNotOpen
		}
		return err
	}
	if !isAvailable {
		return ErrSlotClosed
	}
	if current >= max {
		return ErrSlotFull
	}
	// The conditional update refused but the row now qualifies: a concurrent
	// transaction changed it under us. Treat as full; the client may retry.
	return ErrSlotFull
}

// ReleaseSlotCapacity returns one capacity unit after a cancellation or
// rejection. Counters never go below zero even if the daily row was created
// after the appointment.
func (r *BookingRepository) ReleaseSlotCapacity(ctx context.Context, tx pgx.Tx, businessID, slotID, date string) error {
	_, err := tx.Exec(ctx, `
		UPDATE daily_slot_availability
		SET current_appointments_in_slot = current_appointments_in_slot - 1,
			updated_at = now()
		WHERE business_id = $1 AND slot_id = $2 AND date = $3::date
			AND current_appointments_in_slot > 0
	`, businessID, slotID, date)
	return err
}

// EnsureDailyRow lazily creates the availability row from the template's
// defaults. Used by the owner-created booking path, where the owner booking
// a never-viewed date implies opening the slot.
func (r *BookingRepository) EnsureDailyRow(ctx context.Context, tx pgx.Tx, businessID, slotID, date string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_slot_availability
			(business_id, slot_id, date, is_available, max_appointments_in_slot, current_appointments_in_slot)
		SELECT t.business_id, t.id, $3::date, TRUE, t.max_concurrent_appointments, 0
		FROM slot_templates t
		WHERE t.id = $2 AND t.business_id = $1
		ON CONFLICT (business_id, slot_id, date) DO NOTHING
	`, businessID, slotID, date)
	return err
}

// CreateAppointment inserts the row. A unique-index violation (IsConflict)
// means another active appointment already holds this business/date/time.
func (r *BookingRepository) CreateAppointment(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, business_id, customer_id, appointment_date, appointment_time_slot_id, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, appt.ID, appt.BusinessID, appt.CustomerID, appt.Date, appt.SlotID, appt.Time, appt.Status, appt.Notes).
		Scan(&appt.CreatedAt, &appt.UpdatedAt)
}

func (r *BookingRepository) GetAppointmentForUpdate(ctx context.Context, tx pgx.Tx, businessID, appointmentID string) (model.Appointment, error) {
	var a model.Appointment
	err := tx.QueryRow(ctx, `
		SELECT id::text, business_id, customer_id, appointment_date::text,
			appointment_time_slot_id::text, appointment_time::text, status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND business_id = $2
		FOR UPDATE
	`, appointmentID, businessID).Scan(
		&a.ID, &a.BusinessID, &a.CustomerID, &a.Date,
		&a.SlotID, &a.Time, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func (r *BookingRepository) UpdateAppointmentStatus(ctx context.Context, tx pgx.Tx, businessID, appointmentID string, status model.AppointmentStatus) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, appointmentID, businessID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListAppointments returns a business's appointments, optionally restricted
// to one date, newest date first then by start time.
func (r *BookingRepository) ListAppointments(ctx context.Context, businessID, date string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}

	const baseQuery = `
		SELECT id::text, business_id, customer_id, appointment_date::text,
			appointment_time_slot_id::text, appointment_time::text, status, notes, created_at, updated_at
		FROM appointments
		WHERE business_id = $1`

	var (
		rows pgx.Rows
		err  error
	)
	if date != "" {
		rows, err = r.pool.Query(ctx, baseQuery+`
			AND appointment_date = $2::date
			ORDER BY appointment_time ASC
			LIMIT $3
		`, businessID, date, limit)
	} else {
		rows, err = r.pool.Query(ctx, baseQuery+`
			ORDER BY appointment_date DESC, appointment_time ASC
			LIMIT $2
		`, businessID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.CustomerID, &a.Date,
			&a.SlotID, &a.Time, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
