package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/nearbook/nearbook/libs/db"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
)

// ScheduleRepository owns the owner-side configuration tables: weekly
// operating hours, slot templates, and per-date availability overrides.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// UpsertOperatingHours overwrites the weekly template rows in one
// transaction, keyed on (business_id, day_of_week). Rows are never deleted.
func (r *ScheduleRepository) UpsertOperatingHours(ctx context.Context, rows []model.OperatingHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, h := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO operating_hours (business_id, day_of_week, open_time, close_time, is_closed)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (business_id, day_of_week) DO UPDATE
			SET open_time = EXCLUDED.open_time,
				close_time = EXCLUDED.close_time,
				is_closed = EXCLUDED.is_closed,
				updated_at = now()
		`, h.BusinessID, h.Weekday, h.OpenTime, h.CloseTime, h.IsClosed); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ScheduleRepository) ListOperatingHours(ctx context.Context, businessID string) ([]model.OperatingHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT business_id, day_of_week, open_time::text, close_time::text, is_closed
		FROM operating_hours
		WHERE business_id = $1
		ORDER BY day_of_week ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OperatingHours
	for rows.Next() {
		var h model.OperatingHours
		if err := rows.Scan(&h.BusinessID, &h.Weekday, &h.OpenTime, &h.CloseTime, &h.IsClosed); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// GetOperatingHours returns the weekday row, or ok=false when the business
// never configured that day (a normal empty state, not an error).
func (r *ScheduleRepository) GetOperatingHours(ctx context.Context, businessID string, weekday int) (model.OperatingHours, bool, error) {
	var h model.OperatingHours
	err := r.pool.QueryRow(ctx, `
		SELECT business_id, day_of_week, open_time::text, close_time::text, is_closed
		FROM operating_hours
		WHERE business_id = $1 AND day_of_week = $2
	`, businessID, weekday).Scan(&h.BusinessID, &h.Weekday, &h.OpenTime, &h.CloseTime, &h.IsClosed)
	if err != nil {
		if IsNotFound(err) {
			return model.OperatingHours{}, false, nil
		}
		return model.OperatingHours{}, false, err
	}
	return h, true, nil
}

func (r *ScheduleRepository) ListActiveSlotTemplates(ctx context.Context, businessID string) ([]model.SlotTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, business_id, slot_name, start_time::text, end_time::text,
			duration_minutes, max_concurrent_appointments, is_active
		FROM slot_templates
		WHERE business_id = $1 AND is_active
		ORDER BY start_time ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SlotTemplate
	for rows.Next() {
		var t model.SlotTemplate
		if err := rows.Scan(&t.ID, &t.BusinessID, &t.SlotName, &t.StartTime, &t.EndTime,
			&t.DurationMins, &t.MaxConcurrent, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ScheduleRepository) GetSlotTemplate(ctx context.Context, businessID, slotID string) (model.SlotTemplate, error) {
	var t model.SlotTemplate
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, business_id, slot_name, start_time::text, end_time::text,
			duration_minutes, max_concurrent_appointments, is_active
		FROM slot_templates
		WHERE id = $1 AND business_id = $2
	`, slotID, businessID).Scan(&t.ID, &t.BusinessID, &t.SlotName, &t.StartTime, &t.EndTime,
		&t.DurationMins, &t.MaxConcurrent, &t.IsActive)
	if err != nil {
		return model.SlotTemplate{}, err
	}
	return t, nil
}

// InsertSlotTemplates persists templates whose UUIDs were assigned by the
// caller before insert, so draft slots map to stored rows by identity.
func (r *ScheduleRepository) InsertSlotTemplates(ctx context.Context, tx pgx.Tx, templates []model.SlotTemplate) error {
	for _, t := range templates {
		if _, err := tx.Exec(ctx, `
			INSERT INTO slot_templates
				(id, business_id, slot_name, start_time, end_time, duration_minutes, max_concurrent_appointments, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, t.ID, t.BusinessID, t.SlotName, t.StartTime, t.EndTime, t.DurationMins, t.MaxConcurrent, t.IsActive); err != nil {
			return err
		}
	}
	return nil
}

// ListDailyAvailability fetches override rows for the persisted slots of one
// business/date. Unsaved drafts have no id and therefore no row.
func (r *ScheduleRepository) ListDailyAvailability(ctx context.Context, businessID, date string, slotIDs []string) ([]model.DailySlotAvailability, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, slot_id::text, date::text, is_available,
			max_appointments_in_slot, current_appointments_in_slot
		FROM daily_slot_availability
		WHERE business_id = $1 AND date = $2::date AND slot_id = ANY($3::uuid[])
	`, businessID, date, slotIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailySlotAvailability
	for rows.Next() {
		var d model.DailySlotAvailability
		if err := rows.Scan(&d.ID, &d.BusinessID, &d.SlotID, &d.Date, &d.IsAvailable,
			&d.MaxAppointments, &d.CurrentAppts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpsertDailyAvailability writes the owner's per-date override. The live
// booking count is owned by the booking path and is deliberately left
// untouched on update.
func (r *ScheduleRepository) UpsertDailyAvailability(ctx context.Context, tx pgx.Tx, businessID, slotID, date string, isAvailable bool, maxAppointments int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_slot_availability
			(business_id, slot_id, date, is_available, max_appointments_in_slot, current_appointments_in_slot)
		VALUES ($1, $2, $3::date, $4, $5, 0)
		ON CONFLICT (business_id, slot_id, date) DO UPDATE
		SET is_available = EXCLUDED.is_available,
			max_appointments_in_slot = EXCLUDED.max_appointments_in_slot,
			updated_at = now()
	`, businessID, slotID, date, isAvailable, maxAppointments)
	return err
}
