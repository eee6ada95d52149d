package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/outbox"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/schedule"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/storage"
)

// Owner identity arrives from the auth layer in front of this service as the
// X-Business-Id header; authentication itself is not this service's concern.
func businessIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Business-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeReserveError maps a refused capacity reservation to the HTTP error the
// caller should see. Unknown errors fall through to 500.
func writeReserveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrSlotNotOpen):
		writeError(w, http.StatusConflict, schedule.ReasonNotOpened)
	case errors.Is(err, storage.ErrSlotClosed):
		writeError(w, http.StatusConflict, schedule.ReasonClosed)
	case errors.Is(err, storage.ErrSlotFull):
		writeError(w, http.StatusConflict, schedule.ReasonFull)
	default:
		writeError(w, http.StatusInternalServerError, "failed to reserve slot capacity")
	}
}

func transitionEventType(status model.AppointmentStatus) string {
	switch status {
	case model.StatusApproved:
		return outbox.EventAppointmentApproved
	case model.StatusRejected:
		return outbox.EventAppointmentRejected
	case model.StatusCompleted:
		return outbox.EventAppointmentCompleted
	case model.StatusCancelled:
		return outbox.EventAppointmentCancelled
	}
	return outbox.EventAppointmentBooked
}

func appointmentEventPayload(appt *model.Appointment) ([]byte, error) {
	m := map[string]any{
		"appointment_id": appt.ID,
		"business_id":    appt.BusinessID,
		"customer_id":    appt.CustomerID,
		"date":           appt.Date,
		"time":           appt.Time,
		"status":         string(appt.Status),
	}
	if appt.SlotID != nil {
		m["slot_id"] = *appt.SlotID
	}
	return json.Marshal(m)
}

func apptItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		Date:          a.Date,
		SlotID:        a.SlotID,
		Time:          normalizeClock(a.Time),
		Status:        string(a.Status),
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func templateItem(t model.SlotTemplate) slotTemplateItem {
	return slotTemplateItem{
		SlotID:        t.ID,
		SlotName:      t.SlotName,
		StartTime:     normalizeClock(t.StartTime),
		EndTime:       normalizeClock(t.EndTime),
		DurationMins:  t.DurationMins,
		MaxConcurrent: t.MaxConcurrent,
		IsActive:      t.IsActive,
	}
}

// normalizeClock strips seconds the store may append. Malformed stored values
// are passed through untouched; readers report them where it matters.
func normalizeClock(s string) string {
	c, err := schedule.ParseClock(s)
	if err != nil {
		return s
	}
	return c.String()
}

func normalizeClockPtr(s *string) *string {
	if s == nil {
		return nil
	}
	n := normalizeClock(*s)
	return &n
}

func persistedSlotIDs(base []schedule.Slot) []string {
	ids := make([]string, 0, len(base))
	for _, s := range base {
		if s.TemplateID != "" {
			ids = append(ids, s.TemplateID)
		}
	}
	return ids
}
