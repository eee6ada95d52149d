package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/outbox"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/schedule"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/storage"
)

var validate = validator.New()

// OwnerHandler serves the business-owner side of the scheduling API: weekly
// hours, slot templates, the per-date day view, and appointment management.
type OwnerHandler struct {
	schedule   *storage.ScheduleRepository
	bookings   *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewOwnerHandler(scheduleRepo *storage.ScheduleRepository, bookingRepo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *OwnerHandler {
	return &OwnerHandler{
		schedule:   scheduleRepo,
		bookings:   bookingRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type hoursDay struct {
	DayOfWeek int     `json:"day_of_week" validate:"gte=0,lte=6"`
	OpenTime  *string `json:"open_time"`
	CloseTime *string `json:"close_time"`
	IsClosed  bool    `json:"is_closed"`
}

type putHoursRequest struct {
	Days []hoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

func (h *OwnerHandler) Hours(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFromHeader(r)
	if businessID == "" {
		writeError(w, http.StatusUnauthorized, "X-Business-Id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getHours(w, r, businessID)
	case http.MethodPut:
		h.putHours(w, r, businessID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OwnerHandler) getHours(w http.ResponseWriter, r *http.Request, businessID string) {
	rows, err := h.schedule.ListOperatingHours(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list operating hours failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load operating hours")
		return
	}

	days := make([]hoursDay, 0, len(rows))
	for _, row := range rows {
		days = append(days, hoursDay{
			DayOfWeek: row.Weekday,
			OpenTime:  normalizeClockPtr(row.OpenTime),
			CloseTime: normalizeClockPtr(row.CloseTime),
			IsClosed:  row.IsClosed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *OwnerHandler) putHours(w http.ResponseWriter, r *http.Request, businessID string) {
	var req putHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid hours payload: "+err.Error())
		return
	}

	seen := make(map[int]bool, len(req.Days))
	rows := make([]model.OperatingHours, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.DayOfWeek] {
			writeError(w, http.StatusBadRequest, "duplicate day_of_week")
			return
		}
		seen[d.DayOfWeek] = true

		row := model.OperatingHours{
			BusinessID: businessID,
			Weekday:    d.DayOfWeek,
			IsClosed:   d.IsClosed,
		}
		if !d.IsClosed {
			if d.OpenTime == nil || d.CloseTime == nil {
				writeError(w, http.StatusBadRequest, "open_time and close_time required for an open day")
				return
			}
			open, err := schedule.ParseClock(*d.OpenTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid open_time")
				return
			}
			closeAt, err := schedule.ParseClock(*d.CloseTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid close_time")
				return
			}
			if closeAt <= open {
				writeError(w, http.StatusBadRequest, "close_time must be after open_time")
				return
			}
			openStr, closeStr := open.String(), closeAt.String()
			row.OpenTime, row.CloseTime = &openStr, &closeStr
		}
		rows = append(rows, row)
	}

	if err := h.schedule.UpsertOperatingHours(r.Context(), rows); err != nil {
		h.logger.Error("upsert operating hours failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save operating hours")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": len(rows)})
}

type slotTemplateItem struct {
	SlotID        string `json:"slot_id"`
	SlotName      string `json:"slot_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	DurationMins  int    `json:"duration_minutes"`
	MaxConcurrent int    `json:"max_concurrent_appointments"`
	IsActive      bool   `json:"is_active"`
}

type createSlotTemplateRequest struct {
	SlotName      string `json:"slot_name" validate:"required,max=120"`
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
	DurationMins  int    `json:"duration_minutes" validate:"gte=0,lte=480"`
	MaxConcurrent int    `json:"max_concurrent_appointments" validate:"gte=1,lte=500"`
}

func (h *OwnerHandler) SlotTemplates(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFromHeader(r)
	if businessID == "" {
		writeError(w, http.StatusUnauthorized, "X-Business-Id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listSlotTemplates(w, r, businessID)
	case http.MethodPost:
		h.createSlotTemplate(w, r, businessID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OwnerHandler) listSlotTemplates(w http.ResponseWriter, r *http.Request, businessID string) {
	templates, err := h.schedule.ListActiveSlotTemplates(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list slot templates failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load slot templates")
		return
	}
	items := make([]slotTemplateItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateItem(t))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *OwnerHandler) createSlotTemplate(w http.ResponseWriter, r *http.Request, businessID string) {
	var req createSlotTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot template: "+err.Error())
		return
	}

	start, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	end, err := schedule.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time")
		return
	}
	if end <= start {
		writeError(w, http.StatusBadRequest, "end_time must be after start_time")
		return
	}

	name := strings.TrimSpace(req.SlotName)
	if name == "" {
		name = schedule.SlotName(start, end)
	}
	durationMins := req.DurationMins
	if durationMins == 0 {
		durationMins = int(end - start)
	}

	tmpl := model.SlotTemplate{
		ID:            uuid.NewString(),
		BusinessID:    businessID,
		SlotName:      name,
		StartTime:     start.String(),
		EndTime:       end.String(),
		DurationMins:  durationMins,
		MaxConcurrent: req.MaxConcurrent,
		IsActive:      true,
	}

	ctx := r.Context()
	tx, err := h.schedule.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.schedule.InsertSlotTemplates(ctx, tx, []model.SlotTemplate{tmpl}); err != nil {
		if storage.IsCheckViolation(err) {
			writeError(w, http.StatusBadRequest, "slot times violate template constraints")
			return
		}
		h.logger.Error("insert slot template failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save slot template")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusCreated, templateItem(tmpl))
}

type daySlotItem struct {
	SlotID        string `json:"slot_id,omitempty"`
	SlotName      string `json:"slot_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	DurationMins  int    `json:"duration_minutes"`
	IsNew         bool   `json:"is_new"`
	IsAvailable   bool   `json:"is_available"`
	MaxAppts      int    `json:"max_appointments_in_slot"`
	CurrentAppts  int    `json:"current_appointments_in_slot"`
	HasOverride   bool   `json:"has_override"`
}

type dayResponse struct {
	Date   string        `json:"date"`
	Reason string        `json:"reason,omitempty"`
	Slots  []daySlotItem `json:"slots"`
}

func (h *OwnerHandler) Day(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFromHeader(r)
	if businessID == "" {
		writeError(w, http.StatusUnauthorized, "X-Business-Id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getDay(w, r, businessID)
	case http.MethodPut:
		h.saveDay(w, r, businessID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OwnerHandler) getDay(w http.ResponseWriter, r *http.Request, businessID string) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !schedule.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	base, reason, err := h.baseSlotsFor(w, r, businessID, date)
	if err != nil {
		return // response already written
	}
	if len(base) == 0 {
		writeJSON(w, http.StatusOK, dayResponse{Date: date, Reason: string(reason), Slots: []daySlotItem{}})
		return
	}

	rows, err := h.schedule.ListDailyAvailability(ctx, businessID, date, persistedSlotIDs(base))
	if err != nil {
		h.logger.Error("list daily availability failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load daily availability")
		return
	}

	merged := schedule.MergeDaily(base, rows)
	items := make([]daySlotItem, 0, len(merged))
	for _, ds := range merged {
		items = append(items, daySlotItem{
			SlotID:       ds.TemplateID,
			SlotName:     ds.Name,
			StartTime:    ds.Start.String(),
			EndTime:      ds.End.String(),
			DurationMins: ds.DurationMins,
			IsNew:        ds.IsNew,
			IsAvailable:  ds.IsAvailable,
			MaxAppts:     ds.MaxAppointments,
			CurrentAppts: ds.CurrentAppts,
			HasOverride:  ds.HasOverride,
		})
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: date, Slots: items})
}

type saveDaySlot struct {
	SlotID      string `json:"slot_id"`
	SlotName    string `json:"slot_name"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	DurationMins int   `json:"duration_minutes"`
	IsAvailable bool   `json:"is_available"`
	MaxAppts    int    `json:"max_appointments_in_slot" validate:"gte=1,lte=500"`
	IsNew       bool   `json:"is_new"`
}

type saveDayRequest struct {
	Date  string        `json:"date" validate:"required"`
	Slots []saveDaySlot `json:"slots" validate:"required,min=1,max=100,dive"`
}

// daySaveEntry is one request slot resolved to what will actually be
// written: the final slot id, the template to materialize when the slot is
// still a draft, and the response item carrying the persisted values.
type daySaveEntry struct {
	slotID      string
	isAvailable bool
	maxAppts    int
	newTemplate *model.SlotTemplate
	item        daySlotItem
}

// materializeDaySlot validates one slot of a day save and assigns draft
// slots their identity and defaults (name from the time range, duration from
// end-start). The response item reflects those materialized values, not the
// raw request.
func materializeDaySlot(businessID string, s saveDaySlot) (daySaveEntry, error) {
	start, err := schedule.ParseClock(s.StartTime)
	if err != nil {
		return daySaveEntry{}, errors.New("invalid start_time")
	}
	end, err := schedule.ParseClock(s.EndTime)
	if err != nil {
		return daySaveEntry{}, errors.New("invalid end_time")
	}
	if end <= start {
		return daySaveEntry{}, errors.New("end_time must be after start_time")
	}

	name := strings.TrimSpace(s.SlotName)
	durationMins := s.DurationMins

	slotID := strings.TrimSpace(s.SlotID)
	entry := daySaveEntry{isAvailable: s.IsAvailable, maxAppts: s.MaxAppts}
	if s.IsNew || slotID == "" {
		slotID = uuid.NewString()
		if name == "" {
			name = schedule.SlotName(start, end)
		}
		if durationMins == 0 {
			durationMins = int(end - start)
		}
		entry.newTemplate = &model.SlotTemplate{
			ID:            slotID,
			BusinessID:    businessID,
			SlotName:      name,
			StartTime:     start.String(),
			EndTime:       end.String(),
			DurationMins:  durationMins,
			MaxConcurrent: s.MaxAppts,
			IsActive:      true,
		}
	} else if _, err := uuid.Parse(slotID); err != nil {
		return daySaveEntry{}, errors.New("invalid slot_id")
	}

	entry.slotID = slotID
	entry.item = daySlotItem{
		SlotID:       slotID,
		SlotName:     name,
		StartTime:    start.String(),
		EndTime:      end.String(),
		DurationMins: durationMins,
		IsAvailable:  s.IsAvailable,
		MaxAppts:     s.MaxAppts,
		HasOverride:  true,
	}
	return entry, nil
}

// saveDay persists the owner's day view in one transaction: draft slots
// become templates first (ids assigned here, before insert), then every slot
// gets its per-date availability row upserted.
func (h *OwnerHandler) saveDay(w http.ResponseWriter, r *http.Request, businessID string) {
	var req saveDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid day payload: "+err.Error())
		return
	}
	if !schedule.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var newTemplates []model.SlotTemplate
	entries := make([]daySaveEntry, 0, len(req.Slots))
	items := make([]daySlotItem, 0, len(req.Slots))

	for i, s := range req.Slots {
		entry, err := materializeDaySlot(businessID, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error()+" in slot "+strconv.Itoa(i))
			return
		}
		if entry.newTemplate != nil {
			newTemplates = append(newTemplates, *entry.newTemplate)
		}
		entries = append(entries, entry)
		items = append(items, entry.item)
	}

	ctx := r.Context()
	tx, err := h.schedule.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(newTemplates) > 0 {
		if err := h.schedule.InsertSlotTemplates(ctx, tx, newTemplates); err != nil {
			h.logger.Error("insert draft slot templates failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to save new slots")
			return
		}
	}
	for _, wr := range entries {
		if err := h.schedule.UpsertDailyAvailability(ctx, tx, businessID, wr.slotID, req.Date, wr.isAvailable, wr.maxAppts); err != nil {
			if storage.IsCheckViolation(err) {
				// Lowering max below the current booking count would break the
				// capacity invariant.
				writeError(w, http.StatusConflict, "max_appointments_in_slot is below the current booking count")
				return
			}
			h.logger.Error("upsert daily availability failed", "err", err, "slot_id", wr.slotID)
			writeError(w, http.StatusInternalServerError, "failed to save daily availability")
			return
		}
	}

	payload, err := json.Marshal(map[string]any{
		"business_id": businessID,
		"date":        req.Date,
		"slot_count":  len(entries),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "schedule_day",
		AggregateID:   businessID,
		EventType:     outbox.EventDaySaved,
		Payload:       payload,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Date: req.Date, Slots: items})
}

type appointmentItem struct {
	AppointmentID string  `json:"appointment_id"`
	CustomerID    string  `json:"customer_id"`
	Date          string  `json:"date"`
	SlotID        *string `json:"slot_id,omitempty"`
	Time          string  `json:"time"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type createAppointmentRequest struct {
	CustomerID string `json:"customer_id" validate:"required,max=120"`
	Date       string `json:"date" validate:"required"`
	SlotID     string `json:"slot_id"`
	Time       string `json:"time"`
	Notes      string `json:"notes" validate:"max=2000"`
}

func (h *OwnerHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	businessID := businessIDFromHeader(r)
	if businessID == "" {
		writeError(w, http.StatusUnauthorized, "X-Business-Id required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listAppointments(w, r, businessID)
	case http.MethodPost:
		h.createAppointment(w, r, businessID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *OwnerHandler) listAppointments(w http.ResponseWriter, r *http.Request, businessID string) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != "" && !schedule.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.bookings.ListAppointments(r.Context(), businessID, date, limit)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, apptItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

// createAppointment is the owner-created booking path (walk-ins, phone
// bookings). It starts at approved and may open the daily row lazily: the
// owner booking a slot implies the slot is open that day.
func (h *OwnerHandler) createAppointment(w http.ResponseWriter, r *http.Request, businessID string) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment payload: "+err.Error())
		return
	}
	if !schedule.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	req.SlotID = strings.TrimSpace(req.SlotID)
	req.Time = strings.TrimSpace(req.Time)

	appt := &model.Appointment{
		BusinessID: businessID,
		CustomerID: strings.TrimSpace(req.CustomerID),
		Date:       req.Date,
		Status:     model.StatusApproved,
		Notes:      strings.TrimSpace(req.Notes),
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if req.SlotID != "" {
		tmpl, err := h.schedule.GetSlotTemplate(ctx, businessID, req.SlotID)
		if err != nil {
			if storage.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "slot not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load slot")
			return
		}
		start, err := schedule.ParseClock(tmpl.StartTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "stored slot has an invalid start time")
			return
		}
		appt.SlotID = &tmpl.ID
		appt.Time = start.String()

		if err := h.bookings.EnsureDailyRow(ctx, tx, businessID, tmpl.ID, req.Date); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to prepare daily availability")
			return
		}
		if err := h.bookings.ReserveSlotCapacity(ctx, tx, businessID, tmpl.ID, req.Date); err != nil {
			writeReserveError(w, err)
			return
		}
	} else {
		t, err := schedule.ParseClock(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time required (HH:MM) when no slot_id is given")
			return
		}
		appt.Time = t.String()
	}

	if err := h.bookings.CreateAppointment(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "an active appointment already exists at this time")
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	if err := h.insertAppointmentEvent(ctx, tx, outbox.EventAppointmentBooked, appt); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusCreated, apptItem(*appt))
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
	Status        string `json:"status" validate:"required"`
}

func (h *OwnerHandler) Transition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	businessID := businessIDFromHeader(r)
	if businessID == "" {
		writeError(w, http.StatusUnauthorized, "X-Business-Id required")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transition payload: "+err.Error())
		return
	}
	next := model.AppointmentStatus(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.bookings.GetAppointmentForUpdate(ctx, tx, businessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}

	if appt.Status == next {
		writeJSON(w, http.StatusOK, apptItem(appt))
		return
	}
	if !model.TransitionAllowed(model.ActorOwner, appt.Status, next) {
		writeError(w, http.StatusConflict, "transition from "+string(appt.Status)+" to "+string(next)+" not allowed")
		return
	}

	if err := h.bookings.UpdateAppointmentStatus(ctx, tx, businessID, appt.ID, next); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	if appt.Status.Active() && !next.Active() && appt.SlotID != nil {
		if err := h.bookings.ReleaseSlotCapacity(ctx, tx, businessID, *appt.SlotID, appt.Date); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to release slot capacity")
			return
		}
	}

	appt.Status = next
	if err := h.insertAppointmentEvent(ctx, tx, transitionEventType(next), &appt); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, apptItem(appt))
}

// baseSlotsFor loads templates and the weekday's hours and computes the
// canonical slot list. On failure it writes the HTTP error itself and returns
// a non-nil error so callers just bail out.
func (h *OwnerHandler) baseSlotsFor(w http.ResponseWriter, r *http.Request, businessID, date string) ([]schedule.Slot, schedule.EmptyReason, error) {
	ctx := r.Context()
	weekday, err := schedule.Weekday(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return nil, schedule.EmptyReasonNone, err
	}

	templates, err := h.schedule.ListActiveSlotTemplates(ctx, businessID)
	if err != nil {
		h.logger.Error("list slot templates failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load slot templates")
		return nil, schedule.EmptyReasonNone, err
	}

	var hoursPtr *model.OperatingHours
	hours, ok, err := h.schedule.GetOperatingHours(ctx, businessID, weekday)
	if err != nil {
		h.logger.Error("get operating hours failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load operating hours")
		return nil, schedule.EmptyReasonNone, err
	}
	if ok {
		hoursPtr = &hours
	}

	base, reason, err := schedule.BaseSlots(templates, hoursPtr, schedule.DefaultSlotDurationMinutes)
	if err != nil {
		h.logger.Error("stored schedule data is malformed", "err", err, "business_id", businessID)
		writeError(w, http.StatusInternalServerError, "stored schedule data is malformed")
		return nil, schedule.EmptyReasonNone, err
	}
	return base, reason, nil
}

func (h *OwnerHandler) insertAppointmentEvent(ctx context.Context, tx pgx.Tx, eventType string, appt *model.Appointment) error {
	payload, err := appointmentEventPayload(appt)
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}
