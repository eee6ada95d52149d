package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/outbox"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/schedule"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scheduling-service/handlers")

// PublicHandler serves the customer-facing endpoints: browsing a business's
// bookable slots, booking one, and cancelling an own appointment. Customer
// identity arrives as X-Customer-Id from the auth layer.
type PublicHandler struct {
	schedule   *storage.ScheduleRepository
	bookings   *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewPublicHandler(scheduleRepo *storage.ScheduleRepository, bookingRepo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		schedule:   scheduleRepo,
		bookings:   bookingRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func customerIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Customer-Id"))
}

type bookableSlotItem struct {
	SlotID     string `json:"slot_id"`
	SlotName   string `json:"slot_name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsBookable bool   `json:"is_bookable"`
	Reason     string `json:"reason,omitempty"`
	Remaining  int    `json:"remaining,omitempty"`
}

type publicSlotsResponse struct {
	BusinessID string             `json:"business_id"`
	Date       string             `json:"date"`
	Reason     string             `json:"reason,omitempty"`
	Slots      []bookableSlotItem `json:"slots"`
}

// Slots lists what a customer may book at a business on a date. Only
// persisted templates participate; an owner's unsaved drafts never show here.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if businessID == "" {
		writeError(w, http.StatusBadRequest, "business_id required")
		return
	}
	if !schedule.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	templates, err := h.schedule.ListActiveSlotTemplates(ctx, businessID)
	if err != nil {
		h.logger.Error("list slot templates failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load slots")
		return
	}

	base, _, err := schedule.BaseSlots(templates, nil, 0)
	if err != nil {
		h.logger.Error("stored schedule data is malformed", "err", err, "business_id", businessID)
		writeError(w, http.StatusInternalServerError, "stored schedule data is malformed")
		return
	}
	if len(base) == 0 {
		writeJSON(w, http.StatusOK, publicSlotsResponse{
			BusinessID: businessID,
			Date:       date,
			Reason:     "this business has no bookable slots",
			Slots:      []bookableSlotItem{},
		})
		return
	}

	rows, err := h.schedule.ListDailyAvailability(ctx, businessID, date, persistedSlotIDs(base))
	if err != nil {
		h.logger.Error("list daily availability failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	resolved := schedule.ResolveBookable(base, rows)
	items := make([]bookableSlotItem, 0, len(resolved))
	for _, s := range resolved {
		items = append(items, bookableSlotItem{
			SlotID:     s.SlotID,
			SlotName:   s.Name,
			StartTime:  s.Start.String(),
			EndTime:    s.End.String(),
			IsBookable: s.IsBookable,
			Reason:     s.Reason,
			Remaining:  s.Remaining,
		})
	}
	writeJSON(w, http.StatusOK, publicSlotsResponse{BusinessID: businessID, Date: date, Slots: items})
}

type bookRequest struct {
	BusinessID string `json:"business_id" validate:"required,max=120"`
	SlotID     string `json:"slot_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// Book reserves one capacity unit and creates the appointment in a single
// transaction. Capacity is taken with a conditional update, so two customers
// racing for the last unit cannot both win; one gets a 409 and picks another
// slot.
func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	customerID := customerIDFromHeader(r)
	if customerID == "" {
		writeError(w, http.StatusUnauthorized, "X-Customer-Id required")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking payload: "+err.Error())
		return
	}
	if !schedule.ValidDate(req.Date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	ctx, span := tracer.Start(r.Context(), "public.book", trace.WithAttributes(
		attribute.String("business.id", req.BusinessID),
		attribute.String("slot.id", req.SlotID),
		attribute.String("booking.date", req.Date),
	))
	defer span.End()

	tmpl, err := h.schedule.GetSlotTemplate(ctx, req.BusinessID, req.SlotID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "slot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load slot")
		return
	}
	if !tmpl.IsActive {
		writeError(w, http.StatusConflict, schedule.ReasonNotOpened)
		return
	}
	start, err := schedule.ParseClock(tmpl.StartTime)
	if err != nil {
		h.logger.Error("stored slot has an invalid start time", "err", err, "slot_id", tmpl.ID)
		writeError(w, http.StatusInternalServerError, "stored slot has an invalid start time")
		return
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.bookings.ReserveSlotCapacity(ctx, tx, req.BusinessID, req.SlotID, req.Date); err != nil {
		writeReserveError(w, err)
		return
	}

	appt := &model.Appointment{
		BusinessID: req.BusinessID,
		CustomerID: customerID,
		Date:       req.Date,
		SlotID:     &tmpl.ID,
		Time:       start.String(),
		Status:     model.StatusPending,
		Notes:      strings.TrimSpace(req.Notes),
	}
	if err := h.bookings.CreateAppointment(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "this time was just booked, please choose another slot")
			return
		}
		h.logger.Error("create appointment failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	payload, err := appointmentEventPayload(appt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentBooked,
		Payload:       payload,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	span.SetAttributes(attribute.String("appointment.id", appt.ID))
	writeJSON(w, http.StatusCreated, apptItem(*appt))
}

type publicCancelRequest struct {
	BusinessID    string `json:"business_id" validate:"required,max=120"`
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

// Cancel lets a customer cancel their own pending or approved appointment.
// Cancelling an already-cancelled appointment is idempotent.
func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	customerID := customerIDFromHeader(r)
	if customerID == "" {
		writeError(w, http.StatusUnauthorized, "X-Customer-Id required")
		return
	}

	var req publicCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid cancel payload: "+err.Error())
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.bookings.GetAppointmentForUpdate(ctx, tx, req.BusinessID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if appt.CustomerID != customerID {
		// Same response as not-found so customers cannot probe other
		// customers' appointment ids.
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	if appt.Status == model.StatusCancelled {
		writeJSON(w, http.StatusOK, apptItem(appt))
		return
	}
	if !model.TransitionAllowed(model.ActorCustomer, appt.Status, model.StatusCancelled) {
		writeError(w, http.StatusConflict, "appointment cannot be cancelled")
		return
	}

	if err := h.bookings.UpdateAppointmentStatus(ctx, tx, req.BusinessID, appt.ID, model.StatusCancelled); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}
	if appt.SlotID != nil {
		if err := h.bookings.ReleaseSlotCapacity(ctx, tx, req.BusinessID, *appt.SlotID, appt.Date); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to release slot capacity")
			return
		}
	}

	appt.Status = model.StatusCancelled
	payload, err := appointmentEventPayload(&appt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     outbox.EventAppointmentCancelled,
		Payload:       payload,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}
	writeJSON(w, http.StatusOK, apptItem(appt))
}
