package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/outbox"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/schedule"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/storage"
)

func TestTransitionEventType(t *testing.T) {
	cases := []struct {
		status model.AppointmentStatus
		want   string
	}{
		{model.StatusApproved, outbox.EventAppointmentApproved},
		{model.StatusRejected, outbox.EventAppointmentRejected},
		{model.StatusCompleted, outbox.EventAppointmentCompleted},
		{model.StatusCancelled, outbox.EventAppointmentCancelled},
	}
	for _, c := range cases {
		if got := transitionEventType(c.status); got != c.want {
			t.Errorf("transitionEventType(%s) = %s, want %s", c.status, got, c.want)
		}
	}
}

func TestWriteReserveErrorMapsConflicts(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantReason string
	}{
		{storage.ErrSlotNotOpen, http.StatusConflict, schedule.ReasonNotOpened},
		{storage.ErrSlotClosed, http.StatusConflict, schedule.ReasonClosed},
		{storage.ErrSlotFull, http.StatusConflict, schedule.ReasonFull},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeReserveError(rec, c.err)
		if rec.Code != c.wantStatus {
			t.Errorf("status for %v = %d, want %d", c.err, rec.Code, c.wantStatus)
		}
		if !strings.Contains(rec.Body.String(), c.wantReason) {
			t.Errorf("body for %v = %q, want it to mention %q", c.err, rec.Body.String(), c.wantReason)
		}
	}
}

func TestNormalizeClockStripsSeconds(t *testing.T) {
	if got := normalizeClock("09:30:00"); got != "09:30" {
		t.Errorf("normalizeClock(09:30:00) = %q, want 09:30", got)
	}
	if got := normalizeClock("09:30"); got != "09:30" {
		t.Errorf("normalizeClock(09:30) = %q, want 09:30", got)
	}
	// malformed values pass through untouched
	if got := normalizeClock("garbage"); got != "garbage" {
		t.Errorf("normalizeClock(garbage) = %q", got)
	}
}

func TestOwnerEndpointsRequireBusinessID(t *testing.T) {
	h := NewOwnerHandler(nil, nil, nil, nil)
	endpoints := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{"hours", http.MethodGet, h.Hours},
		{"slot-templates", http.MethodGet, h.SlotTemplates},
		{"day", http.MethodGet, h.Day},
		{"appointments", http.MethodGet, h.Appointments},
		{"transition", http.MethodPost, h.Transition},
	}
	for _, ep := range endpoints {
		req := httptest.NewRequest(ep.method, "/", nil)
		rec := httptest.NewRecorder()
		ep.handler(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without X-Business-Id: status = %d, want 401", ep.name, rec.Code)
		}
	}
}

func TestOwnerEndpointsRejectWrongMethod(t *testing.T) {
	h := NewOwnerHandler(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-Business-Id", "biz-1")
	rec := httptest.NewRecorder()
	h.Hours(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE hours: status = %d, want 405", rec.Code)
	}
}

func TestPutHoursRejectsBadPayloads(t *testing.T) {
	h := NewOwnerHandler(nil, nil, nil, nil)
	cases := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"empty days", `{"days":[]}`},
		{"day out of range", `{"days":[{"day_of_week":7,"is_closed":true}]}`},
		{"open day missing times", `{"days":[{"day_of_week":1,"is_closed":false}]}`},
		{"close before open", `{"days":[{"day_of_week":1,"open_time":"17:00","close_time":"09:00"}]}`},
		{"duplicate day", `{"days":[{"day_of_week":1,"is_closed":true},{"day_of_week":1,"is_closed":true}]}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/hours", strings.NewReader(c.body))
		req.Header.Set("X-Business-Id", "biz-1")
		rec := httptest.NewRecorder()
		h.Hours(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestSaveDayRejectsBadPayloads(t *testing.T) {
	h := NewOwnerHandler(nil, nil, nil, nil)
	cases := []struct {
		name string
		body string
	}{
		{"bad date", `{"date":"01-02-2026","slots":[{"start_time":"09:00","end_time":"10:00","max_appointments_in_slot":1}]}`},
		{"no slots", `{"date":"2026-02-01","slots":[]}`},
		{"zero capacity", `{"date":"2026-02-01","slots":[{"start_time":"09:00","end_time":"10:00","max_appointments_in_slot":0}]}`},
		{"end before start", `{"date":"2026-02-01","slots":[{"start_time":"10:00","end_time":"09:00","max_appointments_in_slot":1}]}`},
		{"bad slot id", `{"date":"2026-02-01","slots":[{"slot_id":"not-a-uuid","start_time":"09:00","end_time":"10:00","max_appointments_in_slot":1}]}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/day", strings.NewReader(c.body))
		req.Header.Set("X-Business-Id", "biz-1")
		rec := httptest.NewRecorder()
		h.Day(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestMaterializeDaySlotDefaultsDraftValues(t *testing.T) {
	entry, err := materializeDaySlot("biz-1", saveDaySlot{
		StartTime:   "09:00",
		EndTime:     "10:00",
		IsAvailable: true,
		MaxAppts:    2,
		IsNew:       true,
	})
	if err != nil {
		t.Fatalf("materializeDaySlot: %v", err)
	}
	if entry.newTemplate == nil {
		t.Fatal("draft slot must materialize a template")
	}
	if entry.newTemplate.SlotName != "09:00 - 10:00" || entry.newTemplate.DurationMins != 60 {
		t.Fatalf("template defaults = %q/%d, want 09:00 - 10:00/60",
			entry.newTemplate.SlotName, entry.newTemplate.DurationMins)
	}
	// The response item must carry the persisted defaults, not the empty
	// request values.
	if entry.item.SlotName != entry.newTemplate.SlotName {
		t.Fatalf("item name %q does not match template name %q", entry.item.SlotName, entry.newTemplate.SlotName)
	}
	if entry.item.DurationMins != entry.newTemplate.DurationMins {
		t.Fatalf("item duration %d does not match template duration %d",
			entry.item.DurationMins, entry.newTemplate.DurationMins)
	}
	if entry.item.SlotID != entry.newTemplate.ID || entry.slotID != entry.newTemplate.ID {
		t.Fatal("item and entry must carry the assigned template id")
	}
}

func TestMaterializeDaySlotKeepsExistingID(t *testing.T) {
	const id = "b54ee6a2-8d07-4a52-9a5c-1fdae9d9e1a4"
	entry, err := materializeDaySlot("biz-1", saveDaySlot{
		SlotID:      id,
		SlotName:    "Morning",
		StartTime:   "09:00",
		EndTime:     "10:00",
		IsAvailable: false,
		MaxAppts:    3,
	})
	if err != nil {
		t.Fatalf("materializeDaySlot: %v", err)
	}
	if entry.newTemplate != nil {
		t.Fatal("persisted slot must not materialize a new template")
	}
	if entry.slotID != id || entry.item.SlotID != id {
		t.Fatalf("slot id not preserved: %s / %s", entry.slotID, entry.item.SlotID)
	}
	if entry.item.IsAvailable || entry.item.MaxAppts != 3 {
		t.Fatalf("override values not carried: available=%v max=%d", entry.item.IsAvailable, entry.item.MaxAppts)
	}
}

func TestPublicBookRequiresCustomerID(t *testing.T) {
	h := NewPublicHandler(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book",
		strings.NewReader(`{"business_id":"biz-1","slot_id":"b54ee6a2-8d07-4a52-9a5c-1fdae9d9e1a4","date":"2026-02-01"}`))
	rec := httptest.NewRecorder()
	h.Book(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("book without X-Customer-Id: status = %d, want 401", rec.Code)
	}
}

func TestPublicBookRejectsBadPayloads(t *testing.T) {
	h := NewPublicHandler(nil, nil, nil, nil)
	cases := []struct {
		name string
		body string
	}{
		{"missing slot", `{"business_id":"biz-1","date":"2026-02-01"}`},
		{"slot not uuid", `{"business_id":"biz-1","slot_id":"x","date":"2026-02-01"}`},
		{"bad date", `{"business_id":"biz-1","slot_id":"b54ee6a2-8d07-4a52-9a5c-1fdae9d9e1a4","date":"tomorrow"}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(c.body))
		req.Header.Set("X-Customer-Id", "cust-1")
		rec := httptest.NewRecorder()
		h.Book(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestPublicSlotsValidatesQuery(t *testing.T) {
	h := NewPublicHandler(nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?date=2026-02-01", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing business_id: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?business_id=biz-1&date=bad", nil)
	rec = httptest.NewRecorder()
	h.Slots(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}
}
