package schedule

import (
	"testing"

	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
)

func strPtr(s string) *string { return &s }

func openHours(open, close string) *model.OperatingHours {
	return &model.OperatingHours{
		BusinessID: "biz-1",
		Weekday:    1,
		OpenTime:   strPtr(open),
		CloseTime:  strPtr(close),
	}
}

func TestSynthesizedSlotCount(t *testing.T) {
	cases := []struct {
		open, close string
		duration    int
		want        int
	}{
		{"09:00", "17:00", 60, 8},
		{"09:00", "17:00", 30, 16},
		{"09:00", "17:30", 60, 8}, // trailing partial slot discarded
		{"09:15", "10:15", 60, 1},
		{"09:00", "09:59", 60, 0},
	}
	for _, c := range cases {
		slots, reason, err := BaseSlots(nil, openHours(c.open, c.close), c.duration)
		if err != nil {
			t.Fatalf("[%s-%s/%d] BaseSlots: %v", c.open, c.close, c.duration, err)
		}
		if len(slots) != c.want {
			t.Errorf("[%s-%s/%d] expected %d slots, got %d", c.open, c.close, c.duration, c.want, len(slots))
		}
		if c.want == 0 && reason == EmptyReasonNone {
			t.Errorf("[%s-%s/%d] expected a reason for zero slots", c.open, c.close, c.duration)
		}
	}
}

func TestSynthesizedSlotsShape(t *testing.T) {
	slots, reason, err := BaseSlots(nil, openHours("09:00", "17:00"), 60)
	if err != nil {
		t.Fatalf("BaseSlots: %v", err)
	}
	if reason != EmptyReasonNone {
		t.Fatalf("unexpected reason %q", reason)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	if slots[0].Name != "09:00 - 10:00" || slots[7].Name != "16:00 - 17:00" {
		t.Fatalf("unexpected boundary names: %q %q", slots[0].Name, slots[7].Name)
	}
	close, _ := ParseClock("17:00")
	for i, s := range slots {
		if s.End-s.Start != 60 {
			t.Errorf("slot %d is not 60 minutes", i)
		}
		if s.End > close {
			t.Errorf("slot %d extends past closing time", i)
		}
		if i > 0 && slots[i-1].End != s.Start {
			t.Errorf("slots %d and %d overlap or leave a gap", i-1, i)
		}
		if !s.IsNew || s.TemplateID != "" {
			t.Errorf("synthesized slot %d must be marked new and unpersisted", i)
		}
		if s.MaxConcurrent != 1 {
			t.Errorf("synthesized slot %d must default to capacity 1", i)
		}
	}
}

func TestEmptyDayReasons(t *testing.T) {
	slots, reason, err := BaseSlots(nil, nil, 60)
	if err != nil || len(slots) != 0 {
		t.Fatalf("missing hours row: slots=%d err=%v", len(slots), err)
	}
	if reason != EmptyReasonNoHours {
		t.Fatalf("expected no-hours reason, got %q", reason)
	}

	slots, reason, err = BaseSlots(nil, &model.OperatingHours{IsClosed: true}, 60)
	if err != nil || len(slots) != 0 {
		t.Fatalf("closed day: slots=%d err=%v", len(slots), err)
	}
	if reason != EmptyReasonClosed {
		t.Fatalf("expected closed reason, got %q", reason)
	}

	slots, reason, err = BaseSlots(nil, &model.OperatingHours{OpenTime: strPtr("09:00")}, 60)
	if err != nil || len(slots) != 0 {
		t.Fatalf("incomplete hours: slots=%d err=%v", len(slots), err)
	}
	if reason != EmptyReasonIncompleteHours {
		t.Fatalf("expected incomplete reason, got %q", reason)
	}

	// Complete hours but a window shorter than one slot is its own state,
	// not a claim that times are missing.
	slots, reason, err = BaseSlots(nil, openHours("09:00", "09:59"), 60)
	if err != nil || len(slots) != 0 {
		t.Fatalf("short window: slots=%d err=%v", len(slots), err)
	}
	if reason != EmptyReasonWindowTooShort {
		t.Fatalf("expected too-short reason, got %q", reason)
	}
}

func TestExplicitTemplatesWinOverSynthesis(t *testing.T) {
	templates := []model.SlotTemplate{
		{ID: "t2", SlotName: "Afternoon", StartTime: "14:00", EndTime: "15:30", DurationMins: 90, MaxConcurrent: 3, IsActive: true},
		{ID: "t1", SlotName: "Morning", StartTime: "10:00", EndTime: "11:00", DurationMins: 60, MaxConcurrent: 2, IsActive: true},
	}
	slots, reason, err := BaseSlots(templates, openHours("09:00", "17:00"), 60)
	if err != nil {
		t.Fatalf("BaseSlots: %v", err)
	}
	if reason != EmptyReasonNone {
		t.Fatalf("unexpected reason %q", reason)
	}
	if len(slots) != 2 {
		t.Fatalf("expected templates verbatim, got %d slots", len(slots))
	}
	if slots[0].TemplateID != "t1" || slots[1].TemplateID != "t2" {
		t.Fatalf("expected ascending start order, got %s then %s", slots[0].TemplateID, slots[1].TemplateID)
	}
	if slots[0].IsNew || slots[1].IsNew {
		t.Fatal("persisted templates must not be marked new")
	}
	if slots[1].MaxConcurrent != 3 {
		t.Fatalf("template capacity not carried: %d", slots[1].MaxConcurrent)
	}
}

func TestMalformedTemplateTimeFailsLoudly(t *testing.T) {
	templates := []model.SlotTemplate{
		{ID: "t1", SlotName: "Bad", StartTime: "whenever", EndTime: "11:00", IsActive: true},
	}
	if _, _, err := BaseSlots(templates, nil, 60); err == nil {
		t.Fatal("expected error for malformed stored time")
	}
}

func TestUniqueNamesWithinDay(t *testing.T) {
	slots, _, err := BaseSlots(nil, openHours("08:00", "20:00"), 45)
	if err != nil {
		t.Fatalf("BaseSlots: %v", err)
	}
	seen := make(map[string]bool)
	for _, s := range slots {
		if seen[s.Name] {
			t.Fatalf("duplicate slot name %q", s.Name)
		}
		seen[s.Name] = true
	}
}
