package schedule

import (
	"fmt"
	"sort"

	"github.com/nearbook/nearbook/services/scheduling-service/internal/model"
)

// DefaultSlotDurationMinutes is used when synthesizing slots from operating
// hours for a business that has not configured explicit templates.
const DefaultSlotDurationMinutes = 60

// EmptyReason explains a day with zero slots. It is user-facing copy, not an
// error: a closed or unconfigured day is a normal state.
type EmptyReason string

const (
	EmptyReasonNone            EmptyReason = ""
	EmptyReasonNoHours         EmptyReason = "no operating hours configured for this weekday"
	EmptyReasonClosed          EmptyReason = "business is closed on this day"
	EmptyReasonIncompleteHours EmptyReason = "operating hours are missing an open or close time"
	EmptyReasonWindowTooShort  EmptyReason = "operating hours window is shorter than one slot"
)

// Slot is one bookable interval of a business day, either backed by a
// persisted template (TemplateID set) or synthesized from operating hours
// (IsNew set, no id until the owner saves).
type Slot struct {
	TemplateID    string
	Name          string
	Start         Clock
	End           Clock
	DurationMins  int
	MaxConcurrent int
	IsNew         bool
}

// BaseSlots produces the canonical ordered slot list for a day. Persisted
// active templates always win over synthesis, regardless of date. With no
// templates, the weekday's operating-hours window is cut into fixed-duration
// chunks; a trailing partial chunk is discarded.
//
// An error is returned only for malformed stored time strings; a genuinely
// empty day returns (nil, reason, nil).
func BaseSlots(templates []model.SlotTemplate, hours *model.OperatingHours, durationMins int) ([]Slot, EmptyReason, error) {
	if len(templates) > 0 {
		slots := make([]Slot, 0, len(templates))
		for _, t := range templates {
			start, err := ParseClock(t.StartTime)
			if err != nil {
				return nil, EmptyReasonNone, fmt.Errorf("template %s: %w", t.ID, err)
			}
			end, err := ParseClock(t.EndTime)
			if err != nil {
				return nil, EmptyReasonNone, fmt.Errorf("template %s: %w", t.ID, err)
			}
			maxConcurrent := t.MaxConcurrent
			if maxConcurrent < 1 {
				maxConcurrent = 1
			}
			slots = append(slots, Slot{
				TemplateID:    t.ID,
				Name:          t.SlotName,
				Start:         start,
				End:           end,
				DurationMins:  t.DurationMins,
				MaxConcurrent: maxConcurrent,
			})
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
		return slots, EmptyReasonNone, nil
	}

	if hours == nil {
		return nil, EmptyReasonNoHours, nil
	}
	if hours.IsClosed {
		return nil, EmptyReasonClosed, nil
	}
	if hours.OpenTime == nil || hours.CloseTime == nil {
		return nil, EmptyReasonIncompleteHours, nil
	}

	open, err := ParseClock(*hours.OpenTime)
	if err != nil {
		return nil, EmptyReasonNone, fmt.Errorf("open time: %w", err)
	}
	close, err := ParseClock(*hours.CloseTime)
	if err != nil {
		return nil, EmptyReasonNone, fmt.Errorf("close time: %w", err)
	}
	if durationMins <= 0 {
		durationMins = DefaultSlotDurationMinutes
	}

	var slots []Slot
	for start := open; start.Add(durationMins) <= close; start = start.Add(durationMins) {
		end := start.Add(durationMins)
		slots = append(slots, Slot{
			Name:          SlotName(start, end),
			Start:         start,
			End:           end,
			DurationMins:  durationMins,
			MaxConcurrent: 1,
			IsNew:         true,
		})
	}
	if len(slots) == 0 {
		// Open and close are both set, the window is just too short for one
		// slot. Never invent a partial slot past closing time.
		return nil, EmptyReasonWindowTooShort, nil
	}
	return slots, EmptyReasonNone, nil
}
