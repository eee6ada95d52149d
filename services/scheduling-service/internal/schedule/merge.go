package schedule

import "github.com/nearbook/nearbook/services/scheduling-service/internal/model"

// DaySlot is a base slot joined with its daily availability row, ready for
// the owner's day view.
type DaySlot struct {
	Slot
	IsAvailable     bool
	MaxAppointments int
	CurrentAppts    int
	HasOverride     bool
}

// MergeDaily joins base slots with the day's availability rows by slot id.
// A slot without a row defaults to open with the template's own capacity
// ceiling and a zero booking count; a row's values always win.
func MergeDaily(base []Slot, rows []model.DailySlotAvailability) []DaySlot {
	bySlot := make(map[string]model.DailySlotAvailability, len(rows))
	for _, row := range rows {
		bySlot[row.SlotID] = row
	}

	out := make([]DaySlot, 0, len(base))
	for _, s := range base {
		ds := DaySlot{
			Slot:            s,
			IsAvailable:     true,
			MaxAppointments: s.MaxConcurrent,
		}
		if ds.MaxAppointments < 1 {
			ds.MaxAppointments = 1
		}
		if row, ok := bySlot[s.TemplateID]; ok && s.TemplateID != "" {
			ds.IsAvailable = row.IsAvailable
			if row.MaxAppointments > 0 {
				ds.MaxAppointments = row.MaxAppointments
			}
			ds.CurrentAppts = row.CurrentAppts
			ds.HasOverride = true
		}
		out = append(out, ds)
	}
	return out
}
