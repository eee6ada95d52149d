package schedule

import "github.com/nearbook/nearbook/services/scheduling-service/internal/model"

// Customer-facing reasons a slot cannot be reserved right now.
const (
	ReasonNotOpened = "business has not opened this slot for this date"
	ReasonClosed    = "business marked this time closed"
	ReasonFull      = "slot full"
)

// BookableSlot is the customer view of one slot on one date.
type BookableSlot struct {
	SlotID     string
	Name       string
	Start      Clock
	End        Clock
	IsBookable bool
	Reason     string // empty when bookable
	Remaining  int    // capacity units left when bookable
}

// ResolveBookable computes what a customer may reserve. Only persisted slots
// participate: an owner's unsaved draft has no daily row and must never be
// shown to customers. Unlike the owner view, a slot with no daily row is NOT
// bookable — the business has not opened that slot for the date.
func ResolveBookable(base []Slot, rows []model.DailySlotAvailability) []BookableSlot {
	bySlot := make(map[string]model.DailySlotAvailability, len(rows))
	for _, row := range rows {
		bySlot[row.SlotID] = row
	}

	out := make([]BookableSlot, 0, len(base))
	for _, s := range base {
		if s.TemplateID == "" {
			continue
		}
		bs := BookableSlot{
			SlotID: s.TemplateID,
			Name:   s.Name,
			Start:  s.Start,
			End:    s.End,
		}
		row, ok := bySlot[s.TemplateID]
		switch {
		case !ok:
			bs.Reason = ReasonNotOpened
		case !row.IsAvailable:
			bs.Reason = ReasonClosed
		case row.CurrentAppts >= row.MaxAppointments:
			bs.Reason = ReasonFull
		default:
			bs.IsBookable = true
			bs.Remaining = row.MaxAppointments - row.CurrentAppts
		}
		out = append(out, bs)
	}
	return out
}
