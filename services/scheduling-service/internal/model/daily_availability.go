package model

// DailySlotAvailability overrides and tracks one (business, slot, date)
// triple: owner openness override, per-day capacity ceiling, and the live
// booking count. Rows are created lazily and never deleted; the storage
// layer guarantees current <= max at all times.
type DailySlotAvailability struct {
	ID              int64
	BusinessID      string
	SlotID          string
	Date            string // "YYYY-MM-DD"
	IsAvailable     bool
	MaxAppointments int
	CurrentAppts    int
}
