package model

// SlotTemplate is a named fixed time-of-day interval defined once per
// business and reused across dates. Templates synthesized from operating
// hours have an empty ID until the owner saves them; the ID is a
// client-generated UUID assigned just before insert so drafts correlate
// exactly with their persisted rows.
type SlotTemplate struct {
	ID            string
	BusinessID    string
	SlotName      string
	StartTime     string // "HH:MM"
	EndTime       string // "HH:MM"
	DurationMins  int
	MaxConcurrent int
	IsActive      bool
}
