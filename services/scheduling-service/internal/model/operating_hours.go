package model

// OperatingHours is one weekly template row: when a business operates on a
// given weekday (0 = Sunday ... 6 = Saturday). Open/close are "HH:MM" clock
// strings and are nil when the day is closed or not yet configured.
type OperatingHours struct {
	BusinessID string
	Weekday    int
	OpenTime   *string
	CloseTime  *string
	IsClosed   bool
}
