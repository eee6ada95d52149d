package model

import "time"

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusRejected  AppointmentStatus = "rejected"
)

// InactiveStatuses do not count against a slot's capacity and do not block
// other appointments at the same business/date/time.
var InactiveStatuses = []AppointmentStatus{StatusCancelled, StatusRejected}

type Appointment struct {
	ID         string
	BusinessID string
	CustomerID string
	Date       string  // "YYYY-MM-DD"
	SlotID     *string // nil for legacy free-form bookings
	Time       string  // "HH:MM", denormalized slot start for display/sorting
	Status     AppointmentStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Active reports whether the appointment holds its slot: terminal declined
// states release capacity and stop blocking the time.
func (s AppointmentStatus) Active() bool {
	return s != StatusCancelled && s != StatusRejected
}

// CanTransition encodes the appointment lifecycle:
// pending -> approved | rejected | cancelled
// approved -> completed | cancelled
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusCancelled
	case StatusApproved:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Actor is who is requesting a status transition.
type Actor string

const (
	ActorOwner    Actor = "owner"
	ActorCustomer Actor = "customer"
)

// TransitionAllowed additionally restricts transitions by role: the owner
// drives approval, rejection and completion; customers may only cancel their
// own pending or approved appointments.
func TransitionAllowed(actor Actor, from, to AppointmentStatus) bool {
	if !from.CanTransition(to) {
		return false
	}
	if actor == ActorCustomer {
		return to == StatusCancelled
	}
	return true
}
