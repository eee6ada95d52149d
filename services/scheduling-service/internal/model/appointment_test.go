package model

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRejected, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestCustomerMayOnlyCancel(t *testing.T) {
	if TransitionAllowed(ActorCustomer, StatusPending, StatusApproved) {
		t.Fatal("customer must not approve")
	}
	if !TransitionAllowed(ActorCustomer, StatusPending, StatusCancelled) {
		t.Fatal("customer should cancel a pending appointment")
	}
	if !TransitionAllowed(ActorCustomer, StatusApproved, StatusCancelled) {
		t.Fatal("customer should cancel an approved appointment")
	}
	if !TransitionAllowed(ActorOwner, StatusPending, StatusRejected) {
		t.Fatal("owner should reject a pending appointment")
	}
}

func TestActiveStatuses(t *testing.T) {
	for _, s := range []AppointmentStatus{StatusPending, StatusApproved, StatusCompleted} {
		if !s.Active() {
			t.Errorf("%s should hold its slot", s)
		}
	}
	for _, s := range InactiveStatuses {
		if s.Active() {
			t.Errorf("%s should release its slot", s)
		}
	}
}
