package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsConflict(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "uq_appointments_active_time"}
	if !IsConflict(unique) {
		t.Fatal("unique violation must classify as conflict")
	}
	if !IsConflict(fmt.Errorf("insert appointment: %w", unique)) {
		t.Fatal("wrapped unique violation must classify as conflict")
	}
	if IsConflict(&pgconn.PgError{Code: "23514"}) {
		t.Fatal("check violation must not classify as conflict")
	}
	if IsConflict(errors.New("boom")) {
		t.Fatal("plain error must not classify as conflict")
	}
}

func TestIsCheckViolation(t *testing.T) {
	check := &pgconn.PgError{Code: "23514", ConstraintName: "daily_slot_availability_check"}
	if !IsCheckViolation(check) {
		t.Fatal("check violation must classify as such")
	}
	if !IsCheckViolation(fmt.Errorf("upsert availability: %w", check)) {
		t.Fatal("wrapped check violation must classify as such")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation must not classify as check violation")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(pgx.ErrNoRows) {
		t.Fatal("pgx.ErrNoRows must classify as not found")
	}
	if !IsNotFound(fmt.Errorf("load appointment: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped pgx.ErrNoRows must classify as not found")
	}
	if IsNotFound(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("a constraint violation is not a missing row")
	}
}

// The reservation sentinels drive distinct user-facing messages; if two ever
// alias each other the handler would report the wrong refusal reason.
func TestReserveSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrSlotNotOpen, ErrSlotClosed, ErrSlotFull}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v must not match %v", a, b)
			}
		}
	}
}
