package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Expected booking failures, classified so handlers can answer with the
// right user-facing message instead of a generic store error.
var (
	// ErrSlotNotOpen: no daily availability row exists — the business has
	// not opened the slot for that date.
	ErrSlotNotOpen = errors.New("slot not opened for this date")
	// ErrSlotClosed: the owner marked the slot unavailable for that date.
	ErrSlotClosed = errors.New("slot marked closed for this date")
	// ErrSlotFull: the capacity ceiling is already reached.
	ErrSlotFull = errors.New("slot full")
)

// IsConflict reports a unique-constraint violation, which for appointments
// means another active appointment already holds the business/date/time.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsCheckViolation reports a CHECK constraint failure, e.g. lowering a
// slot's daily capacity below its current booking count.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
