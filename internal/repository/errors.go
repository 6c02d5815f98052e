// Package repository defines error types shared across repositories.
// Sentinel values let higher layers distinguish failure scenarios with
// errors.Is, while ConflictError carries the per-seat detail the API
// layer needs to tell a client exactly which selections failed.
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrShowtimeNotFound indicates the showtime does not exist in the
// catalog reference data.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrHoldNotFound indicates no hold exists with the given id.
var ErrHoldNotFound = errors.New("hold not found")

// ErrBookingNotFound indicates no booking exists with the given id.
var ErrBookingNotFound = errors.New("booking not found")

// ConflictError is returned by the seat ledger when an atomic
// compare-and-set finds at least one seat whose current state does not
// match the expected state.  Nothing is applied; the caller must roll
// back its transaction.  The error is always recoverable: the caller
// can re-read seat states and retry with a smaller set, or report the
// conflicting seats to the client.
type ConflictError struct {
	Seats []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seat state conflict: [%s]", strings.Join(e.Seats, ","))
}
