// Package booking implements the seat-booking core: creating and
// releasing time-boxed seat holds, finalizing holds into bookings,
// cancelling bookings before showtime start, and sweeping expired
// holds.  All seat state changes flow through the seat ledger's atomic
// compare-and-set, so two requesters can never both claim the same
// seat.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSeats is returned when a hold request names no valid seats.
var ErrNoSeats = errors.New("no seats requested")

// ErrHoldExpired is returned when a hold's TTL elapsed before finalize
// or extend.  The flow cannot be resumed; the requester must start over
// with a fresh hold.
var ErrHoldExpired = errors.New("hold expired")

// ErrNotAuthorized is returned when a hold or booking belongs to a
// different requester.
var ErrNotAuthorized = errors.New("not authorized")

// ErrBookingNotCancellable is returned when the showtime has already
// started or the booking is already cancelled.
var ErrBookingNotCancellable = errors.New("booking not cancellable")

// ErrShowtimeNotBookable is returned when the showtime is cancelled,
// finished, or has already started.
var ErrShowtimeNotBookable = errors.New("showtime not open for booking")

// SeatsUnavailableError reports which requested seats could not be
// held, either because they were not AVAILABLE when read or because a
// concurrent request won the atomic claim.  The listing is per-seat so
// clients can re-render exactly the selections that failed and retry
// with the rest.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: [%s]", strings.Join(e.Seats, ","))
}
