package model

import "time"

// HoldStatus tracks the lifecycle of a hold.  A hold starts ACTIVE and
// ends in exactly one of the three terminal states: CONSUMED when it
// was finalized into a booking, RELEASED when the requester gave it up,
// EXPIRED when the sweeper reclaimed it after its TTL.
type HoldStatus string

const (
	HoldActive   HoldStatus = "ACTIVE"
	HoldConsumed HoldStatus = "CONSUMED"
	HoldReleased HoldStatus = "RELEASED"
	HoldExpired  HoldStatus = "EXPIRED"
)

// Hold is a requester's temporary exclusive claim over a set of seats
// for one showtime.  While a hold is ACTIVE and within its TTL, no
// other requester can hold or book any of its seats.  A hold never
// survives past ExpiresAt in ACTIVE state: finalize rejects it by
// timestamp even before the sweeper has run.
//
// Fields:
//  ID          – uuid identifier, also the seat ledger's owner key.
//  RequesterID – user who created the hold.
//  ShowtimeID  – showtime the seats belong to.
//  Status      – current HoldStatus.
//  ExpiresAt   – absolute expiry (created_at + hold TTL).
//  CreatedAt   – creation timestamp.
//  Seats       – held seats with their price snapshot.
type Hold struct {
	ID          string     // holds.id (uuid)
	RequesterID uint64     // holds.requester_id
	ShowtimeID  uint64     // holds.showtime_id
	Status      HoldStatus // holds.status
	ExpiresAt   time.Time  // holds.expires_at
	CreatedAt   time.Time  // holds.created_at
	Seats       []HoldSeat // holds -> hold_seats
}

// HoldSeat pins one seat to a hold together with the price at hold
// time.  The snapshot is what the finalizer sums into the booking
// total, so later catalog price changes do not affect an open checkout.
type HoldSeat struct {
	HoldID     string // hold_seats.hold_id
	SeatLabel  string // hold_seats.seat_label
	PriceCents uint32 // hold_seats.price_cents
}

// SeatLabels returns the labels of all seats in the hold, in storage order.
func (h *Hold) SeatLabels() []string {
	labels := make([]string, 0, len(h.Seats))
	for _, s := range h.Seats {
		labels = append(labels, s.SeatLabel)
	}
	return labels
}

// TotalCents sums the price snapshots of all seats in the hold.  The
// accumulator is wider than the per-seat price so the sum cannot wrap.
func (h *Hold) TotalCents() uint64 {
	var total uint64
	for _, s := range h.Seats {
		total += uint64(s.PriceCents)
	}
	return total
}

// ExpiredAt reports whether the hold's TTL has strictly elapsed at the
// given instant.  Expiry is decided by timestamp, not by whether the
// sweeper has already reclaimed the seats.
func (h *Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
