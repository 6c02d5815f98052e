package model

import "time"

// Booking statuses.  CONFIRMED bookings keep their seats BOOKED until
// cancelled; cancellation is only permitted before the showtime starts.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking is the permanent record created when a hold is finalized.
// The total is the sum of the hold's per-seat price snapshots, and the
// payment reference is the opaque token supplied by the payment
// collaborator; the core never processes payment itself.
//
// Fields:
//  ID               – uuid identifier, also the seat ledger's owner key.
//  RequesterID      – user the booking belongs to.
//  ShowtimeID       – showtime the seats were booked for.
//  Status           – CONFIRMED or CANCELLED.
//  TotalAmountCents – sum of seat prices at hold time.
//  PaymentRef       – external payment confirmation reference.
//  CreatedAt        – creation timestamp.
//  Seats            – booked seats with their prices.
type Booking struct {
	ID               string        // bookings.id (uuid)
	RequesterID      uint64        // bookings.requester_id
	ShowtimeID       uint64        // bookings.showtime_id
	Status           string        // bookings.status
	TotalAmountCents uint64        // bookings.total_amount_cents
	PaymentRef       string        // bookings.payment_ref
	CreatedAt        time.Time     // bookings.created_at
	Seats            []BookingSeat // bookings -> booking_seats
}

// BookingSeat records one seat purchased under a booking.
type BookingSeat struct {
	BookingID  string // booking_seats.booking_id
	SeatLabel  string // booking_seats.seat_label
	PriceCents uint32 // booking_seats.price_cents
}

// SeatLabels returns the labels of all seats in the booking.
func (b *Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		labels = append(labels, s.SeatLabel)
	}
	return labels
}
