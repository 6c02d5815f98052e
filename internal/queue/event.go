// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// Queue names for booking lifecycle events.  Both queues are durable.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published after a hold is finalized into a
// booking.  It carries enough information for downstream consumers to
// notify the customer or feed analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID        string   `json:"booking_id"`
	RequesterID      uint64   `json:"requester_id"`
	ShowtimeID       uint64   `json:"showtime_id"`
	SeatLabels       []string `json:"seats"`
	TotalAmountCents uint64   `json:"total_amount_cents"`
	PaymentRef       string   `json:"payment_ref,omitempty"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a booking is cancelled and
// its seats returned to the pool.
type BookingCancelledEvent struct {
	BookingID   string   `json:"booking_id"`
	RequesterID uint64   `json:"requester_id"`
	ShowtimeID  uint64   `json:"showtime_id"`
	SeatLabels  []string `json:"seats"`
	CancelledAt string   `json:"cancelled_at"`
}
