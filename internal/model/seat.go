package model

import "time"

// SeatState enumerates the lifecycle of a seat within one showtime.
// The only legal transitions are:
//
//	AVAILABLE -> HELD      (hold creation)
//	HELD      -> AVAILABLE (release or expiry)
//	HELD      -> BOOKED    (finalize)
//	BOOKED    -> AVAILABLE (cancellation before showtime start)
//
// A seat never moves directly from AVAILABLE to BOOKED.
type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatHeld      SeatState = "HELD"
	SeatBooked    SeatState = "BOOKED"
)

// ShowtimeSeat is one row of the seat ledger: the authoritative state of
// a single seat for a single showtime.  Seats are keyed by the showtime
// and a row+number label such as "A1" inherited from the room layout.
// HoldID is set only while the seat is HELD and BookingID only while it
// is BOOKED; at most one of the two is ever set.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – showtime this seat belongs to.
//  SeatLabel  – row+number label within the room ("A1", "B12").
//  Status     – current SeatState.
//  PriceCents – price for this seat in cents.
//  HoldID     – owning hold while HELD (nil otherwise).
//  BookingID  – owning booking while BOOKED (nil otherwise).
//  Version    – bumped on every committed mutation.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type ShowtimeSeat struct {
	ID         uint64    // showtime_seats.id
	ShowtimeID uint64    // showtime_seats.showtime_id
	SeatLabel  string    // showtime_seats.seat_label
	Status     SeatState // showtime_seats.status
	PriceCents uint32    // showtime_seats.price_cents
	HoldID     *string   // showtime_seats.hold_id (nullable)
	BookingID  *string   // showtime_seats.booking_id (nullable)
	Version    uint32    // showtime_seats.version
	CreatedAt  time.Time // showtime_seats.created_at
	UpdatedAt  time.Time // showtime_seats.updated_at
}
