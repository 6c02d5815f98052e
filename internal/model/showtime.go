package model

import "time"

// Showtime statuses as recorded by the catalog service.  Only SCHEDULED
// showtimes accept holds.
const (
	ShowtimeScheduled = "SCHEDULED"
	ShowtimeCancelled = "CANCELLED"
	ShowtimeFinished  = "FINISHED"
)

// Showtime represents a scheduled screening of a movie in a room.  The
// catalog service owns these records; the booking core reads them only
// to learn whether a showtime exists, when it starts and whether it is
// still open for sale.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  RoomID         – room where the screening takes place.
//  Title          – movie title, denormalized for receipts.
//  StartsAt       – when the screening begins (UTC).
//  EndsAt         – when the screening ends (UTC).
//  BasePriceCents – default seat price unless overridden per seat.
//  Status         – SCHEDULED, CANCELLED or FINISHED.
type Showtime struct {
	ID             uint64    // showtimes.id
	MovieID        uint64    // showtimes.movie_id
	RoomID         uint64    // showtimes.room_id
	Title          string    // showtimes.title
	StartsAt       time.Time // showtimes.starts_at
	EndsAt         time.Time // showtimes.ends_at
	BasePriceCents uint32    // showtimes.base_price_cents
	Status         string    // showtimes.status
	CreatedAt      time.Time // showtimes.created_at
	UpdatedAt      time.Time // showtimes.updated_at
}
