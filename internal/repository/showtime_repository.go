package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/booking/internal/model"
)

// ShowtimeRepo reads showtime reference data.  Showtimes are owned by
// the catalog service; the booking core only needs to know that a
// showtime exists, when it starts and whether it is still open for
// sale, so this repository is read-only.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// GetByID retrieves a showtime by id.  Returns ErrShowtimeNotFound when
// no matching row exists.  Timestamps come back in UTC via the DSN.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_id, room_id, title, starts_at, ends_at, base_price_cents, status, created_at, updated_at
               FROM showtimes WHERE id = ?`
	var s model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.MovieID, &s.RoomID, &s.Title, &s.StartsAt, &s.EndsAt,
		&s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}
