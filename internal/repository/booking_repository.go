package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their seats.
// Bookings group the seats purchased under a single finalized hold; the
// per-seat price snapshot is copied from hold_seats so receipts stay
// stable regardless of later catalog changes.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking and its seats within an existing
// transaction.  The caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (id, requester_id, showtime_id, status, total_amount_cents, payment_ref) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, b.ID, b.RequesterID, b.ShowtimeID, b.Status, b.TotalAmountCents, b.PaymentRef); err != nil {
		return err
	}
	if len(b.Seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_label, price_cents) VALUES `
	args := make([]interface{}, 0, len(b.Seats)*3)
	for i, s := range b.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, b.ID, s.SeatLabel, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

const bookingSeatsQuery = `SELECT booking_id, seat_label, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_label`

// GetByID loads a booking and its seats.  Returns ErrBookingNotFound
// when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, requester_id, showtime_id, status, total_amount_cents, payment_ref, created_at FROM bookings WHERE id = ?`
	return scanBooking(ctx, r.db.QueryRowContext(ctx, q, id), func(ctx context.Context, bookingID string) (*sql.Rows, error) {
		return r.db.QueryContext(ctx, bookingSeatsQuery, bookingID)
	})
}

// GetByIDForUpdateTx loads a booking with a row lock so concurrent
// cancellations serialize on it.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Booking, error) {
	const q = `SELECT id, requester_id, showtime_id, status, total_amount_cents, payment_ref, created_at FROM bookings WHERE id = ? FOR UPDATE`
	return scanBooking(ctx, tx.QueryRowContext(ctx, q, id), func(ctx context.Context, bookingID string) (*sql.Rows, error) {
		return tx.QueryContext(ctx, bookingSeatsQuery, bookingID)
	})
}

func scanBooking(ctx context.Context, row *sql.Row, seats func(context.Context, string) (*sql.Rows, error)) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.RequesterID, &b.ShowtimeID, &b.Status, &b.TotalAmountCents, &b.PaymentRef, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	rows, err := seats(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.BookingID, &s.SeatLabel, &s.PriceCents); err != nil {
			return nil, err
		}
		b.Seats = append(b.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// MarkCancelledTx flips a CONFIRMED booking to CANCELLED within a
// transaction.  The status guard makes double cancellation visible to
// exactly one caller; the other gets ErrBookingNotFound.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id string) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.BookingCancelled, id, model.BookingConfirmed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListByRequester returns all bookings belonging to a user, newest
// first, each with its seats.  When none exist an empty slice is
// returned.
func (r *BookingRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.Booking, error) {
	const q = `SELECT id, requester_id, showtime_id, status, total_amount_cents, payment_ref, created_at
               FROM bookings
               WHERE requester_id = ?
               ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	index := make(map[string]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.RequesterID, &b.ShowtimeID, &b.Status, &b.TotalAmountCents, &b.PaymentRef, &b.CreatedAt); err != nil {
			return nil, err
		}
		index[b.ID] = len(bookings)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	// Populate seats for all bookings in a single query.
	ids := make([]interface{}, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	seatQuery := `SELECT booking_id, seat_label, price_cents FROM booking_seats WHERE booking_id IN (` +
		placeholders(len(bookings)) + `) ORDER BY booking_id, seat_label`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var s model.BookingSeat
		if err := srows.Scan(&s.BookingID, &s.SeatLabel, &s.PriceCents); err != nil {
			return nil, err
		}
		if idx, ok := index[s.BookingID]; ok {
			bookings[idx].Seats = append(bookings[idx].Seats, s)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
