package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cinetick/booking/internal/model"
)

// SeatTransition describes one seat's expected and desired state inside
// an atomic compare-and-set.  The ledger applies every transition of a
// call or none of them.
type SeatTransition struct {
	SeatLabel string
	Expected  model.SeatState
	New       model.SeatState
}

// SeatLedgerRepo is the authoritative store of per-showtime seat state.
// All mutations go through CompareAndSetStatesTx; there is deliberately
// no unconditional status update, since unguarded writes are exactly
// the lost-update class of bug the ledger exists to prevent.
type SeatLedgerRepo struct {
	db *sql.DB
}

// NewSeatLedgerRepo returns a SeatLedgerRepo bound to the given database.
func NewSeatLedgerRepo(db *sql.DB) *SeatLedgerRepo { return &SeatLedgerRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning the ledger and the hold/booking repositories.
func (r *SeatLedgerRepo) DB() *sql.DB { return r.db }

// GetStates returns the current state of each requested seat.  Seats
// missing from the ledger are absent from the result map; callers treat
// them as unavailable.  The read reflects the latest committed mutation.
func (r *SeatLedgerRepo) GetStates(ctx context.Context, showtimeID uint64, labels []string) (map[string]model.SeatState, error) {
	return getStates(ctx, r.db, showtimeID, labels)
}

// GetStatesTx is GetStates executed within an existing transaction.
func (r *SeatLedgerRepo) GetStatesTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string) (map[string]model.SeatState, error) {
	return getStates(ctx, tx, showtimeID, labels)
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func getStates(ctx context.Context, q querier, showtimeID uint64, labels []string) (map[string]model.SeatState, error) {
	states := make(map[string]model.SeatState, len(labels))
	if len(labels) == 0 {
		return states, nil
	}
	query := `SELECT seat_label, status FROM showtime_seats WHERE showtime_id = ? AND seat_label IN (` +
		placeholders(len(labels)) + `)`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showtimeID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var status string
		if err := rows.Scan(&label, &status); err != nil {
			return nil, err
		}
		states[label] = model.SeatState(status)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

// PricesTx returns the price of each requested seat within a
// transaction.  Used by the hold manager to snapshot prices at hold
// time.  Seats missing from the ledger are absent from the map.
func (r *SeatLedgerRepo) PricesTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string) (map[string]uint32, error) {
	prices := make(map[string]uint32, len(labels))
	if len(labels) == 0 {
		return prices, nil
	}
	query := `SELECT seat_label, price_cents FROM showtime_seats WHERE showtime_id = ? AND seat_label IN (` +
		placeholders(len(labels)) + `)`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showtimeID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var price uint32
		if err := rows.Scan(&label, &price); err != nil {
			return nil, err
		}
		prices[label] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}

// SeatMap returns every seat of a showtime ordered by label.  It feeds
// the public availability endpoint so clients can render the room.
func (r *SeatLedgerRepo) SeatMap(ctx context.Context, showtimeID uint64) ([]model.ShowtimeSeat, error) {
	const q = `SELECT id, showtime_id, seat_label, status, price_cents, hold_id, booking_id, version, created_at, updated_at
               FROM showtime_seats
               WHERE showtime_id = ?
               ORDER BY seat_label`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.ShowtimeSeat, 0)
	for rows.Next() {
		var s model.ShowtimeSeat
		var holdID, bookingID sql.NullString
		if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.SeatLabel, &s.Status, &s.PriceCents,
			&holdID, &bookingID, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if holdID.Valid {
			v := holdID.String
			s.HoldID = &v
		}
		if bookingID.Valid {
			v := bookingID.String
			s.BookingID = &v
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// CreateSeatsBulkTx materializes the seat map for a showtime in one
// statement.  Seats start AVAILABLE with version 0.  Called when the
// catalog opens a showtime for sale; passing an empty slice is a no-op.
func (r *SeatLedgerRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.ShowtimeSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO showtime_seats (showtime_id, seat_label, status, price_cents, version) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		status := s.Status
		if status == "" {
			status = model.SeatAvailable
		}
		args = append(args, s.ShowtimeID, s.SeatLabel, string(status), s.PriceCents, s.Version)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CompareAndSetStatesTx atomically applies all transitions or none.
// Each seat row is updated only when its current status matches the
// transition's expected status AND, for HELD/BOOKED expectations, the
// row is owned by holdID/bookingID.  Rows moving into HELD get holdID
// as owner, rows moving into BOOKED get bookingID; other target states
// clear the respective owner column.  The version column is bumped on
// every applied transition.
//
// If any seat does not match (including seats missing from the ledger),
// a *ConflictError naming the mismatched seats is returned and the
// caller must roll back the transaction so that no partial state is
// committed.  ConflictError is always recoverable.
func (r *SeatLedgerRepo) CompareAndSetStatesTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, holdID, bookingID string, transitions []SeatTransition) error {
	var conflicts []string
	for _, t := range transitions {
		var newHold, newBooking interface{}
		if t.New == model.SeatHeld {
			newHold = holdID
		}
		if t.New == model.SeatBooked {
			newBooking = bookingID
		}
		query := `UPDATE showtime_seats SET status = ?, hold_id = ?, booking_id = ?, version = version + 1
                  WHERE showtime_id = ? AND seat_label = ? AND status = ?`
		args := []interface{}{string(t.New), newHold, newBooking, showtimeID, t.SeatLabel, string(t.Expected)}
		switch t.Expected {
		case model.SeatHeld:
			query += ` AND hold_id = ?`
			args = append(args, holdID)
		case model.SeatBooked:
			query += ` AND booking_id = ?`
			args = append(args, bookingID)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			conflicts = append(conflicts, t.SeatLabel)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Seats: conflicts}
	}
	return nil
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ",")
}
