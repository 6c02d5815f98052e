package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinetick/booking/internal/model"
)

// dbTimeFormat is the MySQL DATETIME layout used when binding
// timestamps.  All timestamps are stored in UTC; the DSN's loc=UTC and
// parseTime=true take care of the reverse direction.
const dbTimeFormat = "2006-01-02 15:04:05"

// HoldRepo provides data access to the holds and hold_seats tables.  A
// hold row carries the requester, showtime, status and absolute expiry;
// its seats and their price snapshots live in hold_seats.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// CreateTx inserts a hold and its seats within the given transaction.
// The caller must have generated the hold id and price snapshots
// beforehand and must commit or roll back the transaction.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	const q = `INSERT INTO holds (id, requester_id, showtime_id, status, expires_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, h.ID, h.RequesterID, h.ShowtimeID, string(h.Status),
		h.ExpiresAt.UTC().Format(dbTimeFormat)); err != nil {
		return err
	}
	if len(h.Seats) == 0 {
		return nil
	}
	query := `INSERT INTO hold_seats (hold_id, seat_label, price_cents) VALUES `
	args := make([]interface{}, 0, len(h.Seats)*3)
	for i, s := range h.Seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, h.ID, s.SeatLabel, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads a hold and its seats.  Returns ErrHoldNotFound when no
// row exists.
func (r *HoldRepo) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	const q = `SELECT id, requester_id, showtime_id, status, expires_at, created_at FROM holds WHERE id = ?`
	return r.scanHold(ctx, r.db.QueryRowContext(ctx, q, id), func(ctx context.Context, holdID string) (*sql.Rows, error) {
		return r.db.QueryContext(ctx, holdSeatsQuery, holdID)
	})
}

// GetByIDForUpdateTx loads a hold with a row lock so that finalize and
// the expiry sweeper serialize on it.  Whichever transaction commits
// first wins; the loser observes the updated status and no-ops.
func (r *HoldRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Hold, error) {
	const q = `SELECT id, requester_id, showtime_id, status, expires_at, created_at FROM holds WHERE id = ? FOR UPDATE`
	return r.scanHold(ctx, tx.QueryRowContext(ctx, q, id), func(ctx context.Context, holdID string) (*sql.Rows, error) {
		return tx.QueryContext(ctx, holdSeatsQuery, holdID)
	})
}

const holdSeatsQuery = `SELECT hold_id, seat_label, price_cents FROM hold_seats WHERE hold_id = ? ORDER BY seat_label`

func (r *HoldRepo) scanHold(ctx context.Context, row *sql.Row, seats func(context.Context, string) (*sql.Rows, error)) (*model.Hold, error) {
	var h model.Hold
	var status string
	if err := row.Scan(&h.ID, &h.RequesterID, &h.ShowtimeID, &status, &h.ExpiresAt, &h.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	h.Status = model.HoldStatus(status)
	rows, err := seats(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.HoldSeat
		if err := rows.Scan(&s.HoldID, &s.SeatLabel, &s.PriceCents); err != nil {
			return nil, err
		}
		h.Seats = append(h.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &h, nil
}

// UpdateStatusTx transitions a hold from one status to another within a
// transaction.  The from-status guard makes concurrent transitions
// race-safe: only one caller observes an affected row.  Returns
// ErrHoldNotFound when the guard does not match.
func (r *HoldRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, from, to model.HoldStatus) error {
	const q = `UPDATE holds SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// Extend refreshes the expiry of an ACTIVE hold.  The expires_at guard
// rejects holds whose TTL already elapsed, so an extension can never
// resurrect an expired hold.  Returns ErrHoldNotFound when nothing
// matched.
func (r *HoldRepo) Extend(ctx context.Context, id string, now, newExpiry time.Time) error {
	const q = `UPDATE holds SET expires_at = ? WHERE id = ? AND status = ? AND expires_at > ?`
	res, err := r.db.ExecContext(ctx, q, newExpiry.UTC().Format(dbTimeFormat), id,
		string(model.HoldActive), now.UTC().Format(dbTimeFormat))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrHoldNotFound
	}
	return nil
}

// ListExpiredIDs returns ids of ACTIVE holds whose expiry has passed,
// oldest first, capped at limit.  The sweeper re-checks each hold under
// a row lock before touching seats, so the listing itself needs no lock.
func (r *HoldRepo) ListExpiredIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const q = `SELECT id FROM holds WHERE status = ? AND expires_at <= ? ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, string(model.HoldActive), now.UTC().Format(dbTimeFormat), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
