package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

func TestMarkCancelledGuard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`)).
		WithArgs(model.BookingCancelled, "bk-1", model.BookingConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)
	err = repo.MarkCancelledTx(context.Background(), tx, "bk-1")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRequester(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewBookingRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, requester_id, showtime_id, status, total_amount_cents, payment_ref, created_at`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "showtime_id", "status", "total_amount_cents", "payment_ref", "created_at"}).
			AddRow("bk-2", 42, 8, "CONFIRMED", 1500, "pay-2", now).
			AddRow("bk-1", 42, 7, "CANCELLED", 2700, "pay-1", now.Add(-time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT booking_id, seat_label, price_cents FROM booking_seats WHERE booking_id IN (?,?)`)).
		WithArgs("bk-2", "bk-1").
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "seat_label", "price_cents"}).
			AddRow("bk-1", "A1", 1200).
			AddRow("bk-1", "A2", 1500).
			AddRow("bk-2", "C4", 1500))

	bookings, err := repo.ListByRequester(context.Background(), 42)
	assert.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, "bk-2", bookings[0].ID)
	assert.Equal(t, []string{"C4"}, bookings[0].SeatLabels())
	assert.Equal(t, []string{"A1", "A2"}, bookings[1].SeatLabels())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRequesterEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewBookingRepo(db)

	mock.ExpectQuery(`SELECT id, requester_id, showtime_id, status, total_amount_cents, payment_ref, created_at`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "showtime_id", "status", "total_amount_cents", "payment_ref", "created_at"}))

	bookings, err := repo.ListByRequester(context.Background(), 42)
	assert.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
