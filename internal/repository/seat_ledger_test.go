package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

const casQuery = `UPDATE showtime_seats SET status = ?, hold_id = ?, booking_id = ?, version = version + 1
                  WHERE showtime_id = ? AND seat_label = ? AND status = ?`

func TestGetStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_label, status FROM showtime_seats WHERE showtime_id = ? AND seat_label IN (?,?,?)`)).
		WithArgs(uint64(7), "A1", "A2", "B9").
		WillReturnRows(sqlmock.NewRows([]string{"seat_label", "status"}).
			AddRow("A1", "AVAILABLE").
			AddRow("A2", "HELD"))

	states, err := repo.GetStates(context.Background(), 7, []string{"A1", "A2", "B9"})
	assert.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, states["A1"])
	assert.Equal(t, model.SeatHeld, states["A2"])
	// B9 does not exist in the ledger and must be absent, not defaulted.
	_, ok := states["B9"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatesEmptyLabels(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	states, err := repo.GetStates(context.Background(), 7, nil)
	assert.NoError(t, err)
	assert.Empty(t, states)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSetStatesAllApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(casQuery)).
		WithArgs("HELD", "hold-1", nil, uint64(7), "A1", "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(casQuery)).
		WithArgs("HELD", "hold-1", nil, uint64(7), "A2", "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)

	err = repo.CompareAndSetStatesTx(context.Background(), tx, 7, "hold-1", "", []repository.SeatTransition{
		{SeatLabel: "A1", Expected: model.SeatAvailable, New: model.SeatHeld},
		{SeatLabel: "A2", Expected: model.SeatAvailable, New: model.SeatHeld},
	})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSetStatesConflictListsSeats(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(casQuery)).
		WithArgs("HELD", "hold-1", nil, uint64(7), "A1", "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// A2 was taken between the read and the claim.
	mock.ExpectExec(regexp.QuoteMeta(casQuery)).
		WithArgs("HELD", "hold-1", nil, uint64(7), "A2", "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)

	err = repo.CompareAndSetStatesTx(context.Background(), tx, 7, "hold-1", "", []repository.SeatTransition{
		{SeatLabel: "A1", Expected: model.SeatAvailable, New: model.SeatHeld},
		{SeatLabel: "A2", Expected: model.SeatAvailable, New: model.SeatHeld},
	})
	var conflict *repository.ConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Seats)

	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSetStatesOwnershipPredicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	// Releasing a HELD seat must require the owning hold id, so a seat
	// re-held by someone else is never touched.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(casQuery+` AND hold_id = ?`)).
		WithArgs("AVAILABLE", nil, nil, uint64(7), "A1", "HELD", "hold-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)

	err = repo.CompareAndSetStatesTx(context.Background(), tx, 7, "hold-1", "", []repository.SeatTransition{
		{SeatLabel: "A1", Expected: model.SeatHeld, New: model.SeatAvailable},
	})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSeatsBulk(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO showtime_seats (showtime_id, seat_label, status, price_cents, version) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)`)).
		WithArgs(
			uint64(7), "A1", "AVAILABLE", uint32(1200), uint32(0),
			uint64(7), "A2", "AVAILABLE", uint32(1500), uint32(0),
		).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	assert.NoError(t, err)

	// An empty status defaults to AVAILABLE.
	err = repo.CreateSeatsBulkTx(context.Background(), tx, []model.ShowtimeSeat{
		{ShowtimeID: 7, SeatLabel: "A1", PriceCents: 1200},
		{ShowtimeID: 7, SeatLabel: "A2", PriceCents: 1500},
	})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatMap(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := repository.NewSeatLedgerRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, showtime_id, seat_label, status, price_cents, hold_id, booking_id, version, created_at, updated_at`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "showtime_id", "seat_label", "status", "price_cents", "hold_id", "booking_id", "version", "created_at", "updated_at"}).
			AddRow(1, 7, "A1", "AVAILABLE", 1200, nil, nil, 0, now, now).
			AddRow(2, 7, "A2", "HELD", 1200, "hold-1", nil, 3, now, now))

	seats, err := repo.SeatMap(context.Background(), 7)
	assert.NoError(t, err)
	assert.Len(t, seats, 2)
	assert.Equal(t, model.SeatAvailable, seats[0].Status)
	assert.Nil(t, seats[0].HoldID)
	assert.Equal(t, model.SeatHeld, seats[1].Status)
	if assert.NotNil(t, seats[1].HoldID) {
		assert.Equal(t, "hold-1", *seats[1].HoldID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
