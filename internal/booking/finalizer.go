package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/queue"
	"github.com/cinetick/booking/internal/repository"
)

// EventPublisher delivers booking lifecycle events to the notification
// collaborator.  Publishing is fire-and-forget: implementations log
// failures but a lost event never rolls back a booking.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// Finalizer commits holds into permanent bookings once the payment
// collaborator has confirmed, and cancels bookings before showtime
// start.  It shares the seat ledger's mutual-exclusion discipline with
// the hold manager: seat transitions happen only through the atomic
// compare-and-set, inside one transaction per operation.
type Finalizer struct {
	db        *sql.DB
	ledger    *repository.SeatLedgerRepo
	holds     *repository.HoldRepo
	bookings  *repository.BookingRepo
	showtimes *repository.ShowtimeRepo
	publisher EventPublisher

	now func() time.Time
}

// NewFinalizer constructs a Finalizer.  publisher may be nil, in which
// case no events are emitted.
func NewFinalizer(db *sql.DB, ledger *repository.SeatLedgerRepo, holds *repository.HoldRepo, bookings *repository.BookingRepo, showtimes *repository.ShowtimeRepo, publisher EventPublisher) *Finalizer {
	if db == nil || ledger == nil || holds == nil || bookings == nil || showtimes == nil {
		panic("nil dependency passed to NewFinalizer")
	}
	return &Finalizer{
		db:        db,
		ledger:    ledger,
		holds:     holds,
		bookings:  bookings,
		showtimes: showtimes,
		publisher: publisher,
		now:       time.Now,
	}
}

// Finalize converts an ACTIVE, unexpired hold owned by the requester
// into a CONFIRMED booking.  The seat transition HELD -> BOOKED, the
// booking insert and the hold's CONSUMED mark commit as one unit; if
// the hold was swept concurrently the whole operation fails with
// ErrHoldExpired and no booking is created.  Expiry is decided by
// timestamp, so a hold past its TTL is rejected even before the
// sweeper has run.
func (f *Finalizer) Finalize(ctx context.Context, requesterID uint64, holdID, paymentRef string) (*model.Booking, error) {
	now := f.now().UTC()

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Row lock on the hold serializes finalize against the sweeper.
	hold, err := f.holds.GetByIDForUpdateTx(ctx, tx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.RequesterID != requesterID {
		return nil, ErrNotAuthorized
	}
	if hold.Status != model.HoldActive || hold.ExpiredAt(now) {
		return nil, ErrHoldExpired
	}

	booking := &model.Booking{
		ID:               uuid.NewString(),
		RequesterID:      requesterID,
		ShowtimeID:       hold.ShowtimeID,
		Status:           model.BookingConfirmed,
		TotalAmountCents: hold.TotalCents(),
		PaymentRef:       paymentRef,
		CreatedAt:        now,
	}
	for _, s := range hold.Seats {
		booking.Seats = append(booking.Seats, model.BookingSeat{
			BookingID:  booking.ID,
			SeatLabel:  s.SeatLabel,
			PriceCents: s.PriceCents,
		})
	}

	transitions := make([]repository.SeatTransition, 0, len(hold.Seats))
	for _, s := range hold.Seats {
		transitions = append(transitions, repository.SeatTransition{
			SeatLabel: s.SeatLabel,
			Expected:  model.SeatHeld,
			New:       model.SeatBooked,
		})
	}
	if err := f.ledger.CompareAndSetStatesTx(ctx, tx, hold.ShowtimeID, hold.ID, booking.ID, transitions); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			// The seats are no longer held by this hold: the sweeper's
			// release landed first.
			return nil, ErrHoldExpired
		}
		return nil, err
	}

	if err := f.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, err
	}
	if err := f.holds.UpdateStatusTx(ctx, tx, hold.ID, model.HoldActive, model.HoldConsumed); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if f.publisher != nil {
		ev := queue.BookingConfirmedEvent{
			BookingID:        booking.ID,
			RequesterID:      booking.RequesterID,
			ShowtimeID:       booking.ShowtimeID,
			SeatLabels:       booking.SeatLabels(),
			TotalAmountCents: booking.TotalAmountCents,
			PaymentRef:       booking.PaymentRef,
			ConfirmedAt:      now.Format(time.RFC3339),
		}
		go func() { _ = f.publisher.PublishBookingConfirmed(context.Background(), ev) }()
	}
	return booking, nil
}

// Cancel returns a CONFIRMED booking's seats to AVAILABLE and marks the
// booking CANCELLED.  Permitted only to the booking's owner and only
// strictly before the showtime starts; afterwards, or on a second
// cancel, it fails with ErrBookingNotCancellable.
func (f *Finalizer) Cancel(ctx context.Context, requesterID uint64, bookingID string) error {
	now := f.now().UTC()

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := f.bookings.GetByIDForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return err
	}
	if booking.RequesterID != requesterID {
		return ErrNotAuthorized
	}
	if booking.Status != model.BookingConfirmed {
		return ErrBookingNotCancellable
	}
	st, err := f.showtimes.GetByID(ctx, booking.ShowtimeID)
	if err != nil {
		return err
	}
	if !st.StartsAt.After(now) {
		return ErrBookingNotCancellable
	}

	transitions := make([]repository.SeatTransition, 0, len(booking.Seats))
	for _, s := range booking.Seats {
		transitions = append(transitions, repository.SeatTransition{
			SeatLabel: s.SeatLabel,
			Expected:  model.SeatBooked,
			New:       model.SeatAvailable,
		})
	}
	if err := f.ledger.CompareAndSetStatesTx(ctx, tx, booking.ShowtimeID, "", booking.ID, transitions); err != nil {
		return err
	}
	if err := f.bookings.MarkCancelledTx(ctx, tx, booking.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	if f.publisher != nil {
		ev := queue.BookingCancelledEvent{
			BookingID:   booking.ID,
			RequesterID: booking.RequesterID,
			ShowtimeID:  booking.ShowtimeID,
			SeatLabels:  booking.SeatLabels(),
			CancelledAt: now.Format(time.RFC3339),
		}
		go func() { _ = f.publisher.PublishBookingCancelled(context.Background(), ev) }()
	}
	return nil
}
