package booking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

// DefaultHoldTTL is how long a hold keeps its seats when no TTL is
// configured.
const DefaultHoldTTL = 10 * time.Minute

// HoldManager turns a seat-selection request into an exclusive,
// time-boxed claim.  Every mutation runs inside one DB transaction and
// goes through the seat ledger's compare-and-set, so concurrent
// requests for overlapping seats resolve to exactly one winner per
// seat.
type HoldManager struct {
	db        *sql.DB
	ledger    *repository.SeatLedgerRepo
	holds     *repository.HoldRepo
	showtimes *repository.ShowtimeRepo
	ttl       time.Duration

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewHoldManager constructs a HoldManager.  A non-positive ttl falls
// back to DefaultHoldTTL.
func NewHoldManager(db *sql.DB, ledger *repository.SeatLedgerRepo, holds *repository.HoldRepo, showtimes *repository.ShowtimeRepo, ttl time.Duration) *HoldManager {
	if db == nil || ledger == nil || holds == nil || showtimes == nil {
		panic("nil dependency passed to NewHoldManager")
	}
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &HoldManager{
		db:        db,
		ledger:    ledger,
		holds:     holds,
		showtimes: showtimes,
		ttl:       ttl,
		now:       time.Now,
	}
}

// CreateHold claims the requested seats for the requester.  It fails
// with *SeatsUnavailableError naming the offending seats when any of
// them is not AVAILABLE, whether observed on the initial read or lost
// in the race between the read and the atomic claim.  There is never a
// partial hold: the claim covers all seats or none.
func (m *HoldManager) CreateHold(ctx context.Context, requesterID, showtimeID uint64, seatLabels []string) (*model.Hold, error) {
	labels := dedupeLabels(seatLabels)
	if len(labels) == 0 {
		return nil, ErrNoSeats
	}
	now := m.now().UTC()

	st, err := m.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if st.Status != model.ShowtimeScheduled || !st.StartsAt.After(now) {
		return nil, ErrShowtimeNotBookable
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Fast path: read current states and fail early with the full list
	// of unavailable seats.  Seats missing from the ledger count as
	// unavailable too.
	states, err := m.ledger.GetStatesTx(ctx, tx, showtimeID, labels)
	if err != nil {
		return nil, err
	}
	var unavailable []string
	for _, l := range labels {
		if s, ok := states[l]; !ok || s != model.SeatAvailable {
			unavailable = append(unavailable, l)
		}
	}
	if len(unavailable) > 0 {
		return nil, &SeatsUnavailableError{Seats: unavailable}
	}

	prices, err := m.ledger.PricesTx(ctx, tx, showtimeID, labels)
	if err != nil {
		return nil, err
	}

	hold := &model.Hold{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		ShowtimeID:  showtimeID,
		Status:      model.HoldActive,
		ExpiresAt:   now.Add(m.ttl),
		CreatedAt:   now,
	}
	for _, l := range labels {
		hold.Seats = append(hold.Seats, model.HoldSeat{HoldID: hold.ID, SeatLabel: l, PriceCents: prices[l]})
	}

	// Atomic claim.  Another request may have won between the read and
	// this write; the conflict lists exactly the contested seats and the
	// loser gets a clean failure, never a partial hold.
	transitions := make([]repository.SeatTransition, 0, len(labels))
	for _, l := range labels {
		transitions = append(transitions, repository.SeatTransition{
			SeatLabel: l,
			Expected:  model.SeatAvailable,
			New:       model.SeatHeld,
		})
	}
	if err := m.ledger.CompareAndSetStatesTx(ctx, tx, showtimeID, hold.ID, "", transitions); err != nil {
		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			return nil, &SeatsUnavailableError{Seats: conflict.Seats}
		}
		return nil, err
	}

	if err := m.holds.CreateTx(ctx, tx, hold); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return hold, nil
}

// GetHold returns a hold after verifying it belongs to the requester.
func (m *HoldManager) GetHold(ctx context.Context, requesterID uint64, holdID string) (*model.Hold, error) {
	hold, err := m.holds.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.RequesterID != requesterID {
		return nil, ErrNotAuthorized
	}
	return hold, nil
}

// ReleaseHold returns a hold's seats to AVAILABLE and marks the hold
// RELEASED.  Releasing a hold that is no longer ACTIVE is a no-op, so
// the operation is idempotent for its owner.
func (m *HoldManager) ReleaseHold(ctx context.Context, requesterID uint64, holdID string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hold, err := m.holds.GetByIDForUpdateTx(ctx, tx, holdID)
	if err != nil {
		return err
	}
	if hold.RequesterID != requesterID {
		return ErrNotAuthorized
	}
	if hold.Status != model.HoldActive {
		// Already consumed, released or swept; nothing to do.
		return nil
	}

	if err := releaseSeatsTx(ctx, tx, m.ledger, hold); err != nil {
		return err
	}
	if err := m.holds.UpdateStatusTx(ctx, tx, hold.ID, model.HoldActive, model.HoldReleased); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ExtendHold refreshes an ACTIVE hold's expiry by one TTL from now.
// Fails with ErrHoldExpired once the original TTL has elapsed or the
// hold is no longer ACTIVE.
func (m *HoldManager) ExtendHold(ctx context.Context, requesterID uint64, holdID string) (*model.Hold, error) {
	hold, err := m.holds.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.RequesterID != requesterID {
		return nil, ErrNotAuthorized
	}
	now := m.now().UTC()
	if hold.Status != model.HoldActive || hold.ExpiredAt(now) {
		return nil, ErrHoldExpired
	}
	newExpiry := now.Add(m.ttl)
	if err := m.holds.Extend(ctx, holdID, now, newExpiry); err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			// Lost a race with the sweeper between the read and the
			// guarded update.
			return nil, ErrHoldExpired
		}
		return nil, err
	}
	hold.ExpiresAt = newExpiry
	return hold, nil
}

// releaseSeatsTx performs the HELD -> AVAILABLE transition for every
// seat of the hold.  Shared by release and the expiry sweeper; the
// ownership predicate in the CAS guarantees only this hold's seats
// move.
func releaseSeatsTx(ctx context.Context, tx *sql.Tx, ledger *repository.SeatLedgerRepo, hold *model.Hold) error {
	transitions := make([]repository.SeatTransition, 0, len(hold.Seats))
	for _, s := range hold.Seats {
		transitions = append(transitions, repository.SeatTransition{
			SeatLabel: s.SeatLabel,
			Expected:  model.SeatHeld,
			New:       model.SeatAvailable,
		})
	}
	return ledger.CompareAndSetStatesTx(ctx, tx, hold.ShowtimeID, hold.ID, "", transitions)
}

// dedupeLabels drops empty and duplicate seat labels while keeping a
// deterministic order.
func dedupeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
