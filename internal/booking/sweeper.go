package booking

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

// DefaultSweepInterval is the sweeper cadence when none is configured.
const DefaultSweepInterval = 30 * time.Second

// sweepBatchSize caps how many expired holds one cycle processes.
// Anything left over self-heals on the next run.
const sweepBatchSize = 100

// Sweeper reclaims seats from holds whose TTL elapsed without a
// finalize or release.  It runs as an independent background task:
// errors are logged and never surfaced, each hold is handled in its own
// transaction, and a cycle that loses a race with finalize simply
// skips that hold.  No seat is reclaimed before its hold's TTL has
// strictly elapsed.
type Sweeper struct {
	db       *sql.DB
	ledger   *repository.SeatLedgerRepo
	holds    *repository.HoldRepo
	interval time.Duration

	now func() time.Time
}

// NewSweeper constructs a Sweeper.  A non-positive interval falls back
// to DefaultSweepInterval.
func NewSweeper(db *sql.DB, ledger *repository.SeatLedgerRepo, holds *repository.HoldRepo, interval time.Duration) *Sweeper {
	if db == nil || ledger == nil || holds == nil {
		panic("nil dependency passed to NewSweeper")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{db: db, ledger: ledger, holds: holds, interval: interval, now: time.Now}
}

// Run executes sweep cycles on a fixed interval until the context is
// cancelled.  Intended to run as its own goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: cycle failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: reclaimed %d expired hold(s)", n)
			}
		}
	}
}

// SweepOnce processes one batch of expired holds and returns how many
// it reclaimed.  Safe to call concurrently with finalize: both lock the
// hold row, so the loser observes the winner's status change and
// no-ops.  Individual hold failures are logged and skipped; sweeping is
// idempotent, so a missed hold is picked up next cycle.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()
	ids, err := s.holds.ListExpiredIDs(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, id := range ids {
		reclaimed, err := s.sweepHold(ctx, id)
		if err != nil {
			log.Printf("sweeper: hold %s: %v", id, err)
			continue
		}
		if reclaimed {
			swept++
		}
	}
	return swept, nil
}

func (s *Sweeper) sweepHold(ctx context.Context, holdID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hold, err := s.holds.GetByIDForUpdateTx(ctx, tx, holdID)
	if err != nil {
		return false, err
	}
	if hold.Status != model.HoldActive {
		// Finalize or an explicit release won the race after the
		// listing; nothing to reclaim.
		return false, nil
	}
	if err := releaseSeatsTx(ctx, tx, s.ledger, hold); err != nil {
		return false, err
	}
	if err := s.holds.UpdateStatusTx(ctx, tx, hold.ID, model.HoldActive, model.HoldExpired); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
