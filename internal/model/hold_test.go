package model_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cinetick/booking/internal/model"
)

func TestHoldExpiredAt(t *testing.T) {
	expires := time.Date(2026, 3, 14, 18, 10, 0, 0, time.UTC)
	h := &model.Hold{ExpiresAt: expires}

	assert.False(t, h.ExpiredAt(expires.Add(-time.Second)))
	// Exactly at the expiry instant the hold counts as expired.
	assert.True(t, h.ExpiredAt(expires))
	assert.True(t, h.ExpiredAt(expires.Add(time.Second)))
}

func TestHoldTotals(t *testing.T) {
	h := &model.Hold{
		ID: "hold-1",
		Seats: []model.HoldSeat{
			{HoldID: "hold-1", SeatLabel: "A1", PriceCents: 1200},
			{HoldID: "hold-1", SeatLabel: "A2", PriceCents: 1500},
		},
	}

	assert.Equal(t, []string{"A1", "A2"}, h.SeatLabels())
	assert.Equal(t, uint64(2700), h.TotalCents())

	empty := &model.Hold{}
	assert.Empty(t, empty.SeatLabels())
	assert.Equal(t, uint64(0), empty.TotalCents())
}

func TestHoldTotalDoesNotWrap(t *testing.T) {
	h := &model.Hold{
		Seats: []model.HoldSeat{
			{SeatLabel: "A1", PriceCents: math.MaxUint32},
			{SeatLabel: "A2", PriceCents: math.MaxUint32},
		},
	}
	assert.Equal(t, uint64(math.MaxUint32)*2, h.TotalCents())
}
