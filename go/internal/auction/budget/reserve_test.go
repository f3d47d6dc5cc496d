package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxBid_ReservesForRemainingSlots(t *testing.T) {
	// 100m budget, 0 of 5 slots filled, 1m per-slot minimum.
	// Winning this lot leaves 4 open slots, so 4m stays reserved.
	assert.Equal(t, int64(96_000_000), MaxBid(100_000_000, 0, 5, 1_000_000))
}

func TestMaxBid_LastSlotSpendsEverything(t *testing.T) {
	// One slot left to fill: nothing needs to be reserved.
	assert.Equal(t, int64(7_500_000), MaxBid(7_500_000, 4, 5, 1_000_000))
}

func TestMaxBid_OverfilledRosterDoesNotGoNegativeOnReserve(t *testing.T) {
	// filled == required: slotsRemainingAfterWin clamps at zero. The
	// validator rejects this participant outright; the formula itself
	// must still be well defined.
	assert.Equal(t, int64(3_000_000), MaxBid(3_000_000, 5, 5, 1_000_000))
}

func TestMaxBid_CanBeNegativeWhenBudgetTooLow(t *testing.T) {
	// Reserve exceeds budget: ceiling goes negative, every bid fails.
	assert.Equal(t, int64(-1_000_000), MaxBid(3_000_000, 0, 5, 1_000_000))
}

func TestMaxBid_ZeroPerSlotMinimum(t *testing.T) {
	assert.Equal(t, int64(42), MaxBid(42, 0, 10, 0))
}
