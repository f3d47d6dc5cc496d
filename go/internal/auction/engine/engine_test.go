package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

func newEngineFixture(t *testing.T) (*Engine, *fakeStore, *fakeLeagues, *fakeEmitter, *clockwork.FakeClock) {
	t.Helper()
	store := newFakeStore()
	league := &models.League{
		ID:             uuid.New(),
		Name:           "test league",
		CommissionerID: uuid.New(),
		RequiredSlots:  3,
		Status:         models.LeagueStatusActive,
	}
	leagues := &fakeLeagues{league: league, store: store}
	emitter := &fakeEmitter{}
	clock := clockwork.NewFakeClock()
	eng := NewEngine(store, leagues, emitter, clock, DefaultConfig(), zerolog.Nop())
	t.Cleanup(eng.Stop)
	return eng, store, leagues, emitter, clock
}

func seedAuction(store *fakeStore, league *models.League, status models.AuctionStatus, numAssets int) *models.Auction {
	assets := make([]uuid.UUID, numAssets)
	for i := range assets {
		assets[i] = uuid.New()
	}
	a := &models.Auction{
		ID:         uuid.New(),
		LeagueID:   league.ID,
		OwnerID:    league.CommissionerID,
		Status:     status,
		AssetQueue: assets,
		Settings:   testSettings(),
	}
	store.auctions[a.ID] = a
	return a
}

func seedParticipant(store *fakeStore, leagueID uuid.UUID, budget int64) uuid.UUID {
	id := uuid.New()
	store.participants[id] = &models.Participant{
		ID:              id,
		LeagueID:        leagueID,
		UserID:          uuid.New(),
		DisplayName:     "manager-" + id.String()[:8],
		RemainingBudget: budget,
	}
	return id
}

func TestEngineRoutesCommandsToRoom(t *testing.T) {
	eng, store, leagues, _, _ := newEngineFixture(t)
	ctx := context.Background()

	a := seedAuction(store, leagues.league, models.AuctionStatusWaiting, 2)
	bidder := seedParticipant(store, leagues.league.ID, 50_000_000)

	require.NoError(t, eng.Start(ctx))
	require.NoError(t, eng.Begin(ctx, a.ID, a.OwnerID))

	placed, err := eng.PlaceBid(ctx, bid.PlaceBidRequest{
		AuctionID:     a.ID,
		AssetID:       a.AssetQueue[0],
		ParticipantID: bidder,
		Amount:        2_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), placed.Seq)

	snap, err := eng.Snapshot(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	assert.Equal(t, int64(2_000_000), *snap.Auction.CurrentBidAmount)
}

func TestEngineRehydratesLiveAuctionsOnStart(t *testing.T) {
	eng, store, leagues, emitter, clock := newEngineFixture(t)
	ctx := context.Background()

	// An auction that was mid-lot when the process stopped, its deadline
	// already in the past.
	a := seedAuction(store, leagues.league, models.AuctionStatusActive, 2)
	seedParticipant(store, leagues.league.ID, 50_000_000)
	deadline := clock.Now().Add(-5 * time.Second)
	asset := a.AssetQueue[0]
	a.LotIndex = 1
	a.CurrentAssetID = &asset
	a.LotDeadline = &deadline

	require.NoError(t, eng.Start(ctx))

	eng.mu.Lock()
	_, hydrated := eng.rooms[a.ID]
	eng.mu.Unlock()
	require.True(t, hydrated)

	// The first tick resolves the overdue lot.
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		snap, err := eng.Snapshot(ctx, a.ID)
		return err == nil && snap.Auction.LotIndex == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, emitter.byType(events.TypeLotComplete), 1)
}

func TestEngineServesCompletedSnapshotsWithoutRoom(t *testing.T) {
	eng, store, leagues, _, _ := newEngineFixture(t)
	ctx := context.Background()

	a := seedAuction(store, leagues.league, models.AuctionStatusCompleted, 1)
	a.LotsSold = 1
	seedParticipant(store, leagues.league.ID, 45_000_000)

	require.NoError(t, eng.Start(ctx))

	snap, err := eng.Snapshot(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionStatusCompleted, snap.Auction.Status)
	assert.Len(t, snap.Participants, 1)

	eng.mu.Lock()
	_, exists := eng.rooms[a.ID]
	eng.mu.Unlock()
	assert.False(t, exists)

	// Commands against a finished auction fail fast.
	err = eng.Begin(ctx, a.ID, a.OwnerID)
	assert.ErrorIs(t, err, ErrAuctionCompleted)
}
