package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auctionrepo "github.com/darrengowling/joeyjones-sub001/go/internal/auction/auction"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

type fakeStore struct {
	mu           sync.Mutex
	auctions     map[uuid.UUID]*models.Auction
	participants map[uuid.UUID]*models.Participant
	bids         []models.Bid

	failResolve  error
	rejectBidSeq bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		auctions:     make(map[uuid.UUID]*models.Auction),
		participants: make(map[uuid.UUID]*models.Participant),
	}
}

func (s *fakeStore) GetAuction(_ context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, auctionrepo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) ListAuctionsByStatus(_ context.Context, status models.AuctionStatus) ([]models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Auction
	for _, a := range s.auctions {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) AcceptBid(_ context.Context, p auctionrepo.AcceptBidParams) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectBidSeq {
		return nil, auctionrepo.ErrSeqConflict
	}
	a := s.auctions[p.AuctionID]
	if a.Status != models.AuctionStatusActive || a.BidSeq != p.ExpectedSeq {
		return nil, auctionrepo.ErrSeqConflict
	}
	a.BidSeq = p.ExpectedSeq + 1
	a.CurrentBidAmount = &p.Amount
	a.CurrentBidderID = &p.ParticipantID
	a.LotDeadline = &p.Deadline
	a.EventSeq = p.EventSeq
	b := models.Bid{
		ID:            uuid.New(),
		AuctionID:     p.AuctionID,
		AssetID:       p.AssetID,
		ParticipantID: p.ParticipantID,
		Amount:        p.Amount,
		Seq:           a.BidSeq,
		AcceptedAt:    p.AcceptedAt,
	}
	s.bids = append(s.bids, b)
	return &b, nil
}

func (s *fakeStore) StartLot(_ context.Context, p auctionrepo.StartLotParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auctions[p.AuctionID]
	a.Status = models.AuctionStatusActive
	a.LotIndex = p.LotIndex
	a.CurrentAssetID = &p.AssetID
	a.CurrentBidAmount = nil
	a.CurrentBidderID = nil
	a.LotDeadline = &p.Deadline
	a.EventSeq = p.EventSeq
	return nil
}

func (s *fakeStore) Pause(_ context.Context, p auctionrepo.PauseParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auctions[p.AuctionID]
	a.Status = models.AuctionStatusPaused
	a.PausedRemaining = &p.Remaining
	a.LotDeadline = nil
	a.EventSeq = p.EventSeq
	return nil
}

func (s *fakeStore) Resume(_ context.Context, p auctionrepo.ResumeParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auctions[p.AuctionID]
	a.Status = models.AuctionStatusActive
	a.PausedRemaining = nil
	a.LotDeadline = &p.Deadline
	a.EventSeq = p.EventSeq
	return nil
}

func (s *fakeStore) ResolveLot(_ context.Context, p auctionrepo.ResolveLotParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failResolve != nil {
		return s.failResolve
	}
	if p.WinnerID != nil {
		w := s.participants[*p.WinnerID]
		w.RemainingBudget -= *p.Amount
		w.WonAssets = append(w.WonAssets, p.AssetID)
	}
	a := s.auctions[p.AuctionID]
	a.Status = p.Status
	a.LotIndex = p.LotIndex
	a.CurrentAssetID = p.NextAssetID
	a.CurrentBidAmount = nil
	a.CurrentBidderID = nil
	a.LotDeadline = p.NextDeadline
	a.AssetQueue = p.NewQueue
	a.UnsoldAssets = p.NewUnsold
	a.ReofferDone = p.ReofferDone
	a.LotsSold = p.LotsSold
	a.EventSeq = p.EventSeq
	return nil
}

type fakeLeagues struct {
	league *models.League
	store  *fakeStore
}

func (l *fakeLeagues) GetLeague(_ context.Context, id uuid.UUID) (*models.League, error) {
	cp := *l.league
	return &cp, nil
}

func (l *fakeLeagues) GetParticipantsByLeague(_ context.Context, _ uuid.UUID) ([]models.Participant, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	var out []models.Participant
	for _, p := range l.store.participants {
		out = append(out, *p)
	}
	return out, nil
}

func (l *fakeLeagues) IsMember(_ context.Context, _ uuid.UUID, participantID uuid.UUID) (bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	_, ok := l.store.participants[participantID]
	return ok, nil
}

type emitted struct {
	eventType string
	seq       int64
	payload   any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
	ticks  []any
}

func (e *fakeEmitter) Emit(_ context.Context, _ uuid.UUID, eventType string, seq int64, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{eventType: eventType, seq: seq, payload: payload})
	return nil
}

func (e *fakeEmitter) EmitTick(_ uuid.UUID, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks = append(e.ticks, payload)
	return nil
}

func (e *fakeEmitter) byType(eventType string) []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emitted
	for _, ev := range e.events {
		if ev.eventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type roomFixture struct {
	room    *Room
	store   *fakeStore
	emitter *fakeEmitter
	clock   *clockwork.FakeClock
	owner   uuid.UUID
	bidders []uuid.UUID
	assets  []uuid.UUID
	cancel  context.CancelFunc
}

func testSettings() models.AuctionSettings {
	return models.AuctionSettings{
		BudgetPerParticipant: 50_000_000,
		MinBidFloor:          1_000_000,
		MinIncrement:         500_000,
		TimerSec:             60,
		AntiSnipeSec:         10,
	}
}

func newRoomFixture(t *testing.T, numAssets, numBidders int, settings models.AuctionSettings) *roomFixture {
	t.Helper()

	store := newFakeStore()
	leagueID := uuid.New()
	owner := uuid.New()

	assets := make([]uuid.UUID, numAssets)
	for i := range assets {
		assets[i] = uuid.New()
	}
	bidders := make([]uuid.UUID, numBidders)
	for i := range bidders {
		id := uuid.New()
		bidders[i] = id
		store.participants[id] = &models.Participant{
			ID:              id,
			LeagueID:        leagueID,
			UserID:          uuid.New(),
			DisplayName:     "manager-" + id.String()[:8],
			RemainingBudget: settings.BudgetPerParticipant,
		}
	}

	a := &models.Auction{
		ID:         uuid.New(),
		LeagueID:   leagueID,
		OwnerID:    owner,
		Status:     models.AuctionStatusWaiting,
		AssetQueue: assets,
		Settings:   settings,
	}
	store.auctions[a.ID] = a

	league := &models.League{
		ID:             leagueID,
		Name:           "test league",
		CommissionerID: owner,
		RequiredSlots:  3,
		Status:         models.LeagueStatusActive,
	}
	leagues := &fakeLeagues{league: league, store: store}
	emitter := &fakeEmitter{}
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	parts, err := leagues.GetParticipantsByLeague(ctx, leagueID)
	require.NoError(t, err)

	cached := *a
	room := newRoom(&cached, league, parts, store, leagues, emitter, clock, time.Second, zerolog.Nop())
	go room.run(ctx)

	return &roomFixture{
		room:    room,
		store:   store,
		emitter: emitter,
		clock:   clock,
		owner:   owner,
		bidders: bidders,
		assets:  assets,
		cancel:  cancel,
	}
}

func (f *roomFixture) mustBid(t *testing.T, bidder, asset uuid.UUID, amount int64) *models.Bid {
	t.Helper()
	b, err := f.room.PlaceBid(context.Background(), bid.PlaceBidRequest{
		AuctionID:     f.room.auctionID,
		AssetID:       asset,
		ParticipantID: bidder,
		Amount:        amount,
	})
	require.NoError(t, err)
	return b
}

func (f *roomFixture) snapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := f.room.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestRoomBeginOpensFirstLot(t *testing.T) {
	f := newRoomFixture(t, 3, 2, testSettings())
	ctx := context.Background()

	err := f.room.Begin(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.room.Begin(ctx, f.owner))

	snap := f.snapshot(t)
	assert.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	assert.Equal(t, 1, snap.Auction.LotIndex)
	require.NotNil(t, snap.CurrentAsset)
	assert.Equal(t, f.assets[0], *snap.CurrentAsset)
	require.NotNil(t, snap.Auction.LotDeadline)
	assert.Equal(t, f.clock.Now().Add(60*time.Second), *snap.Auction.LotDeadline)

	started := f.emitter.byType(events.TypeLotStarted)
	require.Len(t, started, 1)
	assert.Equal(t, int64(1), started[0].seq)

	var conflict *StateConflictError
	err = f.room.Begin(ctx, f.owner)
	require.ErrorAs(t, err, &conflict)
}

func TestRoomUncontestedWinAdvancesLot(t *testing.T) {
	f := newRoomFixture(t, 3, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	winner := f.bidders[0]
	b := f.mustBid(t, winner, f.assets[0], 5_000_000)
	assert.Equal(t, int64(1), b.Seq)

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 1))

	snap := f.snapshot(t)
	assert.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	assert.Equal(t, 2, snap.Auction.LotIndex)
	assert.Equal(t, f.assets[1], *snap.CurrentAsset)
	assert.Nil(t, snap.Auction.CurrentBidAmount)
	assert.Equal(t, 1, snap.Auction.LotsSold)

	for _, p := range snap.Participants {
		if p.ID == winner {
			assert.Equal(t, int64(45_000_000), p.RemainingBudget)
			assert.Equal(t, []uuid.UUID{f.assets[0]}, p.WonAssets)
		}
	}

	completes := f.emitter.byType(events.TypeLotComplete)
	require.Len(t, completes, 1)
	payload := completes[0].payload.(events.LotCompletePayload)
	assert.Equal(t, events.LotOutcomeSold, payload.Outcome)
	assert.Equal(t, winner, *payload.WinnerID)
	assert.Equal(t, int64(5_000_000), *payload.Amount)

	// lot_complete then next lot_started, strictly sequenced.
	started := f.emitter.byType(events.TypeLotStarted)
	require.Len(t, started, 2)
	assert.Equal(t, completes[0].seq+1, started[1].seq)
}

func TestRoomAntiSnipeExtension(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	// Plenty of time left: deadline untouched.
	f.clock.Advance(20 * time.Second)
	originalDeadline := *f.snapshot(t).Auction.LotDeadline
	f.mustBid(t, f.bidders[0], f.assets[0], 2_000_000)
	assert.Equal(t, originalDeadline, *f.snapshot(t).Auction.LotDeadline)

	// Inside the window: deadline becomes now + window.
	f.clock.Advance(36 * time.Second) // 4s remaining
	f.mustBid(t, f.bidders[1], f.assets[0], 3_000_000)
	snap := f.snapshot(t)
	assert.Equal(t, f.clock.Now().Add(10*time.Second), *snap.Auction.LotDeadline)

	placed := f.emitter.byType(events.TypeBidPlaced)
	require.Len(t, placed, 2)
	payload := placed[1].payload.(events.BidPlacedPayload)
	assert.Equal(t, *snap.Auction.LotDeadline, payload.Deadline)
}

func TestRoomDuplicateExpirationIgnored(t *testing.T) {
	f := newRoomFixture(t, 3, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 1))
	require.Equal(t, 2, f.snapshot(t).Auction.LotIndex)

	// Same generation again, and a stale one: both no-ops.
	require.NoError(t, f.room.ExpireLot(ctx, 1))
	require.NoError(t, f.room.ExpireLot(ctx, 0))

	snap := f.snapshot(t)
	assert.Equal(t, 2, snap.Auction.LotIndex)
	assert.Len(t, f.emitter.byType(events.TypeLotComplete), 1)
}

func TestRoomFinalLotAwardAndCompleteAtomically(t *testing.T) {
	f := newRoomFixture(t, 1, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	winner := f.bidders[1]
	f.mustBid(t, winner, f.assets[0], 4_000_000)

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 1))

	completes := f.emitter.byType(events.TypeAuctionComplete)
	require.Len(t, completes, 1)
	payload := completes[0].payload.(events.AuctionCompletePayload)
	assert.Equal(t, "ALL_LOTS_EXHAUSTED", payload.Reason)
	require.NotNil(t, payload.FinalWinnerID)
	assert.Equal(t, winner, *payload.FinalWinnerID)
	assert.Equal(t, int64(4_000_000), *payload.FinalAmount)

	f.store.mu.Lock()
	stored := *f.store.auctions[f.room.auctionID]
	wonBudget := f.store.participants[winner].RemainingBudget
	f.store.mu.Unlock()
	assert.Equal(t, models.AuctionStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.LotsSold)
	assert.Equal(t, int64(46_000_000), wonBudget)

	// The room goroutine exits after the terminal transition.
	select {
	case <-f.room.done:
	case <-time.After(time.Second):
		t.Fatal("room did not shut down after completion")
	}
}

func TestRoomUnsoldAssetsGetOneReofferPass(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	// Both lots lapse with no bids.
	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 1))
	snap := f.snapshot(t)
	assert.Equal(t, []uuid.UUID{f.assets[0]}, snap.Auction.UnsoldAssets)
	assert.False(t, snap.Auction.ReofferDone)

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 2))

	// Queue exhausted: both unsold assets re-enter, oldest first.
	snap = f.snapshot(t)
	assert.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	assert.True(t, snap.Auction.ReofferDone)
	assert.Empty(t, snap.Auction.UnsoldAssets)
	assert.Equal(t, []uuid.UUID{f.assets[0], f.assets[1], f.assets[0], f.assets[1]}, snap.Auction.AssetQueue)
	assert.Equal(t, 3, snap.Auction.LotIndex)
	assert.Equal(t, f.assets[0], *snap.CurrentAsset)

	// Re-offered lots lapse too: no second pass, the auction ends.
	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 3))
	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 4))

	completes := f.emitter.byType(events.TypeAuctionComplete)
	require.Len(t, completes, 1)
	assert.Equal(t, "ALL_LOTS_EXHAUSTED", completes[0].payload.(events.AuctionCompletePayload).Reason)
}

func TestRoomReofferedAssetCanSell(t *testing.T) {
	f := newRoomFixture(t, 1, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 1))

	snap := f.snapshot(t)
	require.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	require.Equal(t, f.assets[0], *snap.CurrentAsset)

	f.mustBid(t, f.bidders[0], f.assets[0], 1_500_000)
	f.clock.Advance(61 * time.Second)
	require.NoError(t, f.room.ExpireLot(ctx, 2))

	completes := f.emitter.byType(events.TypeAuctionComplete)
	require.Len(t, completes, 1)
	payload := completes[0].payload.(events.AuctionCompletePayload)
	assert.Equal(t, "ALL_LOTS_EXHAUSTED", payload.Reason)
	assert.Equal(t, f.bidders[0], *payload.FinalWinnerID)
}

func TestRoomPauseResumePreservesRemainingTime(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	f.mustBid(t, f.bidders[0], f.assets[0], 2_000_000)

	f.clock.Advance(20 * time.Second)
	assert.ErrorIs(t, f.room.Pause(ctx, uuid.New()), ErrNotOwner)
	require.NoError(t, f.room.Pause(ctx, f.owner))

	snap := f.snapshot(t)
	assert.Equal(t, models.AuctionStatusPaused, snap.Auction.Status)
	assert.Nil(t, snap.Auction.LotDeadline)
	require.NotNil(t, snap.Auction.PausedRemaining)
	assert.Equal(t, 40*time.Second, *snap.Auction.PausedRemaining)
	// Standing bid survives the pause.
	assert.Equal(t, int64(2_000_000), *snap.Auction.CurrentBidAmount)

	// Bids during a pause are refused.
	_, err := f.room.PlaceBid(ctx, bid.PlaceBidRequest{
		AuctionID:     f.room.auctionID,
		AssetID:       f.assets[0],
		ParticipantID: f.bidders[1],
		Amount:        3_000_000,
	})
	var rej *bid.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, bid.ReasonAuctionNotActive, rej.Reason)

	// Time passing while paused does not burn lot time.
	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.room.Resume(ctx, f.owner))

	snap = f.snapshot(t)
	assert.Equal(t, models.AuctionStatusActive, snap.Auction.Status)
	assert.Equal(t, f.clock.Now().Add(40*time.Second), *snap.Auction.LotDeadline)

	assert.Len(t, f.emitter.byType(events.TypeAuctionPaused), 1)
	assert.Len(t, f.emitter.byType(events.TypeAuctionResumed), 1)
}

func TestRoomBidRejectionsLeaveStateUntouched(t *testing.T) {
	f := newRoomFixture(t, 2, 1, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	_, err := f.room.PlaceBid(ctx, bid.PlaceBidRequest{
		AuctionID:     f.room.auctionID,
		AssetID:       f.assets[0],
		ParticipantID: uuid.New(), // not in the league
		Amount:        2_000_000,
	})
	var rej *bid.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, bid.ReasonNotAParticipant, rej.Reason)

	snap := f.snapshot(t)
	assert.Nil(t, snap.Auction.CurrentBidAmount)
	assert.Zero(t, snap.Auction.BidSeq)
	assert.Empty(t, f.emitter.byType(events.TypeBidPlaced))
}

func TestRoomSeqConflictSurfacesAsResync(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	f.store.mu.Lock()
	f.store.rejectBidSeq = true
	f.store.mu.Unlock()

	_, err := f.room.PlaceBid(ctx, bid.PlaceBidRequest{
		AuctionID:     f.room.auctionID,
		AssetID:       f.assets[0],
		ParticipantID: f.bidders[0],
		Amount:        2_000_000,
	})
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)

	snap := f.snapshot(t)
	assert.Nil(t, snap.Auction.CurrentBidAmount)
	assert.Zero(t, snap.Auction.BidSeq)
}

func TestRoomResolutionFailureRetriesCleanly(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))
	f.mustBid(t, f.bidders[0], f.assets[0], 2_000_000)

	f.store.mu.Lock()
	f.store.failResolve = context.DeadlineExceeded
	f.store.mu.Unlock()

	f.clock.Advance(61 * time.Second)
	require.Error(t, f.room.ExpireLot(ctx, 1))

	// Nothing moved: the lot is still open with its bid intact.
	snap := f.snapshot(t)
	assert.Equal(t, 1, snap.Auction.LotIndex)
	assert.Equal(t, int64(2_000_000), *snap.Auction.CurrentBidAmount)
	assert.Empty(t, f.emitter.byType(events.TypeLotComplete))

	f.store.mu.Lock()
	f.store.failResolve = nil
	f.store.mu.Unlock()

	require.NoError(t, f.room.ExpireLot(ctx, 1))
	snap = f.snapshot(t)
	assert.Equal(t, 2, snap.Auction.LotIndex)
	assert.Equal(t, 1, snap.Auction.LotsSold)
}

func TestRoomTicksCarryDeadlineAndServerTime(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))

	deadline := *f.snapshot(t).Auction.LotDeadline
	f.clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		f.emitter.mu.Lock()
		defer f.emitter.mu.Unlock()
		return len(f.emitter.ticks) >= 1
	}, time.Second, 5*time.Millisecond)

	f.emitter.mu.Lock()
	tick := f.emitter.ticks[0].(events.TickPayload)
	f.emitter.mu.Unlock()
	assert.Equal(t, 1, tick.LotIndex)
	assert.Equal(t, uint64(1), tick.Generation)
	assert.Equal(t, int64(1), tick.TickSeq)
	assert.Equal(t, deadline, tick.Deadline)
	assert.Equal(t, f.clock.Now(), tick.ServerNow)
}

func TestRoomTimerDrivenExpiration(t *testing.T) {
	f := newRoomFixture(t, 2, 2, testSettings())
	ctx := context.Background()
	require.NoError(t, f.room.Begin(ctx, f.owner))
	f.mustBid(t, f.bidders[0], f.assets[0], 2_000_000)

	// Walk the fake clock tick by tick so the room's own ticker drives the
	// expiration, exactly as in production.
	for i := 0; i < 61; i++ {
		f.clock.Advance(time.Second)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return f.snapshot(t).Auction.LotIndex == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap := f.snapshot(t)
	assert.Equal(t, 1, snap.Auction.LotsSold)
	require.Len(t, f.emitter.byType(events.TypeLotComplete), 1)
}
