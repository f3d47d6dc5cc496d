package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	auctionrepo "github.com/darrengowling/joeyjones-sub001/go/internal/auction/auction"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/budget"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/events"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// Room owns one live auction. All mutating operations funnel through a
// single goroutine, so per-auction state transitions are strictly
// serialized: no locks, no partial interleavings.
//
// Persistence commits before the in-memory copy mutates. If the store
// rejects a transition the cached state is untouched and the auction
// remains consistent.
type Room struct {
	auctionID uuid.UUID

	store   AuctionStore
	leagues LeagueStore
	emitter Emitter
	clock   clockwork.Clock
	logger  zerolog.Logger

	tickInterval time.Duration

	cmds chan func()
	done chan struct{}

	// Loop-owned state. Never touched outside the run goroutine.
	a            *models.Auction
	league       *models.League
	participants map[uuid.UUID]*models.Participant
	validator    bid.Validator
	lastExpired  uint64
	tickSeq      int64
}

func newRoom(a *models.Auction, league *models.League, parts []models.Participant, store AuctionStore, leagues LeagueStore, emitter Emitter, clock clockwork.Clock, tickInterval time.Duration, logger zerolog.Logger) *Room {
	pm := make(map[uuid.UUID]*models.Participant, len(parts))
	for i := range parts {
		p := parts[i]
		pm[p.ID] = &p
	}
	return &Room{
		auctionID:    a.ID,
		store:        store,
		leagues:      leagues,
		emitter:      emitter,
		clock:        clock,
		logger:       logger.With().Str("auction_id", a.ID.String()).Logger(),
		tickInterval: tickInterval,
		cmds:         make(chan func()),
		done:         make(chan struct{}),
		a:            a,
		league:       league,
		participants: pm,
		// Lot resolutions before the process started must not replay.
		lastExpired: generationFor(a.LotIndex, a.Status),
	}
}

// generation identifies the currently open lot. Stale expirations carry an
// older generation and are dropped.
func (r *Room) generation() uint64 {
	return uint64(r.a.LotIndex)
}

func generationFor(lotIndex int, status models.AuctionStatus) uint64 {
	if status == models.AuctionStatusCompleted {
		return uint64(lotIndex) + 1
	}
	if lotIndex > 0 {
		return uint64(lotIndex) - 1
	}
	return 0
}

func (r *Room) run(ctx context.Context) {
	defer close(r.done)
	ticker := r.clock.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.cmds:
			fn()
			if r.a.Status == models.AuctionStatusCompleted {
				return
			}
		case <-ticker.Chan():
			r.onTick(ctx)
			if r.a.Status == models.AuctionStatusCompleted {
				return
			}
		}
	}
}

// do runs fn on the room goroutine and waits for it to finish.
func (r *Room) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case r.cmds <- func() { reply <- fn() }:
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Begin opens the first lot. Owner-only; the auction must still be waiting.
func (r *Room) Begin(ctx context.Context, requesterID uuid.UUID) error {
	return r.do(ctx, func() error {
		if requesterID != r.a.OwnerID {
			return ErrNotOwner
		}
		if r.a.Status != models.AuctionStatusWaiting {
			return &StateConflictError{Op: "begin", Want: models.AuctionStatusWaiting, Got: r.a.Status}
		}
		if len(r.a.AssetQueue) == 0 {
			return fmt.Errorf("auction %s has an empty asset queue", r.a.ID)
		}
		return r.startLot(ctx, 1)
	})
}

// PlaceBid validates and persists one bid attempt. A *bid.Rejection error
// carries the reason code for the caller's 422 response.
func (r *Room) PlaceBid(ctx context.Context, req bid.PlaceBidRequest) (*models.Bid, error) {
	var placed *models.Bid
	err := r.do(ctx, func() error {
		b, err := r.placeBid(ctx, req)
		placed = b
		return err
	})
	return placed, err
}

func (r *Room) placeBid(ctx context.Context, req bid.PlaceBidRequest) (*models.Bid, error) {
	p, err := r.participant(ctx, req.ParticipantID)
	if err != nil {
		return nil, err
	}
	if rej := r.validator.Validate(r.a, p, r.league.RequiredSlots, req.AssetID, req.Amount); rej != nil {
		return nil, rej
	}

	now := r.clock.Now()
	deadline := *r.a.LotDeadline
	if anti := time.Duration(r.a.Settings.AntiSnipeSec) * time.Second; deadline.Sub(now) < anti {
		deadline = now.Add(anti)
	}

	eventSeq := r.a.EventSeq + 1
	b, err := r.store.AcceptBid(ctx, auctionrepo.AcceptBidParams{
		AuctionID:     r.a.ID,
		AssetID:       req.AssetID,
		ParticipantID: req.ParticipantID,
		Amount:        req.Amount,
		ExpectedSeq:   r.a.BidSeq,
		AcceptedAt:    now,
		Deadline:      deadline,
		EventSeq:      eventSeq,
	})
	if errors.Is(err, auctionrepo.ErrSeqConflict) {
		return nil, &StateConflictError{Op: "bid", Want: models.AuctionStatusActive, Got: r.a.Status}
	}
	if err != nil {
		return nil, fmt.Errorf("persist bid: %w", err)
	}

	r.a.BidSeq = b.Seq
	r.a.EventSeq = eventSeq
	amount := req.Amount
	bidder := req.ParticipantID
	r.a.CurrentBidAmount = &amount
	r.a.CurrentBidderID = &bidder
	r.a.LotDeadline = &deadline

	r.emit(ctx, events.TypeBidPlaced, eventSeq, events.BidPlacedPayload{
		AssetID:       req.AssetID,
		ParticipantID: req.ParticipantID,
		Amount:        req.Amount,
		BidSeq:        b.Seq,
		Deadline:      deadline,
		AcceptedAt:    now,
	})
	return b, nil
}

// participant resolves the bidder against the cached roster, reloading once
// if someone joined the league after the room was hydrated. A nil result
// means the bidder is not a member.
func (r *Room) participant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	if p, ok := r.participants[id]; ok {
		return p, nil
	}
	member, err := r.leagues.IsMember(ctx, r.a.LeagueID, id)
	if err != nil {
		return nil, fmt.Errorf("check league membership: %w", err)
	}
	if !member {
		return nil, nil
	}
	parts, err := r.leagues.GetParticipantsByLeague(ctx, r.a.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("reload participants: %w", err)
	}
	for i := range parts {
		p := parts[i]
		if _, ok := r.participants[p.ID]; !ok {
			r.participants[p.ID] = &p
		}
	}
	return r.participants[id], nil
}

// Pause freezes the lot timer, preserving the remaining time and the
// standing bid.
func (r *Room) Pause(ctx context.Context, requesterID uuid.UUID) error {
	return r.do(ctx, func() error {
		if requesterID != r.a.OwnerID {
			return ErrNotOwner
		}
		if r.a.Status != models.AuctionStatusActive || r.a.LotDeadline == nil {
			return &StateConflictError{Op: "pause", Want: models.AuctionStatusActive, Got: r.a.Status}
		}

		now := r.clock.Now()
		remaining := r.a.LotDeadline.Sub(now)
		if remaining < 0 {
			remaining = 0
		}

		eventSeq := r.a.EventSeq + 1
		if err := r.store.Pause(ctx, auctionrepo.PauseParams{
			AuctionID: r.a.ID,
			Remaining: remaining,
			EventSeq:  eventSeq,
		}); err != nil {
			return fmt.Errorf("persist pause: %w", err)
		}

		r.a.Status = models.AuctionStatusPaused
		r.a.PausedRemaining = &remaining
		r.a.LotDeadline = nil
		r.a.EventSeq = eventSeq

		r.emit(ctx, events.TypeAuctionPaused, eventSeq, events.AuctionPausedPayload{
			PausedAt:     now,
			RemainingSec: remaining.Seconds(),
		})
		return nil
	})
}

// Resume restarts the lot timer with exactly the time that was left at
// pause.
func (r *Room) Resume(ctx context.Context, requesterID uuid.UUID) error {
	return r.do(ctx, func() error {
		if requesterID != r.a.OwnerID {
			return ErrNotOwner
		}
		if r.a.Status != models.AuctionStatusPaused || r.a.PausedRemaining == nil {
			return &StateConflictError{Op: "resume", Want: models.AuctionStatusPaused, Got: r.a.Status}
		}

		now := r.clock.Now()
		deadline := now.Add(*r.a.PausedRemaining)

		eventSeq := r.a.EventSeq + 1
		if err := r.store.Resume(ctx, auctionrepo.ResumeParams{
			AuctionID: r.a.ID,
			Deadline:  deadline,
			EventSeq:  eventSeq,
		}); err != nil {
			return fmt.Errorf("persist resume: %w", err)
		}

		r.a.Status = models.AuctionStatusActive
		r.a.PausedRemaining = nil
		r.a.LotDeadline = &deadline
		r.a.EventSeq = eventSeq

		r.emit(ctx, events.TypeAuctionResumed, eventSeq, events.AuctionResumedPayload{
			ResumedAt: now,
			Deadline:  deadline,
		})
		return nil
	})
}

// ExpireLot resolves the lot identified by generation. Stale or duplicate
// signals are ignored, so a timer that fires twice (or fires for a lot that
// was already resolved) is harmless.
func (r *Room) ExpireLot(ctx context.Context, generation uint64) error {
	return r.do(ctx, func() error {
		return r.expire(ctx, generation)
	})
}

func (r *Room) expire(ctx context.Context, generation uint64) error {
	if r.a.Status != models.AuctionStatusActive {
		return nil
	}
	if generation != r.generation() || generation <= r.lastExpired {
		r.logger.Debug().
			Uint64("generation", generation).
			Uint64("current", r.generation()).
			Msg("ignoring stale lot expiration")
		return nil
	}
	if err := r.resolveLot(ctx); err != nil {
		// State is untouched; the next tick retries the resolution.
		r.logger.Error().Err(err).Int("lot_index", r.a.LotIndex).Msg("lot resolution failed")
		return err
	}
	r.lastExpired = generation
	return nil
}

// Snapshot returns a consistent full view for client catch-up.
func (r *Room) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := r.do(ctx, func() error {
		snap = r.snapshotLocked()
		return nil
	})
	return snap, err
}

func (r *Room) snapshotLocked() *Snapshot {
	parts := make([]models.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		cp := *p
		cp.WonAssets = append([]uuid.UUID(nil), p.WonAssets...)
		parts = append(parts, cp)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].DisplayName < parts[j].DisplayName })

	a := *r.a
	a.AssetQueue = append([]uuid.UUID(nil), r.a.AssetQueue...)
	a.UnsoldAssets = append([]uuid.UUID(nil), r.a.UnsoldAssets...)
	return &Snapshot{
		Auction:      a,
		CurrentAsset: a.CurrentAssetID,
		Participants: parts,
		ServerNow:    r.clock.Now(),
	}
}

func (r *Room) onTick(ctx context.Context) {
	if r.a.Status != models.AuctionStatusActive || r.a.LotDeadline == nil {
		return
	}
	now := r.clock.Now()
	if now.Before(*r.a.LotDeadline) {
		r.tickSeq++
		if err := r.emitter.EmitTick(r.auctionID, events.TickPayload{
			LotIndex:   r.a.LotIndex,
			Generation: r.generation(),
			TickSeq:    r.tickSeq,
			Deadline:   *r.a.LotDeadline,
			ServerNow:  now,
		}); err != nil {
			r.logger.Warn().Err(err).Msg("tick publish failed")
		}
		return
	}
	_ = r.expire(ctx, r.generation())
}

// startLot opens lot lotIndex (1-based into the current queue) and arms its
// timer.
func (r *Room) startLot(ctx context.Context, lotIndex int) error {
	assetID := r.a.AssetQueue[lotIndex-1]
	now := r.clock.Now()
	deadline := now.Add(time.Duration(r.a.Settings.TimerSec) * time.Second)

	eventSeq := r.a.EventSeq + 1
	if err := r.store.StartLot(ctx, auctionrepo.StartLotParams{
		AuctionID: r.a.ID,
		LotIndex:  lotIndex,
		AssetID:   assetID,
		Deadline:  deadline,
		EventSeq:  eventSeq,
	}); err != nil {
		return fmt.Errorf("persist lot start: %w", err)
	}

	r.a.Status = models.AuctionStatusActive
	r.a.LotIndex = lotIndex
	r.a.CurrentAssetID = &assetID
	r.a.CurrentBidAmount = nil
	r.a.CurrentBidderID = nil
	r.a.LotDeadline = &deadline
	r.a.EventSeq = eventSeq
	r.tickSeq = 0

	r.emit(ctx, events.TypeLotStarted, eventSeq, events.LotStartedPayload{
		LotIndex:  lotIndex,
		AssetID:   assetID,
		Deadline:  deadline,
		TimerSec:  r.a.Settings.TimerSec,
		StartedAt: now,
	})
	return nil
}

// resolveLot closes the current lot at its deadline: awards (or marks
// unsold), advances the queue with at most one re-offer pass for unsold
// assets, and either opens the next lot or completes the auction. The whole
// transition persists atomically before any cached state changes.
func (r *Room) resolveLot(ctx context.Context) error {
	asset := *r.a.CurrentAssetID
	now := r.clock.Now()

	outcome := events.LotOutcomeUnsold
	var winnerID *uuid.UUID
	var amount *int64
	if r.a.CurrentBidAmount != nil && r.a.CurrentBidderID != nil {
		outcome = events.LotOutcomeSold
		w := *r.a.CurrentBidderID
		amt := *r.a.CurrentBidAmount
		winnerID = &w
		amount = &amt
	}

	newQueue := append([]uuid.UUID(nil), r.a.AssetQueue...)
	newUnsold := append([]uuid.UUID(nil), r.a.UnsoldAssets...)
	lotsSold := r.a.LotsSold
	reofferDone := r.a.ReofferDone
	if outcome == events.LotOutcomeSold {
		lotsSold++
	} else {
		newUnsold = append(newUnsold, asset)
	}

	nextIndex := r.a.LotIndex + 1
	if nextIndex > len(newQueue) && !reofferDone && len(newUnsold) > 0 {
		// One re-offer pass: unsold assets rejoin the tail of the queue.
		newQueue = append(newQueue, newUnsold...)
		newUnsold = nil
		reofferDone = true
	}

	counts := make([]budget.ParticipantCounts, 0, len(r.participants))
	for _, p := range r.participants {
		filled := p.SlotsFilled()
		if winnerID != nil && p.ID == *winnerID {
			filled++
		}
		counts = append(counts, budget.ParticipantCounts{
			SlotsFilled:   filled,
			RequiredSlots: r.league.RequiredSlots,
		})
	}
	done, reason := budget.Evaluate(budget.Snapshot{
		Participants: counts,
		LotsSold:     lotsSold,
		LotIndex:     nextIndex,
		TotalLots:    len(newQueue),
		UnsoldCount:  len(newUnsold),
	})
	if !done && nextIndex > len(newQueue) {
		// Queue drained and the re-offer pass is spent. Nothing left to
		// offer, so the auction ends even with unsold assets outstanding.
		done = true
		reason = budget.ReasonAllLotsExhausted
	}

	status := models.AuctionStatusActive
	storedIndex := nextIndex
	var nextAsset *uuid.UUID
	var nextDeadline *time.Time
	if done {
		status = models.AuctionStatusCompleted
		if storedIndex > len(newQueue) {
			storedIndex = len(newQueue)
		}
	} else {
		na := newQueue[nextIndex-1]
		nd := now.Add(time.Duration(r.a.Settings.TimerSec) * time.Second)
		nextAsset = &na
		nextDeadline = &nd
	}

	// Sequence numbers for the event(s) this transition emits.
	seqLotComplete := r.a.EventSeq + 1
	finalSeq := seqLotComplete + 1 // auction_complete or next lot_started

	if err := r.store.ResolveLot(ctx, auctionrepo.ResolveLotParams{
		AuctionID:    r.a.ID,
		AssetID:      asset,
		WinnerID:     winnerID,
		Amount:       amount,
		Status:       status,
		LotIndex:     storedIndex,
		NextAssetID:  nextAsset,
		NextDeadline: nextDeadline,
		NewQueue:     newQueue,
		NewUnsold:    newUnsold,
		ReofferDone:  reofferDone,
		LotsSold:     lotsSold,
		EventSeq:     finalSeq,
	}); err != nil {
		return fmt.Errorf("persist lot resolution: %w", err)
	}

	closedIndex := r.a.LotIndex
	if winnerID != nil {
		if p, ok := r.participants[*winnerID]; ok {
			p.RemainingBudget -= *amount
			p.WonAssets = append(p.WonAssets, asset)
		}
	}
	r.a.Status = status
	r.a.LotIndex = storedIndex
	r.a.CurrentAssetID = nextAsset
	r.a.CurrentBidAmount = nil
	r.a.CurrentBidderID = nil
	r.a.LotDeadline = nextDeadline
	r.a.AssetQueue = newQueue
	r.a.UnsoldAssets = newUnsold
	r.a.ReofferDone = reofferDone
	r.a.LotsSold = lotsSold
	r.a.EventSeq = finalSeq
	r.tickSeq = 0

	r.emit(ctx, events.TypeLotComplete, seqLotComplete, events.LotCompletePayload{
		LotIndex:   closedIndex,
		AssetID:    asset,
		Outcome:    outcome,
		WinnerID:   winnerID,
		Amount:     amount,
		ResolvedAt: now,
	})
	if done {
		r.logger.Info().Str("reason", string(reason)).Msg("auction complete")
		r.emit(ctx, events.TypeAuctionComplete, finalSeq, events.AuctionCompletePayload{
			Reason:        string(reason),
			FinalAssetID:  &asset,
			FinalWinnerID: winnerID,
			FinalAmount:   amount,
			CompletedAt:   now,
		})
	} else {
		r.emit(ctx, events.TypeLotStarted, finalSeq, events.LotStartedPayload{
			LotIndex:  nextIndex,
			AssetID:   *nextAsset,
			Deadline:  *nextDeadline,
			TimerSec:  r.a.Settings.TimerSec,
			StartedAt: now,
		})
	}
	return nil
}

func (r *Room) emit(ctx context.Context, eventType string, seq int64, payload any) {
	if err := r.emitter.Emit(ctx, r.auctionID, eventType, seq, payload); err != nil {
		r.logger.Error().Err(err).Str("event_type", eventType).Int64("seq", seq).Msg("event emit failed")
	}
}
