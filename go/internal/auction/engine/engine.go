package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// Config tunes the engine's timer loop.
type Config struct {
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{TickInterval: time.Second}
}

// Engine hosts one Room per live auction and routes commands to them.
// Rooms spin up lazily on first use and on boot rehydration, and are torn
// down when their auction completes.
type Engine struct {
	store   AuctionStore
	leagues LeagueStore
	emitter Emitter
	clock   clockwork.Clock
	config  Config
	logger  zerolog.Logger

	mu      sync.Mutex
	rooms   map[uuid.UUID]*Room
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

func NewEngine(store AuctionStore, leagues LeagueStore, emitter Emitter, clock clockwork.Clock, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Engine{
		store:   store,
		leagues: leagues,
		emitter: emitter,
		clock:   clock,
		config:  cfg,
		logger:  logger,
		rooms:   make(map[uuid.UUID]*Room),
	}
}

// Start rehydrates rooms for auctions that were live when the process last
// stopped. Lots whose deadlines passed while the process was down resolve
// on the first tick.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.runCtx, e.cancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	for _, status := range []models.AuctionStatus{models.AuctionStatusActive, models.AuctionStatusPaused} {
		auctions, err := e.store.ListAuctionsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("list %s auctions: %w", status, err)
		}
		for i := range auctions {
			if _, err := e.roomFor(ctx, auctions[i].ID); err != nil {
				e.logger.Error().Err(err).Str("auction_id", auctions[i].ID.String()).Msg("rehydration failed")
				continue
			}
			e.logger.Info().Str("auction_id", auctions[i].ID.String()).Str("status", string(status)).Msg("auction room rehydrated")
		}
	}
	return nil
}

// Stop shuts every room down and waits for their goroutines to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// Begin starts the auction's first lot.
func (e *Engine) Begin(ctx context.Context, auctionID, requesterID uuid.UUID) error {
	r, err := e.roomFor(ctx, auctionID)
	if err != nil {
		return err
	}
	return r.Begin(ctx, requesterID)
}

// PlaceBid routes a bid to its auction room.
func (e *Engine) PlaceBid(ctx context.Context, req bid.PlaceBidRequest) (*models.Bid, error) {
	r, err := e.roomFor(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	return r.PlaceBid(ctx, req)
}

// Pause freezes the auction's current lot timer.
func (e *Engine) Pause(ctx context.Context, auctionID, requesterID uuid.UUID) error {
	r, err := e.roomFor(ctx, auctionID)
	if err != nil {
		return err
	}
	return r.Pause(ctx, requesterID)
}

// Resume restarts a paused lot timer.
func (e *Engine) Resume(ctx context.Context, auctionID, requesterID uuid.UUID) error {
	r, err := e.roomFor(ctx, auctionID)
	if err != nil {
		return err
	}
	return r.Resume(ctx, requesterID)
}

// Snapshot returns the catch-up view. Completed auctions are served from
// the store without spinning a room back up.
func (e *Engine) Snapshot(ctx context.Context, auctionID uuid.UUID) (*Snapshot, error) {
	r, err := e.roomFor(ctx, auctionID)
	if errors.Is(err, ErrAuctionCompleted) {
		return e.storedSnapshot(ctx, auctionID)
	}
	if err != nil {
		return nil, err
	}
	snap, err := r.Snapshot(ctx)
	if errors.Is(err, ErrRoomClosed) {
		// The room completed between lookup and command.
		return e.storedSnapshot(ctx, auctionID)
	}
	return snap, err
}

func (e *Engine) storedSnapshot(ctx context.Context, auctionID uuid.UUID) (*Snapshot, error) {
	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	parts, err := e.leagues.GetParticipantsByLeague(ctx, a.LeagueID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Auction:      *a,
		CurrentAsset: a.CurrentAssetID,
		Participants: parts,
		ServerNow:    e.clock.Now(),
	}, nil
}

// roomFor returns the live room for auctionID, creating and hydrating one
// if needed.
func (e *Engine) roomFor(ctx context.Context, auctionID uuid.UUID) (*Room, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, fmt.Errorf("engine not started")
	}
	if r, ok := e.rooms[auctionID]; ok {
		select {
		case <-r.done:
			delete(e.rooms, auctionID)
		default:
			return r, nil
		}
	}

	a, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AuctionStatusCompleted {
		return nil, ErrAuctionCompleted
	}
	league, err := e.leagues.GetLeague(ctx, a.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("load league %s: %w", a.LeagueID, err)
	}
	parts, err := e.leagues.GetParticipantsByLeague(ctx, a.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	r := newRoom(a, league, parts, e.store, e.leagues, e.emitter, e.clock, e.config.TickInterval, e.logger)
	e.rooms[auctionID] = r
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		r.run(e.runCtx)
		e.mu.Lock()
		if e.rooms[auctionID] == r {
			delete(e.rooms, auctionID)
		}
		e.mu.Unlock()
	}()
	return r, nil
}
