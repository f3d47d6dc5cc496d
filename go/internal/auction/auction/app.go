package auction

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// Default lot timing, applied when the creator leaves settings zeroed.
const (
	DefaultTimerSec     = 60
	DefaultAntiSnipeSec = 10
	DefaultMinBidFloor  = 1_000_000
	DefaultMinIncrement = 100_000
)

// AuctionRepository defines what the app layer needs from the repository
type AuctionRepository interface {
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	ListAuctionsByStatus(ctx context.Context, status models.AuctionStatus) ([]models.Auction, error)
}

// LeagueReader is the slice of the league collaborator the app needs.
type LeagueReader interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// App handles auction creation and reads. Live transitions (begin, bids,
// pause, resolution) go through the engine, not through this app.
type App struct {
	repo    AuctionRepository
	leagues LeagueReader
}

// NewApp creates a new auction App
func NewApp(repo AuctionRepository, leagues LeagueReader) *App {
	return &App{repo: repo, leagues: leagues}
}

// CreateAuction creates an auction in WAITING with a freshly shuffled
// asset queue, so all participants can inspect the draft order before the
// owner begins.
func (a *App) CreateAuction(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	if len(req.AssetIDs) == 0 {
		return nil, fmt.Errorf("asset list cannot be empty")
	}

	league, err := a.leagues.GetLeague(ctx, req.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}

	applySettingsDefaults(&req.Settings, league)

	queue := make([]uuid.UUID, len(req.AssetIDs))
	copy(queue, req.AssetIDs)
	rand.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	req.AssetIDs = queue

	auction, err := a.repo.CreateAuction(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("league_id", league.ID.String()).
		Int("lots", len(auction.AssetQueue)).
		Msg("created auction")
	return auction, nil
}

// GetAuction retrieves an auction by ID
func (a *App) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	return a.repo.GetAuction(ctx, id)
}

// ListAuctionsByStatus retrieves auctions by status
func (a *App) ListAuctionsByStatus(ctx context.Context, status models.AuctionStatus) ([]models.Auction, error) {
	return a.repo.ListAuctionsByStatus(ctx, status)
}

func applySettingsDefaults(s *models.AuctionSettings, league *models.League) {
	if s.TimerSec <= 0 {
		s.TimerSec = DefaultTimerSec
	}
	if s.AntiSnipeSec <= 0 {
		s.AntiSnipeSec = DefaultAntiSnipeSec
	}
	if s.MinBidFloor <= 0 {
		s.MinBidFloor = league.MinBudgetFloor
	}
	if s.MinBidFloor <= 0 {
		s.MinBidFloor = DefaultMinBidFloor
	}
	if s.MinIncrement <= 0 {
		s.MinIncrement = DefaultMinIncrement
	}
}
