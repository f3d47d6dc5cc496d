package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auctionrepo "github.com/darrengowling/joeyjones-sub001/go/internal/auction/auction"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// ErrNotOwner is returned when a non-owner calls begin, pause or resume.
var ErrNotOwner = errors.New("only the auction owner may do this")

// ErrRoomClosed is returned when a command arrives after shutdown.
var ErrRoomClosed = errors.New("auction room closed")

// ErrAuctionCompleted is returned for commands against a finished auction.
var ErrAuctionCompleted = errors.New("auction already completed")

// StateConflictError reports an operation that lost a race or hit the
// auction in the wrong state. Clients should resync via snapshot before
// retrying.
type StateConflictError struct {
	Op   string
	Want models.AuctionStatus
	Got  models.AuctionStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s: auction is %s, expected %s; resync and retry", e.Op, e.Got, e.Want)
}

// AuctionStore is the persistence gateway the engine drives. Every method
// either commits the whole transition or leaves the stored auction in its
// prior consistent state.
type AuctionStore interface {
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	ListAuctionsByStatus(ctx context.Context, status models.AuctionStatus) ([]models.Auction, error)
	AcceptBid(ctx context.Context, p auctionrepo.AcceptBidParams) (*models.Bid, error)
	StartLot(ctx context.Context, p auctionrepo.StartLotParams) error
	Pause(ctx context.Context, p auctionrepo.PauseParams) error
	Resume(ctx context.Context, p auctionrepo.ResumeParams) error
	ResolveLot(ctx context.Context, p auctionrepo.ResolveLotParams) error
}

// LeagueStore is the roster/membership collaborator.
type LeagueStore interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	GetParticipantsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Participant, error)
	IsMember(ctx context.Context, leagueID, participantID uuid.UUID) (bool, error)
}

// Emitter fans committed transitions out to subscribers. Emit failures are
// logged but never abort the transition that produced the event.
type Emitter interface {
	Emit(ctx context.Context, auctionID uuid.UUID, eventType string, seq int64, payload any) error
	EmitTick(auctionID uuid.UUID, payload any) error
}

// Snapshot is the full catch-up view a (re)joining client receives instead
// of replayed history.
type Snapshot struct {
	Auction      models.Auction       `json:"auction"`
	CurrentAsset *uuid.UUID           `json:"current_asset,omitempty"`
	Participants []models.Participant `json:"participants"`
	ServerNow    time.Time            `json:"server_now"`
}
