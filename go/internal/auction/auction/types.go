package auction

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// ErrSeqConflict means a concurrent writer advanced the auction's bid
// sequence first. The caller lost the race and must resync.
var ErrSeqConflict = errors.New("bid sequence conflict")

// ErrNotFound is returned when an auction does not exist.
var ErrNotFound = errors.New("auction not found")

// CreateAuctionRequest represents the data needed to create a new auction
type CreateAuctionRequest struct {
	LeagueID uuid.UUID              `json:"league_id" validate:"required"`
	OwnerID  uuid.UUID              `json:"owner_id" validate:"required"`
	AssetIDs []uuid.UUID            `json:"asset_ids" validate:"required"`
	Settings models.AuctionSettings `json:"settings"`
}

// AcceptBidParams records an accepted bid and advances the cached
// current-bid fields under optimistic concurrency on ExpectedSeq.
type AcceptBidParams struct {
	AuctionID     uuid.UUID
	AssetID       uuid.UUID
	ParticipantID uuid.UUID
	Amount        int64
	ExpectedSeq   int64
	AcceptedAt    time.Time
	Deadline      time.Time // lot deadline after any anti-snipe extension
	EventSeq      int64
}

// StartLotParams opens a lot: used both for the owner's begin action and
// for advancing to the next lot after a resolution.
type StartLotParams struct {
	AuctionID uuid.UUID
	LotIndex  int
	AssetID   uuid.UUID
	Deadline  time.Time
	EventSeq  int64
}

// PauseParams captures the remaining lot time and clears the deadline.
type PauseParams struct {
	AuctionID uuid.UUID
	Remaining time.Duration
	EventSeq  int64
}

// ResumeParams restores the deadline from the paused remaining time.
type ResumeParams struct {
	AuctionID uuid.UUID
	Deadline  time.Time
	EventSeq  int64
}

// ResolveLotParams commits one lot resolution: the optional award, the
// queue/unsold bookkeeping and the advance (or completion) of the auction,
// all in a single transaction.
type ResolveLotParams struct {
	AuctionID uuid.UUID
	AssetID   uuid.UUID // the asset just resolved

	// Award; nil WinnerID means the lot went unsold.
	WinnerID *uuid.UUID
	Amount   *int64

	// Post-resolution auction state.
	Status       models.AuctionStatus
	LotIndex     int
	NextAssetID  *uuid.UUID
	NextDeadline *time.Time
	NewQueue     []uuid.UUID
	NewUnsold    []uuid.UUID
	ReofferDone  bool
	LotsSold     int
	EventSeq     int64
}
