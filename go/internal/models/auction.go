package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus defines the lifecycle status of an auction.
type AuctionStatus string

const (
	AuctionStatusWaiting   AuctionStatus = "WAITING"
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusPaused    AuctionStatus = "PAUSED"
	AuctionStatusCompleted AuctionStatus = "COMPLETED"
)

// AuctionSettings holds JSONB configuration for auctions.
// Money amounts are whole currency units stored as int64.
type AuctionSettings struct {
	BudgetPerParticipant int64 `json:"budget_per_participant"`
	MinBidFloor          int64 `json:"min_bid_floor"`
	MinIncrement         int64 `json:"min_increment"`
	TimerSec             int   `json:"timer_sec"`
	AntiSnipeSec         int   `json:"anti_snipe_sec"`
}

// Auction represents one draft run bound to one league.
//
// CurrentAssetID is set iff Status is ACTIVE (or PAUSED mid-lot) and
// LotIndex > 0. BidSeq strictly increases with every accepted bid and is
// the optimistic-concurrency token for bid admission. EventSeq is the
// auction-scoped broadcast sequence stamped on committed transitions.
type Auction struct {
	ID               uuid.UUID       `json:"id"`
	LeagueID         uuid.UUID       `json:"league_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	Status           AuctionStatus   `json:"status"`
	AssetQueue       []uuid.UUID     `json:"asset_queue"`
	LotIndex         int             `json:"lot_index"` // 1-based; 0 = not started
	CurrentAssetID   *uuid.UUID      `json:"current_asset_id,omitempty"`
	CurrentBidAmount *int64          `json:"current_bid_amount,omitempty"`
	CurrentBidderID  *uuid.UUID      `json:"current_bidder_id,omitempty"`
	BidSeq           int64           `json:"bid_seq"`
	EventSeq         int64           `json:"event_seq"`
	LotDeadline      *time.Time      `json:"lot_deadline,omitempty"`
	PausedRemaining  *time.Duration  `json:"paused_remaining,omitempty"`
	UnsoldAssets     []uuid.UUID     `json:"unsold_assets"`
	ReofferDone      bool            `json:"reoffer_done"`
	LotsSold         int             `json:"lots_sold"`
	Settings         AuctionSettings `json:"settings"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
