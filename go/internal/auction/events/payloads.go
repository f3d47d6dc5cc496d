package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types and payloads shared between the engine, outbox and gateway
// packages.

const (
	TypeLotStarted      = "lot_started"
	TypeTick            = "tick"
	TypeBidPlaced       = "bid_placed"
	TypeLotComplete     = "lot_complete"
	TypeAuctionComplete = "auction_complete"
	TypeAuctionPaused   = "auction_paused"
	TypeAuctionResumed  = "auction_resumed"
)

// LotOutcome is the resolution result of one lot.
type LotOutcome string

const (
	LotOutcomeSold   LotOutcome = "SOLD"
	LotOutcomeUnsold LotOutcome = "UNSOLD"
)

// LotStartedPayload is the payload for a lot_started event
type LotStartedPayload struct {
	LotIndex  int       `json:"lot_index"`
	AssetID   uuid.UUID `json:"asset_id"`
	Deadline  time.Time `json:"deadline"`
	TimerSec  int       `json:"timer_sec"`
	StartedAt time.Time `json:"started_at"`
}

// TickPayload is the payload for a tick event. Clients compute remaining
// time from the two absolute instants rather than trusting a relative
// counter that drifts in transit.
type TickPayload struct {
	LotIndex   int       `json:"lot_index"`
	Generation uint64    `json:"generation"`
	TickSeq    int64     `json:"tick_seq"`
	Deadline   time.Time `json:"deadline"`
	ServerNow  time.Time `json:"server_now"`
}

// BidPlacedPayload is the payload for a bid_placed event
type BidPlacedPayload struct {
	AssetID       uuid.UUID `json:"asset_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Amount        int64     `json:"amount"`
	BidSeq        int64     `json:"bid_seq"`
	Deadline      time.Time `json:"deadline"` // reflects any anti-snipe extension
	AcceptedAt    time.Time `json:"accepted_at"`
}

// LotCompletePayload is the payload for a lot_complete event
type LotCompletePayload struct {
	LotIndex   int        `json:"lot_index"`
	AssetID    uuid.UUID  `json:"asset_id"`
	Outcome    LotOutcome `json:"outcome"`
	WinnerID   *uuid.UUID `json:"winner_id,omitempty"`
	Amount     *int64     `json:"amount,omitempty"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// AuctionCompletePayload is the payload for an auction_complete event.
// The final lot's outcome is embedded explicitly so clients cannot lose it
// during the terminal transition.
type AuctionCompletePayload struct {
	Reason        string     `json:"reason"`
	FinalAssetID  *uuid.UUID `json:"final_asset_id,omitempty"`
	FinalWinnerID *uuid.UUID `json:"final_winner_id,omitempty"`
	FinalAmount   *int64     `json:"final_amount,omitempty"`
	CompletedAt   time.Time  `json:"completed_at"`
}

// AuctionPausedPayload is the payload for an auction_paused event
type AuctionPausedPayload struct {
	PausedAt     time.Time `json:"paused_at"`
	RemainingSec float64   `json:"remaining_sec"`
}

// AuctionResumedPayload is the payload for an auction_resumed event
type AuctionResumedPayload struct {
	ResumedAt time.Time `json:"resumed_at"`
	Deadline  time.Time `json:"deadline"`
}
