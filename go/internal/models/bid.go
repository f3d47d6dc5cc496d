package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an immutable record of an accepted bid. Bids are append-only;
// the current highest bid is cached on the Auction, never recomputed by
// scanning bid history.
type Bid struct {
	ID            uuid.UUID `json:"id"`
	AuctionID     uuid.UUID `json:"auction_id"`
	AssetID       uuid.UUID `json:"asset_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Amount        int64     `json:"amount"`
	Seq           int64     `json:"seq"`
	AcceptedAt    time.Time `json:"accepted_at"`
}
