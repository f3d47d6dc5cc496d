package bid

import (
	"fmt"

	"github.com/google/uuid"
)

// RejectReason is a caller-visible code explaining why a bid was refused.
// Rejections are synchronous and never retried by the engine.
type RejectReason string

const (
	ReasonAuctionNotActive       RejectReason = "AuctionNotActive"
	ReasonStaleLot               RejectReason = "StaleLot"
	ReasonNotAParticipant        RejectReason = "NotAParticipant"
	ReasonRosterFull             RejectReason = "RosterFull"
	ReasonBelowMinimumIncrement  RejectReason = "BelowMinimumIncrement"
	ReasonBudgetReserveViolation RejectReason = "BudgetReserveViolation"
)

// Rejection is a bid validation failure.
type Rejection struct {
	Reason RejectReason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

// PlaceBidRequest is one inbound bid attempt. The participant identity
// comes from the auth collaborator, never from the payload itself.
type PlaceBidRequest struct {
	AuctionID     uuid.UUID `json:"auction_id"`
	AssetID       uuid.UUID `json:"asset_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Amount        int64     `json:"amount"`
}
