package bid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/budget"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// Validator applies the structural and budget-reserve checks on a bid.
// It is pure over its inputs; persistence and the sequence race are
// handled by the caller inside the serialized region.
type Validator struct{}

// Validate runs the admission checks in order and returns the first
// failure, or nil if the bid is acceptable.
//
// participant is nil when the bidder is not a member of the league.
func (v Validator) Validate(a *models.Auction, participant *models.Participant, requiredSlots int, assetID uuid.UUID, amount int64) *Rejection {
	if a.Status != models.AuctionStatusActive {
		return &Rejection{Reason: ReasonAuctionNotActive}
	}
	if a.CurrentAssetID == nil || assetID != *a.CurrentAssetID {
		return &Rejection{Reason: ReasonStaleLot, Detail: "bid references a lot that is no longer open"}
	}
	if participant == nil {
		return &Rejection{Reason: ReasonNotAParticipant}
	}
	if participant.SlotsFilled() >= requiredSlots {
		return &Rejection{Reason: ReasonRosterFull}
	}

	if a.CurrentBidAmount != nil && amount < *a.CurrentBidAmount+a.Settings.MinIncrement {
		return &Rejection{
			Reason: ReasonBelowMinimumIncrement,
			Detail: fmt.Sprintf("minimum acceptable bid is %d", *a.CurrentBidAmount+a.Settings.MinIncrement),
		}
	}

	if amount < a.Settings.MinBidFloor {
		return &Rejection{
			Reason: ReasonBudgetReserveViolation,
			Detail: fmt.Sprintf("bid is below the minimum floor of %d", a.Settings.MinBidFloor),
		}
	}
	ceiling := budget.MaxBid(participant.RemainingBudget, participant.SlotsFilled(), requiredSlots, a.Settings.MinBidFloor)
	if amount > ceiling {
		return &Rejection{
			Reason: ReasonBudgetReserveViolation,
			Detail: fmt.Sprintf("bid exceeds budget reserve ceiling of %d", ceiling),
		}
	}
	return nil
}
