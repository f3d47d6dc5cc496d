package budget

// CompletionReason explains why (or why not) an auction should end.
type CompletionReason string

const (
	ReasonContinue          CompletionReason = "CONTINUE"
	ReasonNoManagers        CompletionReason = "NO_MANAGERS"
	ReasonAllRostersFilled  CompletionReason = "ALL_ROSTERS_FILLED"
	ReasonZeroDemand        CompletionReason = "ZERO_DEMAND"
	ReasonAllLotsExhausted  CompletionReason = "ALL_LOTS_EXHAUSTED"
)

// ParticipantCounts is the roster-fill state of one participant.
type ParticipantCounts struct {
	SlotsFilled   int
	RequiredSlots int
}

// Snapshot is a fixed view of auction progress for completion evaluation.
// LotIndex is 1-based; a fully resolved queue has LotIndex > TotalLots.
type Snapshot struct {
	Participants []ParticipantCounts
	LotsSold     int
	LotIndex     int
	TotalLots    int
	UnsoldCount  int
}

// Evaluate decides whether the auction should end. Deterministic and
// side-effect-free; checks run in precedence order.
func Evaluate(s Snapshot) (bool, CompletionReason) {
	if len(s.Participants) == 0 {
		return false, ReasonNoManagers
	}

	allFilled := true
	totalDemand := 0
	for _, p := range s.Participants {
		if p.SlotsFilled < p.RequiredSlots {
			allFilled = false
			totalDemand += p.RequiredSlots - p.SlotsFilled
		}
	}
	if allFilled {
		return true, ReasonAllRostersFilled
	}
	if totalDemand == 0 {
		return true, ReasonZeroDemand
	}

	exhausted := s.LotIndex > s.TotalLots || s.LotsSold >= s.TotalLots
	if exhausted && s.UnsoldCount == 0 {
		return true, ReasonAllLotsExhausted
	}

	return false, ReasonContinue
}
