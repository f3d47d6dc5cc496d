package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a league member taking part in an auction. Budget and the
// won-asset list are mutated only at lot resolution, atomically with the
// lot advance.
type Participant struct {
	ID              uuid.UUID   `json:"id"`
	LeagueID        uuid.UUID   `json:"league_id"`
	UserID          uuid.UUID   `json:"user_id"`
	DisplayName     string      `json:"display_name"`
	RemainingBudget int64       `json:"remaining_budget"`
	WonAssets       []uuid.UUID `json:"won_assets"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SlotsFilled is the number of roster slots already won.
func (p *Participant) SlotsFilled() int {
	return len(p.WonAssets)
}
