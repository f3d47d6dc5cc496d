package leagues

import (
	"github.com/google/uuid"
)

// CreateLeagueRequest represents the data needed to create a new league
type CreateLeagueRequest struct {
	Name           string    `json:"name" validate:"required"`
	CommissionerID uuid.UUID `json:"commissioner_id" validate:"required"`
	RequiredSlots  int       `json:"required_slots" validate:"required"`
	MinBudgetFloor int64     `json:"min_budget_floor"`
}

// AddParticipantRequest registers a league member as an auction participant
// with their starting budget.
type AddParticipantRequest struct {
	LeagueID        uuid.UUID `json:"league_id" validate:"required"`
	UserID          uuid.UUID `json:"user_id" validate:"required"`
	DisplayName     string    `json:"display_name" validate:"required"`
	StartingBudget  int64     `json:"starting_budget" validate:"required"`
}
