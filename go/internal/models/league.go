package models

import (
	"time"

	"github.com/google/uuid"
)

type LeagueStatus string

const (
	LeagueStatusPending   LeagueStatus = "PENDING"
	LeagueStatusActive    LeagueStatus = "ACTIVE"
	LeagueStatusCompleted LeagueStatus = "COMPLETED"
	LeagueStatusCancelled LeagueStatus = "CANCELLED"
)

// League represents the league an auction is bound to. The league service
// owns membership and roster requirements; the auction engine only reads
// them and deducts budgets at lot resolution.
type League struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	CommissionerID uuid.UUID    `json:"commissioner_id"`
	RequiredSlots  int          `json:"required_slots"`
	MinBudgetFloor int64        `json:"min_budget_floor"`
	Status         LeagueStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
