package leagues

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// LeaguesRepository defines what the app layer needs from the repository
type LeaguesRepository interface {
	CreateLeague(ctx context.Context, req CreateLeagueRequest) (*models.League, error)
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	AddParticipant(ctx context.Context, req AddParticipantRequest) (*models.Participant, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	GetParticipantsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Participant, error)
	IsMember(ctx context.Context, leagueID, participantID uuid.UUID) (bool, error)
}

// App handles league business logic. The auction engine consumes it as the
// roster/membership collaborator; it never mutates budgets itself.
type App struct {
	repo LeaguesRepository
}

// NewApp creates a new leagues App
func NewApp(repo LeaguesRepository) *App {
	return &App{repo: repo}
}

// CreateLeague creates a new league with validation
func (a *App) CreateLeague(ctx context.Context, req CreateLeagueRequest) (*models.League, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("league name is required")
	}
	if req.RequiredSlots <= 0 {
		return nil, fmt.Errorf("required slots must be positive")
	}
	if req.MinBudgetFloor < 0 {
		return nil, fmt.Errorf("minimum budget floor cannot be negative")
	}

	league, err := a.repo.CreateLeague(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("league_id", league.ID.String()).
		Str("name", league.Name).
		Int("required_slots", league.RequiredSlots).
		Msg("created league")
	return league, nil
}

// GetLeague retrieves a league by ID
func (a *App) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return a.repo.GetLeague(ctx, id)
}

// AddParticipant registers a participant with their starting budget
func (a *App) AddParticipant(ctx context.Context, req AddParticipantRequest) (*models.Participant, error) {
	if req.StartingBudget <= 0 {
		return nil, fmt.Errorf("starting budget must be positive")
	}
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display name is required")
	}
	return a.repo.AddParticipant(ctx, req)
}

// GetParticipant retrieves one participant by ID
func (a *App) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	return a.repo.GetParticipant(ctx, id)
}

// GetParticipantsByLeague retrieves all participants of a league
func (a *App) GetParticipantsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Participant, error) {
	return a.repo.GetParticipantsByLeague(ctx, leagueID)
}

// IsMember reports whether a participant belongs to a league
func (a *App) IsMember(ctx context.Context, leagueID, participantID uuid.UUID) (bool, error) {
	return a.repo.IsMember(ctx, leagueID, participantID)
}
