package leagues

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// ErrNotFound is returned when a league or participant does not exist.
var ErrNotFound = errors.New("not found")

// Repository implements league and participant data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new leagues repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateLeague creates a new league
func (r *Repository) CreateLeague(ctx context.Context, req CreateLeagueRequest) (*models.League, error) {
	const q = `
		INSERT INTO leagues (id, name, commissioner_id, required_slots, min_budget_floor, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, commissioner_id, required_slots, min_budget_floor, status, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, q,
		uuid.New(), req.Name, req.CommissionerID, req.RequiredSlots, req.MinBudgetFloor, models.LeagueStatusActive)
	league, err := scanLeague(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	return league, nil
}

// GetLeague retrieves a league by ID
func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	const q = `
		SELECT id, name, commissioner_id, required_slots, min_budget_floor, status, created_at, updated_at
		FROM leagues WHERE id = $1`

	league, err := scanLeague(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("league %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return league, nil
}

// AddParticipant registers a participant in a league
func (r *Repository) AddParticipant(ctx context.Context, req AddParticipantRequest) (*models.Participant, error) {
	const q = `
		INSERT INTO participants (id, league_id, user_id, display_name, remaining_budget, won_assets, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, now(), now())
		RETURNING id, league_id, user_id, display_name, remaining_budget, won_assets, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, q,
		uuid.New(), req.LeagueID, req.UserID, req.DisplayName, req.StartingBudget)
	p, err := scanParticipant(row)
	if err != nil {
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}
	return p, nil
}

// GetParticipant retrieves one participant by ID
func (r *Repository) GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	const q = `
		SELECT id, league_id, user_id, display_name, remaining_budget, won_assets, created_at, updated_at
		FROM participants WHERE id = $1`

	p, err := scanParticipant(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// GetParticipantsByLeague retrieves all participants of a league
func (r *Repository) GetParticipantsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Participant, error) {
	const q = `
		SELECT id, league_id, user_id, display_name, remaining_budget, won_assets, created_at, updated_at
		FROM participants WHERE league_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// IsMember reports whether a participant belongs to a league.
func (r *Repository) IsMember(ctx context.Context, leagueID, participantID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1 AND league_id = $2)`

	var member bool
	if err := r.db.QueryRowContext(ctx, q, participantID, leagueID).Scan(&member); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeague(row rowScanner) (*models.League, error) {
	var l models.League
	if err := row.Scan(&l.ID, &l.Name, &l.CommissionerID, &l.RequiredSlots,
		&l.MinBudgetFloor, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	var (
		p        models.Participant
		wonBytes []byte
	)
	if err := row.Scan(&p.ID, &p.LeagueID, &p.UserID, &p.DisplayName,
		&p.RemainingBudget, &wonBytes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(wonBytes, &p.WonAssets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal won assets: %w", err)
	}
	return &p, nil
}
