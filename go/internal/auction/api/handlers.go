package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	auctionrepo "github.com/darrengowling/joeyjones-sub001/go/internal/auction/auction"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/bid"
	"github.com/darrengowling/joeyjones-sub001/go/internal/auction/engine"
	"github.com/darrengowling/joeyjones-sub001/go/internal/leagues"
	"github.com/darrengowling/joeyjones-sub001/go/internal/models"
)

// userIDHeader carries the authenticated caller. Authentication itself is
// upstream; the engine only needs the identity.
const userIDHeader = "X-User-ID"

// Engine is the slice of the auction engine the HTTP layer drives.
type Engine interface {
	Begin(ctx context.Context, auctionID, requesterID uuid.UUID) error
	PlaceBid(ctx context.Context, req bid.PlaceBidRequest) (*models.Bid, error)
	Pause(ctx context.Context, auctionID, requesterID uuid.UUID) error
	Resume(ctx context.Context, auctionID, requesterID uuid.UUID) error
	Snapshot(ctx context.Context, auctionID uuid.UUID) (*engine.Snapshot, error)
}

// AuctionApp creates and reads auctions outside the live engine path.
type AuctionApp interface {
	CreateAuction(ctx context.Context, req auctionrepo.CreateAuctionRequest) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
}

// LeagueApp manages leagues and the participants bidding in them.
type LeagueApp interface {
	CreateLeague(ctx context.Context, req leagues.CreateLeagueRequest) (*models.League, error)
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	AddParticipant(ctx context.Context, req leagues.AddParticipantRequest) (*models.Participant, error)
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	GetParticipantsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Participant, error)
}

// BidReader lists the accepted bid history.
type BidReader interface {
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
}

// Handler serves the auction command and query endpoints.
type Handler struct {
	auctions AuctionApp
	leagues  LeagueApp
	bids     BidReader
	engine   Engine
}

func NewHandler(auctions AuctionApp, leagueApp LeagueApp, bids BidReader, eng Engine) *Handler {
	return &Handler{auctions: auctions, leagues: leagueApp, bids: bids, engine: eng}
}

// RegisterRoutes registers the auction API routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/leagues", h.handleCreateLeague)
	mux.HandleFunc("GET /api/leagues/{id}", h.handleGetLeague)
	mux.HandleFunc("POST /api/leagues/{id}/participants", h.handleAddParticipant)
	mux.HandleFunc("GET /api/leagues/{id}/participants", h.handleListParticipants)
	mux.HandleFunc("GET /api/participants/{id}", h.handleGetParticipant)
	mux.HandleFunc("POST /api/auctions", h.handleCreateAuction)
	mux.HandleFunc("GET /api/auctions/{id}", h.handleGetAuction)
	mux.HandleFunc("POST /api/auctions/{id}/begin", h.handleBegin)
	mux.HandleFunc("POST /api/auctions/{id}/bids", h.handlePlaceBid)
	mux.HandleFunc("GET /api/auctions/{id}/bids", h.handleListBids)
	mux.HandleFunc("POST /api/auctions/{id}/pause", h.handlePause)
	mux.HandleFunc("POST /api/auctions/{id}/resume", h.handleResume)
	mux.HandleFunc("GET /api/auctions/{id}/snapshot", h.handleSnapshot)
}

type createLeagueBody struct {
	Name           string `json:"name"`
	RequiredSlots  int    `json:"required_slots"`
	MinBudgetFloor int64  `json:"min_budget_floor"`
}

func (h *Handler) handleCreateLeague(w http.ResponseWriter, r *http.Request) {
	commissionerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var body createLeagueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if body.RequiredSlots <= 0 {
		writeError(w, http.StatusBadRequest, "required_slots must be positive")
		return
	}
	if body.MinBudgetFloor < 0 {
		writeError(w, http.StatusBadRequest, "min_budget_floor cannot be negative")
		return
	}

	league, err := h.leagues.CreateLeague(r.Context(), leagues.CreateLeagueRequest{
		Name:           body.Name,
		CommissionerID: commissionerID,
		RequiredSlots:  body.RequiredSlots,
		MinBudgetFloor: body.MinBudgetFloor,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, league)
}

func (h *Handler) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "league id")
	if !ok {
		return
	}
	league, err := h.leagues.GetLeague(r.Context(), leagueID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, league)
}

type addParticipantBody struct {
	UserID         uuid.UUID `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	StartingBudget int64     `json:"starting_budget"`
}

func (h *Handler) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "league id")
	if !ok {
		return
	}
	var body addParticipantBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if body.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	if body.StartingBudget <= 0 {
		writeError(w, http.StatusBadRequest, "starting_budget must be positive")
		return
	}

	participant, err := h.leagues.AddParticipant(r.Context(), leagues.AddParticipantRequest{
		LeagueID:       leagueID,
		UserID:         body.UserID,
		DisplayName:    body.DisplayName,
		StartingBudget: body.StartingBudget,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(w, r, "league id")
	if !ok {
		return
	}
	participants, err := h.leagues.GetParticipantsByLeague(r.Context(), leagueID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

func (h *Handler) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	participantID, ok := pathID(w, r, "participant id")
	if !ok {
		return
	}
	participant, err := h.leagues.GetParticipant(r.Context(), participantID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

type createAuctionBody struct {
	LeagueID uuid.UUID              `json:"league_id"`
	AssetIDs []uuid.UUID            `json:"asset_ids"`
	Settings models.AuctionSettings `json:"settings"`
}

func (h *Handler) handleCreateAuction(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var body createAuctionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.LeagueID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "league_id is required")
		return
	}
	if len(body.AssetIDs) == 0 {
		writeError(w, http.StatusBadRequest, "asset_ids cannot be empty")
		return
	}

	auction, err := h.auctions.CreateAuction(r.Context(), auctionrepo.CreateAuctionRequest{
		LeagueID: body.LeagueID,
		OwnerID:  ownerID,
		AssetIDs: body.AssetIDs,
		Settings: body.Settings,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, auction)
}

func (h *Handler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r, "auction id")
	if !ok {
		return
	}
	auction, err := h.auctions.GetAuction(r.Context(), auctionID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auction)
}

func (h *Handler) handleBegin(w http.ResponseWriter, r *http.Request) {
	h.ownerCommand(w, r, h.engine.Begin)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.ownerCommand(w, r, h.engine.Pause)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.ownerCommand(w, r, h.engine.Resume)
}

func (h *Handler) ownerCommand(w http.ResponseWriter, r *http.Request, cmd func(ctx context.Context, auctionID, requesterID uuid.UUID) error) {
	auctionID, ok := pathID(w, r, "auction id")
	if !ok {
		return
	}
	requesterID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := cmd(r.Context(), auctionID, requesterID); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type placeBidBody struct {
	AssetID uuid.UUID `json:"asset_id"`
	Amount  int64     `json:"amount"`
}

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r, "auction id")
	if !ok {
		return
	}
	participantID, ok := callerID(w, r)
	if !ok {
		return
	}
	var body placeBidBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AssetID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}
	if body.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	placed, err := h.engine.PlaceBid(r.Context(), bid.PlaceBidRequest{
		AuctionID:     auctionID,
		AssetID:       body.AssetID,
		ParticipantID: participantID,
		Amount:        body.Amount,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placed)
}

func (h *Handler) handleListBids(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r, "auction id")
	if !ok {
		return
	}
	bids, err := h.bids.ListByAuction(r.Context(), auctionID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	writeJSON(w, http.StatusOK, bids)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r, "auction id")
	if !ok {
		return
	}
	snap, err := h.engine.Snapshot(r.Context(), auctionID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// writeEngineError maps domain errors onto the API's status contract:
// validation rejections 422, lost races and wrong-state commands 409 with a
// resync hint, missing resources 404, everything else (persistence, bus)
// 503 with state guaranteed unchanged.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *bid.Rejection
	if errors.As(err, &rejection) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  "bid rejected",
			"reason": string(rejection.Reason),
			"detail": rejection.Detail,
		})
		return
	}

	var conflict *engine.StateConflictError
	if errors.As(err, &conflict) ||
		errors.Is(err, engine.ErrAuctionCompleted) ||
		errors.Is(err, engine.ErrRoomClosed) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": err.Error(),
			"hint":  "resync",
		})
		return
	}

	switch {
	case errors.Is(err, engine.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auctionrepo.ErrNotFound), errors.Is(err, leagues.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("auction API request failed")
		writeError(w, http.StatusServiceUnavailable, "temporarily unable to process request")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(userIDHeader))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+userIDHeader+" header")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
