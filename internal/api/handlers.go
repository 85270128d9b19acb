package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/utakatalp/league-viewer/internal/betting"
	"github.com/utakatalp/league-viewer/internal/league"
	"github.com/utakatalp/league-viewer/internal/session"
	"github.com/utakatalp/league-viewer/internal/store"
)

// Handler serves one loaded season and the bracket games played on it.
type Handler struct {
	season   *store.Season
	matches  []*league.Match
	table    []*league.TableEntry
	game     *betting.Game
	sessions session.Store

	// game transitions are read-modify-write on the session store
	mu sync.Mutex
}

// NewHandler ranks the season once; the table never changes afterwards
// because the season is immutable.
func NewHandler(season *store.Season, includeAwayOnly bool, game *betting.Game, sessions session.Store) *Handler {
	matches := season.Matches()
	table := league.CalculateTable(matches)
	if includeAwayOnly {
		table = league.CalculateFullTable(matches)
	}
	return &Handler{
		season:   season,
		matches:  matches,
		table:    table,
		game:     game,
		sessions: sessions,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "league-viewer",
		"season":  h.season.Name,
	})
}

// GetSeason describes the loaded season.
func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    h.season.Name,
		"matches": h.season.Len(),
		"teams":   len(h.season.Teams()),
	})
}

// GetStandings returns the ranked table, optionally cut to ?top=N.
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	table := h.table
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid top parameter", err)
			return
		}
		if n < len(table) {
			table = table[:n]
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":    h.season.Name,
		"standings": table,
	})
}

// GetTeams lists every team in the season.
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.season.Teams())
}

// GetTeamMatches returns a team's matches, or its meetings with
// ?opponent=, newest first. No matches is a valid answer.
func (h *Handler) GetTeamMatches(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]
	opponent := r.URL.Query().Get("opponent")

	matches := league.HeadToHead(h.matches, team, opponent)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team":     team,
		"opponent": opponent,
		"count":    len(matches),
		"record":   league.Summarize(matches, team),
		"matches":  matches,
	})
}

// GetPrediction returns the averaged 1X2 distribution for ?home= vs ?away=
// and the two-way line the bracket game would use.
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	home := r.URL.Query().Get("home")
	away := r.URL.Query().Get("away")
	if home == "" || away == "" {
		respondError(w, http.StatusBadRequest, "home and away are required", nil)
		return
	}
	if home == away {
		respondError(w, http.StatusBadRequest, "home and away must differ", nil)
		return
	}

	resp := map[string]interface{}{
		"home":      home,
		"away":      away,
		"available": true,
		"line":      league.MatchupLine(h.matches, home, away),
	}
	probs, err := league.AverageProbabilities(h.matches, home, away)
	switch {
	case errors.Is(err, league.ErrInsufficientData):
		resp["available"] = false
		resp["probabilities"] = nil
		resp["advisory"] = "no historical odds for this pairing; the game uses an even 2.0/2.0 line"
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to compute probabilities", err)
		return
	default:
		resp["probabilities"] = probs
	}
	respondJSON(w, http.StatusOK, resp)
}

type gameResponse struct {
	ID      string          `json:"id"`
	Bracket betting.Bracket `json:"bracket"`
}

func (h *Handler) rankedTeams() []string {
	return league.TopTeams(h.table, len(h.table))
}

// CreateGame starts a bracket from the top of the table.
func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, err := h.game.Start(h.rankedTeams())
	if err != nil {
		respondError(w, http.StatusConflict, "Cannot start a bracket for this season", err)
		return
	}
	id, err := h.sessions.Create(r.Context(), b)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save game", err)
		return
	}
	slog.Info("game started", "game_id", id, "teams", h.game.Settings().BracketSize)
	respondJSON(w, http.StatusCreated, gameResponse{ID: id, Bracket: b})
}

// GetGame returns the bracket state of a session.
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["gameID"]
	b, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		respondGameError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gameResponse{ID: id, Bracket: b})
}

type betRequest struct {
	Team   string `json:"team"`
	Amount int64  `json:"amount"`
}

// PlaceBet submits a bet on the current pairing and returns the settled
// bracket.
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.transition(w, r, "bet", func(b betting.Bracket) (betting.Bracket, error) {
		return h.game.Submit(b, req.Team, req.Amount)
	})
}

// AdvanceGame moves past a settled pairing.
func (h *Handler) AdvanceGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "advance", h.game.Advance)
}

// ResetGame replaces the session's bracket with a fresh one.
func (h *Handler) ResetGame(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reset", func(betting.Bracket) (betting.Bracket, error) {
		return h.game.Reset(h.rankedTeams())
	})
}

// DeleteGame ends a session.
func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["gameID"]
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete game", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(betting.Bracket) (betting.Bracket, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := mux.Vars(r)["gameID"]
	b, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		respondGameError(w, err)
		return
	}

	next, err := fn(b)
	if err != nil {
		respondGameError(w, err)
		return
	}
	if err := h.sessions.Put(r.Context(), id, next); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save game", err)
		return
	}

	attrs := []any{"game_id", id, "action", action, "phase", next.Phase, "balance", next.Balance}
	if next.Phase == betting.Finished {
		attrs = append(attrs, "champion", next.Champion)
	}
	slog.Info("game updated", attrs...)
	respondJSON(w, http.StatusOK, gameResponse{ID: id, Bracket: next})
}

func respondGameError(w http.ResponseWriter, err error) {
	var ve *betting.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusUnprocessableEntity, "Invalid bet", err)
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "Game not found", err)
	case errors.Is(err, betting.ErrNotAwaitingBet),
		errors.Is(err, betting.ErrNotAwaitingAdvance),
		errors.Is(err, betting.ErrFinished):
		respondError(w, http.StatusConflict, "Action not allowed in this phase", err)
	default:
		slog.Error("game transition failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Game error", err)
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
