package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aldenpratama/blackjack-bot-be/internal/casino"
	"github.com/aldenpratama/blackjack-bot-be/internal/game"
	"github.com/aldenpratama/blackjack-bot-be/internal/session"
	"github.com/gorilla/mux"
)

// Handlers exposes the engine over HTTP. No game logic lives here: the
// handlers decode requests, call the manager, and translate the error
// taxonomy to statuses.
type Handlers struct {
	manager *casino.Manager
	hub     *Hub
}

func NewHandlers(manager *casino.Manager, hub *Hub) *Handlers {
	return &Handlers{manager: manager, hub: hub}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/game/new", h.NewGame).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/hit", h.action(h.manager.Hit)).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/stand", h.action(h.manager.Stand)).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/double", h.action(h.manager.DoubleDown)).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/split", h.action(h.manager.Split)).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/forfeit", h.action(h.manager.Forfeit)).Methods("POST")
	r.HandleFunc("/api/game/{playerId}/evict", h.Evict).Methods("POST")

	r.HandleFunc("/api/player/{id}", h.GetPlayer).Methods("GET")
	r.HandleFunc("/api/player/{id}/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/api/player/{id}/daily", h.ClaimDaily).Methods("POST")
	r.HandleFunc("/api/player/{id}/grant", h.Grant).Methods("POST")

	r.HandleFunc("/api/leaderboard", h.Leaderboard).Methods("GET")

	r.HandleFunc("/ws", h.hub.WebSocketHandler)
}

// response helper function to send JSON responses
func response(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, err error) {
	response(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, session.ErrConflictingSession):
		return http.StatusConflict
	case errors.Is(err, casino.ErrDailyClaimed):
		return http.StatusConflict
	case errors.Is(err, casino.ErrInsufficientFunds),
		errors.Is(err, casino.ErrInvalidBet),
		errors.Is(err, game.ErrIllegalTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewGame opens a round for a player.
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Bet      int64  `json:"bet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		response(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tr, err := h.manager.Start(req.PlayerID, req.Bet)
	if err != nil {
		errorResponse(w, err)
		return
	}

	h.push(tr)
	response(w, http.StatusCreated, tr)
}

// action adapts a manager action into a handler and pushes the
// resulting transition to the player's websocket subscribers.
func (h *Handlers) action(fn func(string) (*casino.Transition, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerId"]

		tr, err := fn(playerID)
		if err != nil {
			errorResponse(w, err)
			return
		}

		h.push(tr)
		response(w, http.StatusOK, tr)
	}
}

// Evict clears a stale session so a new round can start.
func (h *Handlers) Evict(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	evicted := h.manager.Evict(playerID)
	response(w, http.StatusOK, map[string]bool{"evicted": evicted})
}

// GetPlayer returns a player's account.
func (h *Handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	acct, err := h.manager.Balance(playerID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	response(w, http.StatusOK, map[string]interface{}{
		"playerId": playerID,
		"chips":    acct.Chips,
		"wins":     acct.Wins,
		"losses":   acct.Losses,
	})
}

// GetStats returns a player's blackjack statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	stats, err := h.manager.Stats(playerID)
	if err != nil {
		errorResponse(w, err)
		return
	}
	response(w, http.StatusOK, stats)
}

// ClaimDaily grants the once-per-day bonus.
func (h *Handlers) ClaimDaily(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	balance, err := h.manager.ClaimDaily(playerID)
	if err != nil {
		errorResponse(w, err)
		return
	}
	response(w, http.StatusOK, map[string]int64{"chips": balance})
}

// Grant credits chips to a player (admin top-up).
func (h *Handlers) Grant(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 {
		response(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	balance, err := h.manager.Grant(playerID, req.Amount)
	if err != nil {
		errorResponse(w, err)
		return
	}
	response(w, http.StatusOK, map[string]int64{"chips": balance})
}

// Leaderboard returns the top players by wins.
func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.manager.Leaderboard(limit)
	if err != nil {
		errorResponse(w, err)
		return
	}
	response(w, http.StatusOK, entries)
}

func (h *Handlers) push(tr *casino.Transition) {
	if h.hub == nil {
		return
	}
	h.hub.BroadcastToPlayer(tr.PlayerID, Message{
		Type:     "transition",
		PlayerID: tr.PlayerID,
		Data:     tr,
	})
}
