package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/deception-server/internal/api/middleware"
	"github.com/dom/deception-server/internal/game"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type MatchHandler struct {
	matchService *service.MatchService
	roomService  *service.RoomService
	hub          *websocket.Hub
	redact       bool
}

func NewMatchHandler(matchService *service.MatchService, roomService *service.RoomService, hub *websocket.Hub, redact bool) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		roomService:  roomService,
		hub:          hub,
		redact:       redact,
	}
}

type CreateMatchRequest struct {
	RoomID string `json:"roomId"`
}

// Create deals a match for a room whose members are all ready.
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), req.RoomID)
	if err != nil {
		writeError(w, "match.Create", err)
		return
	}

	m, err := h.matchService.Create(r.Context(), userID, room.ID)
	if err != nil {
		writeError(w, "match.Create", err)
		return
	}
	h.hub.MatchCreated(m)

	if h.redact {
		m = game.ViewFor(m, userID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(m)
}

// Get returns the latest committed snapshot, as seen by the caller.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	m, err := h.matchService.Get(r.Context(), matchID)
	if err != nil {
		writeError(w, "match.Get", err)
		return
	}

	if h.redact {
		m = game.ViewFor(m, userID)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	m, err := h.matchService.Delete(r.Context(), userID, matchID)
	if err != nil {
		writeError(w, "match.Delete", err)
		return
	}
	h.hub.MatchDestroyed(m.RoomID, m.ID)

	w.WriteHeader(http.StatusNoContent)
}
