package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/deception-server/internal/api/middleware"
	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/websocket"
	"github.com/go-chi/chi/v5"
)

type RoomHandler struct {
	roomService *service.RoomService
	hub         *websocket.Hub
}

func NewRoomHandler(roomService *service.RoomService, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		hub:         hub,
	}
}

type CreateRoomRequest struct {
	Title string `json:"title"`
}

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

type MemberResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsReady     bool   `json:"isReady"`
}

type RoomResponse struct {
	ID        string           `json:"id"`
	ShortCode string           `json:"shortCode"`
	Title     string           `json:"title"`
	HostID    string           `json:"hostId"`
	MatchID   *string          `json:"matchId"`
	Members   []MemberResponse `json:"members"`
}

func toRoomResponse(room *domain.Room) RoomResponse {
	resp := RoomResponse{
		ID:        room.ID.String(),
		ShortCode: room.ShortCode,
		Title:     room.Title,
		HostID:    room.HostID.String(),
		Members:   make([]MemberResponse, len(room.Members)),
	}
	if room.MatchID != nil {
		id := room.MatchID.String()
		resp.MatchID = &id
	}
	for i, m := range room.Members {
		resp.Members[i] = MemberResponse{
			UserID:      m.UserID.String(),
			DisplayName: m.DisplayName(),
			IsReady:     m.IsReady,
		}
	}
	return resp
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), service.CreateRoomInput{
		HostID: userID,
		Title:  req.Title,
	})
	if err != nil {
		writeError(w, "room.Create", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toRoomResponse(room))
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomService.GetRoom(r.Context(), chi.URLParam(r, "idOrCode"))
	if err != nil {
		writeError(w, "room.Get", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRoomResponse(room))
}

func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), chi.URLParam(r, "idOrCode"))
	if err != nil {
		writeError(w, "room.Join", err)
		return
	}

	room, err = h.roomService.JoinRoom(r.Context(), room.ID, userID)
	if err != nil {
		writeError(w, "room.Join", err)
		return
	}
	h.hub.RoomUpdated(room.ID, room)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRoomResponse(room))
}

func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), chi.URLParam(r, "idOrCode"))
	if err != nil {
		writeError(w, "room.Leave", err)
		return
	}
	roomID := room.ID

	room, err = h.roomService.LeaveRoom(r.Context(), roomID, userID)
	if err != nil {
		writeError(w, "room.Leave", err)
		return
	}
	h.hub.RoomUpdated(roomID, room)

	if room == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRoomResponse(room))
}

func (h *RoomHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.GetRoom(r.Context(), chi.URLParam(r, "idOrCode"))
	if err != nil {
		writeError(w, "room.SetReady", err)
		return
	}

	room, err = h.roomService.SetReady(r.Context(), room.ID, userID, req.Ready)
	if err != nil {
		writeError(w, "room.SetReady", err)
		return
	}
	h.hub.RoomUpdated(room.ID, room)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRoomResponse(room))
}
