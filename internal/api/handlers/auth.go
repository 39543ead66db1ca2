package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/deception-server/internal/api/middleware"
	"github.com/dom/deception-server/internal/domain"
	"github.com/dom/deception-server/internal/service"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService *service.AuthService
	roomService *service.RoomService
}

func NewAuthHandler(authService *service.AuthService, roomService *service.RoomService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		roomService: roomService,
	}
}

type CredentialsRequest struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RefreshRequest struct {
	UserID       uuid.UUID `json:"userId"`
	RefreshToken string    `json:"refreshToken"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type UserResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// MeResponse tells a (re)connecting client who it is and where it sits.
type MeResponse struct {
	UserResponse
	Presence *domain.Presence `json:"presence,omitempty"`
}

func toAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:          result.User.ID.String(),
			DisplayName: result.User.DisplayName,
		},
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.DisplayName == "" || req.Password == "" {
		http.Error(w, "Display name and password are required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	switch {
	case errors.Is(err, service.ErrDisplayNameExists):
		http.Error(w, "Display name already exists", http.StatusConflict)
		return
	case errors.Is(err, domain.ErrInvalidAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		writeError(w, "handlers.Register", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if errors.Is(err, service.ErrInvalidCredentials) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		writeError(w, "handlers.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// Refresh exchanges a refresh token for a new token pair, so a client can
// rejoin its match after the access token lapsed.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == uuid.Nil || req.RefreshToken == "" {
		http.Error(w, "User ID and refresh token are required", http.StatusBadRequest)
		return
	}

	result, err := h.authService.Refresh(r.Context(), service.RefreshInput{
		UserID:       req.UserID,
		RefreshToken: req.RefreshToken,
	})
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		writeError(w, "handlers.Refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "handlers.Me", err)
		return
	}

	presence, err := h.roomService.Presence(r.Context(), userID)
	if err != nil {
		writeError(w, "handlers.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		UserResponse: UserResponse{
			ID:          user.ID.String(),
			DisplayName: user.DisplayName,
		},
		Presence: presence,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		writeError(w, "handlers.Logout", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
