package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dom/deception-server/internal/service"
)

type CardHandler struct {
	cardService *service.CardService
}

func NewCardHandler(cardService *service.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

type SyncResponse struct {
	Synced int `json:"synced"`
}

func (h *CardHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.cardService.Catalog(r.Context())
	if err != nil {
		log.Printf("ERROR [cards.GetAll]: %v", err)
		http.Error(w, "Failed to get cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(catalog)
}

func (h *CardHandler) Sync(w http.ResponseWriter, r *http.Request) {
	synced, err := h.cardService.Sync(r.Context())
	if err != nil {
		log.Printf("ERROR [cards.Sync]: %v", err)
		http.Error(w, "Failed to sync cards", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SyncResponse{Synced: synced})
}
