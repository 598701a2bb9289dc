package handlers

import (
	"net/http"

	"github.com/gabnunesdev/futmais-app/services"
	"github.com/go-chi/chi/v5"
)

type LobbyHandler struct {
	lobbyService services.LobbyService
}

func NewLobbyHandler(lobbyService services.LobbyService) *LobbyHandler {
	return &LobbyHandler{lobbyService: lobbyService}
}

func (h *LobbyHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.lobbyService.GetOrder(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil)
}

// Toggle flips a player's check-in: absent players are appended to the end of
// the arrival order, present players are removed.
func (h *LobbyHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	order, err := h.lobbyService.Toggle(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil)
}

func (h *LobbyHandler) Move(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Index int  `json:"index"`
		Up    bool `json:"up"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	order, err := h.lobbyService.Move(r.Context(), input.Index, input.Up)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": order}, nil)
}

func (h *LobbyHandler) ReplaceOrder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Order []string `json:"order"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.lobbyService.ReplaceOrder(r.Context(), input.Order); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"order": input.Order}, nil)
}
