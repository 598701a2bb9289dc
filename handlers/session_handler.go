package handlers

import (
	"errors"
	"net/http"

	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/models"
	"github.com/gabnunesdev/futmais-app/services"
	"github.com/go-chi/chi/v5"
)

// SessionHandler exposes the live game night: draft management, scoreboard
// actions and squad rotation. Every mutation answers with the full session
// snapshot, the same value the websocket pushes.
type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessionService.Snapshot(), nil)
}

func (h *SessionHandler) EnterDraft(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessionService.EnterDraft(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) Shuffle(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessionService.Shuffle(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) MoveDraftPlayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
		From     string `json:"from"`
		To       string `json:"to"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	from, ok := parseDraftSlot(input.From)
	if !ok {
		badRequestResponse(w, r, errors.New("from must be one of: red, blue, queue"))
		return
	}
	to, ok := parseDraftSlot(input.To)
	if !ok {
		badRequestResponse(w, r, errors.New("to must be one of: red, blue, queue"))
		return
	}

	snap := h.sessionService.MoveDraftPlayer(input.PlayerID, from, to)
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) ReorderDraftQueue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
		Up       bool   `json:"up"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap := h.sessionService.ReorderDraftQueue(input.PlayerID, moveDirection(input.Up))
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) RemoveFromDraftQueue(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	snap := h.sessionService.RemoveFromDraftQueue(playerID)
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) ShareText(w http.ResponseWriter, r *http.Request) {
	text, err := h.sessionService.ShareText()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"text": text}, nil)
}

func (h *SessionHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessionService.StartMatch(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap, nil)
}

func (h *SessionHandler) SetRunning(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Running bool `json:"running"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap, err := h.sessionService.SetRunning(input.Running)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) Goal(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ScorerID string  `json:"scorer_id"`
		AssistID *string `json:"assist_id"`
		Side     string  `json:"side"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	side, ok := parseSide(input.Side)
	if !ok {
		badRequestResponse(w, r, errors.New("side must be RED or BLUE"))
		return
	}

	snap, err := h.sessionService.Goal(input.ScorerID, input.AssistID, side)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) Card(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
		Card     string `json:"card"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var card matchplay.CardType
	switch input.Card {
	case string(matchplay.CardYellow):
		card = matchplay.CardYellow
	case string(matchplay.CardRed):
		card = matchplay.CardRed
	default:
		badRequestResponse(w, r, errors.New("card must be YELLOW or RED"))
		return
	}

	snap, err := h.sessionService.Card(input.PlayerID, card)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) Substitute(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OutgoingID string `json:"outgoing_id"`
		IncomingID string `json:"incoming_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap, err := h.sessionService.Substitute(r.Context(), input.OutgoingID, input.IncomingID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EventID   string `json:"event_id"`
		PlayerID  string `json:"player_id"`
		EventType string `json:"event_type"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	eventType := models.EventType(input.EventType)
	switch eventType {
	case models.EventGoal, models.EventAssist, models.EventYellowCard, models.EventRedCard:
	default:
		badRequestResponse(w, r, errors.New("unknown event type"))
		return
	}

	snap, err := h.sessionService.DeleteEvent(input.EventID, input.PlayerID, eventType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) EndManually(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessionService.EndManually()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

// EndMatch records the winner and rotates: the winning squad stays, the
// losers go to the back of the queue, the next challengers step up.
func (h *SessionHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Winner string `json:"winner"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	winner, ok := parseSide(input.Winner)
	if !ok {
		badRequestResponse(w, r, errors.New("winner must be RED or BLUE"))
		return
	}

	snap, err := h.sessionService.EndMatch(r.Context(), winner)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) FinishDay(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.FinishDay(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionService.Snapshot(), nil)
}

func (h *SessionHandler) ReorderMatchQueue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
		Up       bool   `json:"up"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap := h.sessionService.ReorderMatchQueue(input.PlayerID, moveDirection(input.Up))
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) MoveInMatchQueue(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SourceID string `json:"source_id"`
		TargetID string `json:"target_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap := h.sessionService.MoveInMatchQueue(input.SourceID, input.TargetID)
	writeJSON(w, http.StatusOK, snap, nil)
}

func (h *SessionHandler) AddLatePlayers(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerIDs []string `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	snap, err := h.sessionService.AddLatePlayers(r.Context(), input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap, nil)
}

func parseDraftSlot(s string) (matchplay.DraftSlot, bool) {
	switch s {
	case string(matchplay.SlotRed):
		return matchplay.SlotRed, true
	case string(matchplay.SlotBlue):
		return matchplay.SlotBlue, true
	case string(matchplay.SlotQueue):
		return matchplay.SlotQueue, true
	}
	return "", false
}

func parseSide(s string) (models.TeamColor, bool) {
	switch s {
	case string(models.ColorRed):
		return models.ColorRed, true
	case string(models.ColorBlue):
		return models.ColorBlue, true
	}
	return "", false
}

func moveDirection(up bool) matchplay.MoveDirection {
	if up {
		return matchplay.MoveUp
	}
	return matchplay.MoveDown
}
