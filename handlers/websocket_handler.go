package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer on the REST surface; the
		// scoreboard feed is read-only and carries no credentials.
		return true
	},
}

type WebSocketHandler struct {
	hub            *matchplay.Hub
	sessionService services.SessionService
	logger         *slog.Logger
}

func NewWebSocketHandler(hub *matchplay.Hub, sessionService services.SessionService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		sessionService: sessionService,
		logger:         logger,
	}
}

// ServeLive upgrades the connection and joins the shared scoreboard room.
// The current snapshot is sent immediately so a fresh client never waits for
// the next transition to render.
func (h *WebSocketHandler) ServeLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &matchplay.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: services.LiveRoom,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	// Queue the snapshot on the client's own channel. Registration completes
	// asynchronously in the hub loop, and the other clients already have the
	// current state, so a room broadcast is the wrong tool here.
	payload, err := json.Marshal(matchplay.LiveMessage{
		Type:    "MATCH_STATE",
		Payload: h.sessionService.Snapshot(),
		RoomID:  services.LiveRoom,
	})
	if err != nil {
		h.logger.Error("websocket snapshot marshal failed", slog.Any("error", err))
		return
	}
	client.QueueMessage(payload)
}
