package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/services"
)

type stubSessionService struct {
	services.SessionService
	snap services.SessionSnapshot
}

func (s *stubSessionService) Snapshot() services.SessionSnapshot { return s.snap }

type liveFrame struct {
	Type    string `json:"type"`
	Payload struct {
		Phase matchplay.Phase `json:"phase"`
	} `json:"payload"`
}

func newLiveServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := matchplay.NewHub(logger)
	go hub.Run()

	session := &stubSessionService{snap: services.SessionSnapshot{Phase: matchplay.PhaseLobby}}
	handler := NewWebSocketHandler(hub, session, logger)

	srv := httptest.NewServer(http.HandlerFunc(handler.ServeLive))
	t.Cleanup(srv.Close)
	return srv
}

func dialLive(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) liveFrame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame liveFrame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestServeLiveSendsSnapshotOnConnect(t *testing.T) {
	srv := newLiveServer(t)

	conn := dialLive(t, srv)
	frame := readFrame(t, conn)

	assert.Equal(t, "MATCH_STATE", frame.Type)
	assert.Equal(t, matchplay.PhaseLobby, frame.Payload.Phase)
}

func TestServeLiveSnapshotGoesOnlyToNewClient(t *testing.T) {
	srv := newLiveServer(t)

	first := dialLive(t, srv)
	readFrame(t, first)

	second := dialLive(t, srv)
	readFrame(t, second)

	// The second connection must not push anything to the first client.
	first.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
