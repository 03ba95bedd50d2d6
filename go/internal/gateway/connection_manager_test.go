package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/icebreaker/go/internal/draw"
	"github.com/mcdev12/icebreaker/go/internal/events"
)

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event events.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestWebSocketGreetsAndBroadcasts(t *testing.T) {
	h := newHarness(t)
	h.session.state = draw.State{Phase: draw.PhaseRevealed, DrawnName: "Bob", DrawnQuestion: "Q"}
	h.hub.SetSnapshot(SessionSnapshot(h.session, "test"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.hub.Start(ctx)

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	greeting := readEvent(t, conn)
	assert.Equal(t, events.EventTypeSessionState, greeting.Type)
	var state map[string]any
	require.NoError(t, json.Unmarshal(greeting.Data, &state))
	assert.Equal(t, "revealed", state["phase"])
	assert.Equal(t, "Bob", state["drawnName"])
	assert.Equal(t, 1, h.hub.ConnectionCount())

	event, err := events.New(events.EventTypeCountdownTick, "test", time.Now(), events.CountdownTickPayload{TimeRemainingSec: 7})
	require.NoError(t, err)
	require.NoError(t, h.hub.Publish(ctx, event))

	got := readEvent(t, conn)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, events.EventTypeCountdownTick, got.Type)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	event := events.Event{Type: events.EventTypeSessionReset, Data: []byte(`{}`)}

	for i := 0; i < cap(cm.broadcastCh)+5; i++ {
		require.NoError(t, cm.Publish(context.Background(), event))
	}
	assert.Len(t, cm.broadcastCh, cap(cm.broadcastCh))
}

func TestConnectionStats(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, "GET", "/ws/stats", nil)
	assert.JSONEq(t, `{"total_connections":0}`, rec.Body.String())
}
