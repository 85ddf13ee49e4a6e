package ws

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

	"scamshield/internal/risk"
	"scamshield/internal/types"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHubBroadcastsRiskUpdates(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := dialHub(t, h)

	h.OnRiskUpdate(risk.Current{Score: 96, Level: risk.LevelScam, Confidence: 88})
	ev := readEvent(t, conn)
	assert.Equal(t, "risk_update", ev.Type)

	payload, ok := ev.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(96), payload["score"])
	assert.Equal(t, string(risk.LevelScam), payload["level"])
}

func TestHubBroadcastsAllEventTypes(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := dialHub(t, h)

	h.OnModeChange(types.ModeScripted)
	h.OnSegment(types.Segment{Speaker: types.SpeakerCaller, Text: "hello", Risk: 10})
	h.OnEscalation(risk.LevelScam)

	got := []string{readEvent(t, conn).Type, readEvent(t, conn).Type, readEvent(t, conn).Type}
	assert.Equal(t, []string{"mode_change", "segment", "escalation"}, got)
}

func TestHubDropsEventsWithoutRunningLoop(t *testing.T) {
	h := NewHub()
	// no Run loop: publishing must not block
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*2; i++ {
			h.OnEscalation(risk.LevelSuspicious)
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked without a hub loop")
	}
}
