package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"dealersim/internal/config"
	"dealersim/internal/game"
)

func TestHubPushesStateAfterCommand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, "*")
	go hub.Run(ctx)

	st := game.NewState(game.NewGameConfig{Seed: 3, SeedVehicles: 2}, game.DefaultTables())
	srv := New(config.APIConfig{}, nil, game.NewEngine(game.NewMemoryRepository(st)), hub)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration happens on the hub goroutine; publish until it lands
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	got := make(chan Message, 1)
	go func() {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if json.Unmarshal(raw, &msg) == nil {
			got <- msg
		}
	}()
	for {
		code, _ := call(t, srv, "POST", "/v1/pause", nil, "")
		require.Equal(t, 200, code)
		select {
		case msg := <-got:
			require.Equal(t, "state", msg.Type)
			payload := msg.Payload.(map[string]any)
			require.Equal(t, true, payload["paused"])
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatalf("no websocket message received")
		}
	}
}
