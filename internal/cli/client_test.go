package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dealersim/internal/api"
	"dealersim/internal/config"
	"dealersim/internal/game"
	"dealersim/internal/syncq"
)

func newTestAPI(t *testing.T) (*Client, *game.Engine) {
	t.Helper()
	st := game.NewState(game.NewGameConfig{Seed: 42, SeedVehicles: 8}, game.DefaultTables())
	engine := game.NewEngine(game.NewMemoryRepository(st))
	ts := httptest.NewServer(api.New(config.APIConfig{}, nil, engine, nil).Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/"), engine
}

func TestClientReadsState(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	st, err := c.State(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", st.Date)
	require.Equal(t, 8, st.InStock)

	inv, _, err := c.Inventory(ctx)
	require.NoError(t, err)
	require.Len(t, inv, 8)

	arch, err := c.Archetypes(ctx)
	require.NoError(t, err)
	require.Contains(t, arch["technicians"], "veteran")
}

func TestClientCommandsAndErrors(t *testing.T) {
	c, engine := newTestAPI(t)
	ctx := context.Background()

	_, err := c.Command(ctx, syncq.Command{Method: http.MethodPost, Path: "/v1/speed", Body: map[string]any{"speed": 4}})
	require.NoError(t, err)
	require.Equal(t, 4, engine.State().Speed)

	_, err = c.Command(ctx, syncq.Command{Method: http.MethodPost, Path: "/v1/speed", Body: map[string]any{"speed": 5}})
	require.Error(t, err)
	require.True(t, IsAPIError(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Contains(t, apiErr.Message, "speed")

	_, err = c.Command(ctx, syncq.Command{Method: http.MethodPost, Path: "/v1/pause"})
	require.NoError(t, err)
	require.True(t, engine.State().Paused)
}

func TestClientDayCycle(t *testing.T) {
	c, _ := newTestAPI(t)
	ctx := context.Background()

	st, err := c.Tick(ctx, game.BusinessDayHours+1)
	require.NoError(t, err)
	require.True(t, st.AwaitingCloseout)

	rep, err := c.CloseOut(ctx, false, "")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", rep.Date)

	reports, err := c.DailyReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	_, err = c.Health(ctx)
	require.NoError(t, err)
}

func TestClientTransportErrorIsNotAPIError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.State(context.Background())
	require.Error(t, err)
	require.False(t, IsAPIError(err))
}

func TestSyncReplayThroughClient(t *testing.T) {
	c, engine := newTestAPI(t)
	results, err := c.SyncReplay(context.Background(), []syncq.Command{
		{Method: http.MethodPost, Path: "/v1/marketing", Body: map[string]any{"spend_per_day": 1200}, IdempotencyKey: "x"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, http.StatusOK, results[0].Status)
	require.Equal(t, 1200.0, engine.State().Marketing.SpendPerDay)
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSettings(dir)
	require.NoError(t, err)
	require.Empty(t, s.APIBaseURL)

	require.NoError(t, SaveSettings(dir, Settings{APIBaseURL: "http://x:1/", PackType: "desirable", PackSize: 5}))
	s, err = LoadSettings(dir)
	require.NoError(t, err)
	require.Equal(t, "http://x:1", s.APIBaseURL)
	require.Equal(t, 5, s.PackSize)

	require.NoError(t, ClearSettings(dir))
	require.NoError(t, ClearSettings(dir))
}
