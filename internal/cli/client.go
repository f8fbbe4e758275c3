package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dealersim/internal/api"
	"dealersim/internal/game"
	"dealersim/internal/syncq"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// APIError is a response the server produced. Anything else returned by the
// client is a transport failure and the command may be queued.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) State(ctx context.Context) (api.StateView, error) {
	var out api.StateView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out, "")
	return out, err
}

func (c *Client) Health(ctx context.Context) (game.HealthReport, error) {
	var out game.HealthReport
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/health", nil, &out, "")
	return out, err
}

func (c *Client) DailyReports(ctx context.Context) ([]game.DailyReport, error) {
	var out struct {
		Reports []game.DailyReport `json:"reports"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/reports/daily", nil, &out, "")
	return out.Reports, err
}

func (c *Client) MonthlyReports(ctx context.Context) ([]game.MonthlyReport, error) {
	var out struct {
		Reports []game.MonthlyReport `json:"reports"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/reports/monthly", nil, &out, "")
	return out.Reports, err
}

func (c *Client) Inventory(ctx context.Context) ([]game.Vehicle, float64, error) {
	var out struct {
		Inventory  []game.Vehicle `json:"inventory"`
		DaysSupply float64        `json:"days_supply"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/inventory", nil, &out, "")
	return out.Inventory, out.DaysSupply, err
}

func (c *Client) Archetypes(ctx context.Context) (map[string][]string, error) {
	var out map[string][]string
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/archetypes", nil, &out, "")
	return out, err
}

func (c *Client) Tick(ctx context.Context, hours int) (api.StateView, error) {
	var out api.StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tick", map[string]any{"hours": hours}, &out, "")
	return out, err
}

func (c *Client) CloseOut(ctx context.Context, force bool, idem string) (game.DailyReport, error) {
	var out struct {
		Report game.DailyReport `json:"report"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/closeout", map[string]any{"force": force}, &out, idem)
	return out.Report, err
}

// Command sends one queued-style command. Its path and body are exactly what
// the offline queue stores.
func (c *Client) Command(ctx context.Context, cmd syncq.Command) (map[string]any, error) {
	var out map[string]any
	var body any
	if cmd.Body != nil {
		body = cmd.Body
	}
	err := c.jsonRequest(ctx, cmd.Method, cmd.Path, body, &out, cmd.IdempotencyKey)
	return out, err
}

func (c *Client) SyncReplay(ctx context.Context, commands []syncq.Command) ([]api.ReplayResult, error) {
	var out struct {
		Results []api.ReplayResult `json:"results"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sync/replay", map[string]any{
		"commands": commands,
	}, &out, "")
	return out.Results, err
}

func StaffActivePath(id string) string {
	return "/v1/staff/" + url.PathEscape(id) + "/active"
}

func TrainPath(id string) string {
	return "/v1/advisors/" + url.PathEscape(id) + "/train"
}

func PricePath(id string) string {
	return "/v1/inventory/" + url.PathEscape(id) + "/price"
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
