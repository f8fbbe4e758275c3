package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dealersim/internal/syncq"
)

type ReplayResult struct {
	IdempotencyKey string          `json:"idempotency_key"`
	Status         int             `json:"status"`
	Body           json.RawMessage `json:"body,omitempty"`
}

// handleSyncReplay runs a batch of queued CLI commands through the router in
// order. Each command keeps its idempotency key, so a batch that is sent
// twice only applies once.
func (s *Server) handleSyncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []syncq.Command `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results := make([]ReplayResult, 0, len(in.Commands))
	for _, cmd := range in.Commands {
		key := strings.TrimSpace(cmd.IdempotencyKey)
		if key == "" {
			key = uuid.NewString()
		}
		if !strings.HasPrefix(cmd.Path, "/v1/") || strings.HasPrefix(cmd.Path, "/v1/sync") {
			results = append(results, ReplayResult{IdempotencyKey: key, Status: http.StatusBadRequest})
			continue
		}
		var body []byte
		if cmd.Body != nil {
			raw, err := json.Marshal(cmd.Body)
			if err != nil {
				results = append(results, ReplayResult{IdempotencyKey: key, Status: http.StatusBadRequest})
				continue
			}
			body = raw
		}
		// The outer request's route context would make chi match the
		// batch path again, so each command is routed from scratch.
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, nil)
		req, err := http.NewRequestWithContext(ctx, cmd.Method, cmd.Path, bytes.NewReader(body))
		if err != nil {
			results = append(results, ReplayResult{IdempotencyKey: key, Status: http.StatusBadRequest})
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)

		rec := newRecorder()
		s.mux.ServeHTTP(rec, req)
		res := ReplayResult{IdempotencyKey: key, Status: rec.status}
		if out := bytes.TrimSpace(rec.body.Bytes()); json.Valid(out) {
			res.Body = out
		}
		results = append(results, res)
	}
	s.log.Info("sync replay", "commands", len(in.Commands))
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(p []byte) (int, error) { return r.body.Write(p) }

func (r *recorder) WriteHeader(status int) { r.status = status }
