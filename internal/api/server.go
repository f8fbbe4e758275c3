package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"dealersim/internal/config"
	"dealersim/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var ErrDuplicateCommand = errors.New("command already applied")

// Server exposes one game over HTTP. Commands run through the engine so
// they serialise with the tick scheduler.
type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	engine *game.Engine
	hub    *Hub
	mux    *chi.Mux

	keysMu sync.Mutex
	keys   map[string]struct{}
	order  []string
}

const (
	maxRememberedKeys = 1024
	maxTickHours      = 24
)

func New(cfg config.APIConfig, logger *slog.Logger, engine *game.Engine, hub *Hub) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		engine: engine,
		hub:    hub,
		mux:    chi.NewRouter(),
		keys:   make(map[string]struct{}),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.hub != nil {
		r.Get("/ws", s.hub.ServeWS)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(s.cors)

		r.Get("/state", s.handleState)
		r.Get("/health", s.handleHealth)
		r.Get("/reports/daily", s.handleDailyReports)
		r.Get("/reports/monthly", s.handleMonthlyReports)
		r.Get("/inventory", s.handleInventory)
		r.Get("/archetypes", s.handleArchetypes)

		r.Post("/tick", s.handleTick)
		r.Post("/closeout", s.handleCloseout)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
		r.Post("/speed", s.handleSpeed)

		r.Post("/advisors", s.handleHireAdvisor)
		r.Post("/advisors/{id}/train", s.handleTrainAdvisor)
		r.Post("/technicians", s.handleHireTechnician)
		r.Post("/manager", s.handleHireManager)
		r.Post("/staff/{id}/active", s.handleStaffActive)

		r.Post("/inventory/packs", s.handlePurchasePack)
		r.Post("/inventory/restock", s.handleAutoRestock)
		r.Post("/inventory/{id}/price", s.handleAdjustPrice)
		r.Post("/pricing", s.handlePricing)
		r.Post("/marketing", s.handleMarketing)
		r.Post("/coefficients", s.handleCoefficients)

		r.Post("/sync/replay", s.handleSyncReplay)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.AllowedOrigin
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StateView is the game snapshot plus values the frontend would otherwise
// have to derive.
type StateView struct {
	game.GameState
	Date             string `json:"date"`
	AwaitingCloseout bool   `json:"awaiting_closeout"`
	InStock          int    `json:"in_stock"`
}

func NewStateView(st game.GameState) StateView {
	return StateView{
		GameState:        st,
		Date:             st.DateKey(),
		AwaitingCloseout: st.AwaitingCloseout(),
		InStock:          st.InStockCount(),
	}
}

func (s *Server) publish(st game.GameState) {
	if s.hub != nil {
		s.hub.Publish("state", NewStateView(st))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateView(s.engine.State()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.HealthCheck(s.engine.State()))
}

func (s *Server) handleDailyReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": s.engine.State().DailyHistory})
}

func (s *Server) handleMonthlyReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": s.engine.State().MonthlyReports})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	st := s.engine.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"inventory":   st.Inventory,
		"days_supply": game.HealthCheck(st).DaysSupply,
	})
}

func (s *Server) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	t := s.engine.Tables()
	writeJSON(w, http.StatusOK, map[string]any{
		"advisors":    t.Archetypes.AdvisorNames(),
		"technicians": t.Archetypes.TechnicianNames(),
		"segments":    game.Segments(),
	})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Hours int `json:"hours"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Hours <= 0 || in.Hours > maxTickHours {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("hours must be between 1 and %d", maxTickHours))
		return
	}
	st := s.engine.Tick(in.Hours)
	s.publish(st)
	writeJSON(w, http.StatusOK, NewStateView(st))
}

func (s *Server) handleCloseout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Force bool `json:"force"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.claimKey(w, r) {
		return
	}
	st, report := s.engine.CloseOutDay(in.Force)
	if report == nil {
		s.releaseKey(r)
		writeError(w, http.StatusConflict, fmt.Sprintf("day %s is not ready to close", st.DateKey()))
		return
	}
	s.publish(st)
	if s.hub != nil {
		s.hub.Publish("daily_report", report)
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "state": NewStateView(st)})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.applySimple(w, r, game.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.applySimple(w, r, game.Resume)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Speed int `json:"speed"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applySimple(w, r, func(st game.GameState) (game.GameState, error) {
		return game.SetSpeed(st, in.Speed)
	})
}

func (s *Server) handleHireAdvisor(w http.ResponseWriter, r *http.Request) {
	var in game.HireRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var hired game.SalesAdvisor
	s.applyRand(w, r, func(st game.GameState, rng *game.RNG) (game.GameState, error) {
		next, a, err := game.HireAdvisor(st, s.engine.Tables(), rng, in)
		hired = a
		return next, err
	}, func() any { return map[string]any{"advisor": hired} })
}

func (s *Server) handleHireTechnician(w http.ResponseWriter, r *http.Request) {
	var in game.HireRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var hired game.Technician
	s.applyRand(w, r, func(st game.GameState, rng *game.RNG) (game.GameState, error) {
		next, t, err := game.HireTechnician(st, s.engine.Tables(), rng, in)
		hired = t
		return next, err
	}, func() any { return map[string]any{"technician": hired} })
}

func (s *Server) handleHireManager(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var hired game.SalesManager
	s.applyRand(w, r, func(st game.GameState, rng *game.RNG) (game.GameState, error) {
		next, m, err := game.HireSalesManager(st, rng, in.Name)
		hired = m
		return next, err
	}, func() any { return map[string]any{"manager": hired} })
}

func (s *Server) handleStaffActive(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	s.applySimple(w, r, func(st game.GameState) (game.GameState, error) {
		return game.SetStaffActive(st, id, in.Active)
	})
}

func (s *Server) handleTrainAdvisor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var trained game.SalesAdvisor
	s.apply(w, r, func(st game.GameState) (game.GameState, error) {
		next, a, err := game.TrainAdvisor(st, id)
		trained = a
		return next, err
	}, func() any { return map[string]any{"advisor": trained} })
}

func (s *Server) handlePurchasePack(w http.ResponseWriter, r *http.Request) {
	var in game.PackRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var res game.PackResult
	s.applyRand(w, r, func(st game.GameState, rng *game.RNG) (game.GameState, error) {
		next, out, err := game.PurchasePack(st, s.engine.Tables(), rng, in)
		res = out
		return next, err
	}, func() any { return res })
}

func (s *Server) handleAutoRestock(w http.ResponseWriter, r *http.Request) {
	var in game.PackRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var res game.RestockResult
	s.applyRand(w, r, func(st game.GameState, rng *game.RNG) (game.GameState, error) {
		next, out, err := game.AutoRestock(st, s.engine.Tables(), rng, in)
		res = out
		return next, err
	}, func() any { return res })
}

func (s *Server) handleAdjustPrice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Asking float64 `json:"asking"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	var v game.Vehicle
	s.apply(w, r, func(st game.GameState) (game.GameState, error) {
		next, out, err := game.AdjustVehiclePrice(st, id, in.Asking)
		v = out
		return next, err
	}, func() any { return map[string]any{"vehicle": v} })
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	var in game.PricingUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applySimple(w, r, func(st game.GameState) (game.GameState, error) {
		return game.SetPricingPolicy(st, in)
	})
}

func (s *Server) handleMarketing(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SpendPerDay float64 `json:"spend_per_day"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applySimple(w, r, func(st game.GameState) (game.GameState, error) {
		return game.SetMarketingSpend(st, in.SpendPerDay)
	})
}

func (s *Server) handleCoefficients(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, func(st game.GameState) (game.GameState, error) {
		return game.UpdateCoefficients(st, patch)
	}, func() any { return map[string]any{"coefficients": s.engine.State().Coefficients} })
}

// applySimple runs a command whose only result is the new state.
func (s *Server) applySimple(w http.ResponseWriter, r *http.Request, cmd func(game.GameState) (game.GameState, error)) {
	s.apply(w, r, cmd, nil)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd func(game.GameState) (game.GameState, error), result func() any) {
	if !s.claimKey(w, r) {
		return
	}
	st, err := s.engine.Apply(cmd)
	s.respond(w, r, st, err, result)
}

func (s *Server) applyRand(w http.ResponseWriter, r *http.Request, cmd func(game.GameState, *game.RNG) (game.GameState, error), result func() any) {
	if !s.claimKey(w, r) {
		return
	}
	st, err := s.engine.ApplyRand(cmd)
	s.respond(w, r, st, err, result)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, st game.GameState, err error, result func() any) {
	if err != nil {
		s.releaseKey(r)
		s.log.Info("command rejected", "path", r.URL.Path, "error", err)
		writeDomainError(w, err)
		return
	}
	s.publish(st)
	if result == nil {
		writeJSON(w, http.StatusOK, NewStateView(st))
		return
	}
	writeJSON(w, http.StatusOK, result())
}

// claimKey records the request's Idempotency-Key. A key that was already
// applied is answered with 409 and the command is not run again.
func (s *Server) claimKey(w http.ResponseWriter, r *http.Request) bool {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return true
	}
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	if _, ok := s.keys[key]; ok {
		writeDomainError(w, fmt.Errorf("key %s: %w", key, ErrDuplicateCommand))
		return false
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
	if len(s.order) > maxRememberedKeys {
		delete(s.keys, s.order[0])
		s.order = s.order[1:]
	}
	return true
}

func (s *Server) releaseKey(r *http.Request) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return
	}
	s.keysMu.Lock()
	delete(s.keys, key)
	s.keysMu.Unlock()
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateCommand),
		errors.Is(err, game.ErrCapacityReached),
		errors.Is(err, game.ErrCloseoutPending),
		errors.Is(err, game.ErrTrainingMaxed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrVehicleNotFound), errors.Is(err, game.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrUnknownArchetype),
		errors.Is(err, game.ErrInvalidPackType),
		errors.Is(err, game.ErrInvalidQuantity),
		errors.Is(err, game.ErrBelowFloor),
		errors.Is(err, game.ErrInvalidPolicy),
		errors.Is(err, game.ErrInvalidSpeed),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrBadCoefficients):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("encode response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
