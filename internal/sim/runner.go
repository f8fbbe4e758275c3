package sim

import (
	"context"
	"log/slog"
	"time"

	"dealersim/internal/game"
	"dealersim/internal/notify"
	"dealersim/internal/telemetry"
)

// Publisher pushes updates to connected clients.
type Publisher interface {
	Publish(kind string, payload any)
}

// SaveFunc persists a snapshot.
type SaveFunc func(ctx context.Context, s game.GameState) error

// Runner is the only periodic driver of the engine: one timer tick runs one
// simulated hour. The interval is divided by the game's speed.
type Runner struct {
	engine    *game.Engine
	log       *slog.Logger
	every     time.Duration
	autoClose bool
	notifier  notify.Notifier
	metrics   *telemetry.Instruments
	publisher Publisher
	save      SaveFunc
	saveEvery time.Duration
	lastSave  time.Time
	view      func(game.GameState) any
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithAutoClose closes out gated days and resumes the next one without
// waiting for the player.
func WithAutoClose(on bool) Option {
	return func(r *Runner) { r.autoClose = on }
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithMetrics(m *telemetry.Instruments) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithPublisher sends state updates after every tick; view shapes the
// payload.
func WithPublisher(p Publisher, view func(game.GameState) any) Option {
	return func(r *Runner) {
		r.publisher = p
		r.view = view
	}
}

// WithSnapshots saves at most once per interval and always after a close-out.
func WithSnapshots(save SaveFunc, every time.Duration) Option {
	return func(r *Runner) {
		r.save = save
		r.saveEvery = every
	}
}

func NewRunner(engine *game.Engine, every time.Duration, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		log:    slog.Default(),
		every:  every,
		view:   func(s game.GameState) any { return s },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) interval(speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	return r.every / time.Duration(speed)
}

// Run ticks until ctx is cancelled. A final snapshot is written on the way
// out.
func (r *Runner) Run(ctx context.Context) error {
	speed := r.engine.State().Speed
	ticker := time.NewTicker(r.interval(speed))
	defer ticker.Stop()

	r.log.Info("scheduler started", "tick_every", r.every.String(), "speed", speed, "auto_close", r.autoClose)
	for {
		select {
		case <-ctx.Done():
			r.flush()
			r.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			st := r.Step(ctx)
			if st.Speed != speed {
				speed = st.Speed
				ticker.Reset(r.interval(speed))
				r.log.Info("speed changed", "speed", speed)
			}
		}
	}
}

// Step performs one scheduler tick.
func (r *Runner) Step(ctx context.Context) game.GameState {
	start := time.Now()
	st := r.engine.State()

	switch {
	case st.AwaitingCloseout() && r.autoClose:
		st = r.closeDay(ctx)
	case st.Paused:
		return st
	default:
		var res game.HourResult
		st, res = r.engine.Step()
		r.metrics.RecordHour(ctx, res)
	}

	r.metrics.RecordTick(ctx, time.Since(start), st)
	if r.publisher != nil {
		r.publisher.Publish("state", r.view(st))
	}
	if r.save != nil && time.Since(r.lastSave) >= r.saveEvery {
		r.persist(ctx, st)
	}
	return st
}

func (r *Runner) closeDay(ctx context.Context) game.GameState {
	st, report := r.engine.CloseOutDay(false)
	if report == nil {
		return st
	}
	r.metrics.RecordDay(ctx, *report)
	if r.publisher != nil {
		r.publisher.Publish("daily_report", report)
	}
	if r.notifier != nil {
		if err := r.notifier.DayClosed(ctx, *report); err != nil {
			r.log.Warn("daily report notify failed", "date", report.Date, "error", err)
		}
	}
	if r.save != nil {
		r.persist(ctx, st)
	}
	next, err := r.engine.Apply(game.Resume)
	if err != nil {
		r.log.Error("resume after close-out failed", "error", err)
		return st
	}
	return next
}

func (r *Runner) persist(ctx context.Context, st game.GameState) {
	if err := r.save(ctx, st); err != nil {
		r.log.Error("snapshot save failed", "error", err)
		return
	}
	r.lastSave = time.Now()
}

func (r *Runner) flush() {
	if r.save == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.persist(ctx, r.engine.State())
}

// RunDays plays whole business days back to back with no timer. Every day
// is resumed, ticked to the gate and closed out.
func RunDays(ctx context.Context, engine *game.Engine, days int, n notify.Notifier, logger *slog.Logger) ([]game.DailyReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reports := make([]game.DailyReport, 0, days)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		st := engine.State()
		if !st.AwaitingCloseout() {
			if _, err := engine.Apply(game.Resume); err != nil {
				return reports, err
			}
			engine.Tick(game.BusinessDayHours + 1)
		}
		_, report := engine.CloseOutDay(true)
		if report == nil {
			continue
		}
		reports = append(reports, *report)
		if n != nil {
			if err := n.DayClosed(ctx, *report); err != nil {
				logger.Warn("daily report notify failed", "date", report.Date, "error", err)
			}
		}
	}
	return reports, nil
}
