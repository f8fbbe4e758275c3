package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dealersim/internal/game"
)

// Notifier receives every closed day together with the notifications the
// close-out produced.
type Notifier interface {
	DayClosed(ctx context.Context, report game.DailyReport) error
}

type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (l *Log) DayClosed(_ context.Context, r game.DailyReport) error {
	l.log.Info("daily report",
		"date", r.Date,
		"units", r.UnitsSold,
		"front_gross", r.FrontGross,
		"ros", r.ROsCompleted,
		"ending_cash", r.EndingCash,
		"csi", r.CSI,
		"notes", len(r.Notes),
	)
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) DayClosed(ctx context.Context, r game.DailyReport) error {
	var errs []error
	for _, n := range m {
		if err := n.DayClosed(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Summary renders a report as the short plain-text block chat sinks post.
func Summary(r game.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Day closed %s\n", r.Date)
	fmt.Fprintf(&b, "Units %d  Close rate %.0f%%  Front gross %.0f\n", r.UnitsSold, r.ClosingRate*100, r.FrontGross)
	fmt.Fprintf(&b, "ROs %d  Comebacks %d  Parts %.0f\n", r.ROsCompleted, r.Comebacks, r.PartsRevenue)
	fmt.Fprintf(&b, "Cash %.0f (%+.0f)  CSI %.1f  Days supply %.0f", r.EndingCash, r.NetCashFlow, r.CSI, r.DaysSupply)
	if r.Event != "" {
		fmt.Fprintf(&b, "\nEvent: %s", r.Event)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "\n- %s", n)
	}
	return b.String()
}
