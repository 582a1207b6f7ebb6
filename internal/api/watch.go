package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/riverflow/internal/entities"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

// Watcher prints a station's latest reading on a cron schedule.
// Readings are fetched one at a time from the calling goroutine.
type Watcher struct {
	service  FlowService
	out      io.Writer
	schedule cron.Schedule
	logger   *slog.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewWatcher parses a standard five-field cron expression
func NewWatcher(service FlowService, out io.Writer, spec string, logger *slog.Logger) (*Watcher, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", spec, err)
	}
	return &Watcher{
		service:  service,
		out:      out,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
		wait:     sleepContext,
	}, nil
}

// Run prints count readings (forever when count <= 0). Cancelling ctx stops
// the watcher cleanly.
func (w *Watcher) Run(ctx context.Context, match entities.Match, count int) error {
	for i := 0; count <= 0 || i < count; i++ {
		if i > 0 {
			now := w.now()
			next := w.schedule.Next(now)
			w.logger.Debug("waiting for next reading", "station_id", match.ID, "next", next.Format(time.RFC3339))
			if err := w.wait(ctx, next.Sub(now)); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}

		latest, err := w.service.LatestReading(ctx, match)
		stamp := w.now().Format("2006-01-02 15:04")
		switch {
		case apperrors.IsCode(err, apperrors.CodeNoData):
			fmt.Fprintf(w.out, "[%s] %s: %s\n", stamp, match.Name, MessageNoData)
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		default:
			unit := latest.Unit
			if unit == "" {
				unit = DefaultUnit
			}
			fmt.Fprintf(w.out, "[%s] %s: %s %s (%s)\n", stamp, latest.StationName, latest.Reading.Value, unit, latest.Reading.Date)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
