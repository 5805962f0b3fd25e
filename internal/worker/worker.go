// Package worker runs the periodic maintenance loop: folding completed
// weeks of daily rollups into weekly rollups and closing idle sessions.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jacobreesgit/musicmemory/internal/charts"
	"github.com/jacobreesgit/musicmemory/internal/logger"
	"github.com/jacobreesgit/musicmemory/internal/store"
	"github.com/jacobreesgit/musicmemory/internal/watcher"
)

// RollupStore is the slice of the store the worker needs.
type RollupStore interface {
	EarliestAggregateDay() (time.Time, error)
	RollupWeek(weekStart time.Time) error
}

// SettingsStore records worker progress markers.
type SettingsStore interface {
	Set(key, value string) error
}

type Worker struct {
	store    RollupStore
	sessions *watcher.SessionContext
	settings SettingsStore
	interval time.Duration
	log      *logger.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(store RollupStore, sessions *watcher.SessionContext, settings SettingsStore, interval time.Duration, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:    store,
		sessions: sessions,
		settings: settings,
		interval: interval,
		log:      log.WithComponent("worker"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.log.Info("starting worker", "interval", w.interval)
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) Stop() {
	w.log.Info("stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	// Catch up once on startup rather than waiting a full interval.
	w.runOnce(time.Now())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(time.Now())
		}
	}
}

func (w *Worker) runOnce(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic in maintenance run", "panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := w.RollupCompletedWeeks(now); err != nil {
		w.log.Error("weekly rollup failed", "error", err)
	}

	if w.sessions != nil {
		w.sessions.CloseIdle(now)
	}
}

// RollupCompletedWeeks folds every fully elapsed ISO week from the earliest
// aggregated day up to (but excluding) the current week. Rollups replace any
// prior row for the week, so repeated runs converge on the same state.
func (w *Worker) RollupCompletedWeeks(now time.Time) error {
	earliest, err := w.store.EarliestAggregateDay()
	if err != nil {
		return err
	}
	if earliest.IsZero() {
		return nil
	}

	currentWeek := charts.WeekStart(now)
	var lastRolled time.Time
	for week := charts.WeekStart(earliest); week.Before(currentWeek); week = week.AddDate(0, 0, 7) {
		if err := w.store.RollupWeek(week); err != nil {
			return fmt.Errorf("rollup for week %s: %w", week.Format("2006-01-02"), err)
		}
		lastRolled = week
	}

	if !lastRolled.IsZero() && w.settings != nil {
		if err := w.settings.Set(store.SettingLastRollupWeek, lastRolled.Format("2006-01-02")); err != nil {
			w.log.Error("failed to record rollup progress", "error", err)
		}
	}
	return nil
}
