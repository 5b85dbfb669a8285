// Package scheduler runs the background limit watcher: a periodic sweep
// that compares each child's usage today against their daily limit and
// alerts the parent when the limit is crossed.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"kidsafe/internal/core"
	"kidsafe/internal/storage"
)

// Storage interface for limit watcher operations
type Storage interface {
	ListChildren(ctx context.Context) ([]*core.Child, error)
	GetUser(ctx context.Context, id string) (*core.User, error)
	ListActivitiesByChild(ctx context.Context, childID string, filter storage.ActivityFilter) ([]*core.Activity, error)
}

// Notifier interface for sending limit alerts
type Notifier interface {
	SendTimeLimitAlert(ctx context.Context, parentEmail, childID, childName, appName string)
}

// LimitWatcher periodically checks children against their daily limits
type LimitWatcher struct {
	storage    Storage
	calculator *core.DashboardCalculator
	notifier   Notifier
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
	stopChan   chan struct{}

	// childID -> date already alerted, so each child gets at most one
	// alert per calendar day
	alerted map[string]string
}

// NewLimitWatcher creates a new limit watcher
func NewLimitWatcher(st Storage, calculator *core.DashboardCalculator, notifier Notifier, interval time.Duration, logger *slog.Logger) *LimitWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LimitWatcher{
		storage:    st,
		calculator: calculator,
		notifier:   notifier,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		stopChan:   make(chan struct{}),
		alerted:    make(map[string]string),
	}
}

// Start begins the watcher loop. Blocks until Stop is called.
func (w *LimitWatcher) Start() {
	w.logger.Info("Limit watcher started",
		"component", "scheduler",
		"interval", w.interval.String(),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkOnce(context.Background())
		case <-w.stopChan:
			w.logger.Info("Limit watcher stopped", "component", "scheduler")
			return
		}
	}
}

// Stop signals the watcher loop to exit
func (w *LimitWatcher) Stop() {
	close(w.stopChan)
}

// checkOnce runs one sweep over all children
func (w *LimitWatcher) checkOnce(ctx context.Context) {
	children, err := w.storage.ListChildren(ctx)
	if err != nil {
		w.logger.Error("Failed to list children",
			"component", "scheduler",
			"error", err,
		)
		return
	}

	now := w.now()
	today := w.calculator.StartOfDay(now)
	dateKey := today.Format("2006-01-02")

	for _, child := range children {
		if w.alerted[child.ID] == dateKey {
			continue
		}

		activities, err := w.storage.ListActivitiesByChild(ctx, child.ID, storage.ActivityFilter{From: &today})
		if err != nil {
			w.logger.Error("Failed to list activities",
				"component", "scheduler",
				"child_id", child.ID,
				"error", err,
			)
			continue
		}

		summary := w.calculator.DailySummary(activities, child.DailyLimit, now)
		if summary.TotalTimeToday < child.DailyLimit {
			continue
		}

		parent, err := w.storage.GetUser(ctx, child.ParentID)
		if err != nil {
			w.logger.Error("Failed to load parent for limit alert",
				"component", "scheduler",
				"child_id", child.ID,
				"error", err,
			)
			continue
		}

		w.logger.Info("Daily limit reached",
			"component", "scheduler",
			"child_id", child.ID,
			"used", summary.TotalTimeToday,
			"limit", child.DailyLimit,
		)

		w.notifier.SendTimeLimitAlert(ctx, parent.Email, child.ID, child.Name, "daily screen time")
		w.alerted[child.ID] = dateKey
	}
}
