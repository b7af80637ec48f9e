package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gasolina/internal/amqp"
	"gasolina/internal/core"
	"gasolina/internal/log"
)

// AlertLevel orders how far the month's spend has gone.
type AlertLevel int

const (
	AlertNone AlertLevel = iota
	AlertThreshold
	AlertOverBudget
)

func (l AlertLevel) String() string {
	switch l {
	case AlertThreshold:
		return "threshold"
	case AlertOverBudget:
		return "over_budget"
	default:
		return "none"
	}
}

// StatisticsSource is satisfied by services.StatsService.
type StatisticsSource interface {
	Statistics(ctx context.Context) (core.Statistics, error)
}

// Alert is raised at most once per level, month and budget.
type Alert struct {
	Month  string
	Level  AlertLevel
	Status core.BudgetStatus
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert)
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *log.StructuredLogger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: log.NewStructuredLogger(logger)}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) {
	n.logger.LogBudgetAlert(ctx, a.Month, a.Status)
}

// BudgetWorker watches entry events and alerts when the monthly spend crosses
// the configured percentage of the budget or exceeds it.
type BudgetWorker struct {
	stats     StatisticsSource
	notifier  Notifier
	threshold float64

	mu     sync.Mutex
	month  string
	budget float64
	level  AlertLevel
}

// NewBudgetWorker creates a worker. threshold is a percentage in (0, 100].
func NewBudgetWorker(stats StatisticsSource, notifier Notifier, threshold float64) *BudgetWorker {
	if threshold <= 0 || threshold > 100 {
		threshold = 80
	}
	return &BudgetWorker{stats: stats, notifier: notifier, threshold: threshold}
}

// HandleEvent processes a single entry event from AMQP
func (w *BudgetWorker) HandleEvent(ctx context.Context, ev *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"message_id", ev.MessageID,
		"type", ev.Type,
		"entry_id", ev.EntryID)

	if _, err := w.Check(ctx); err != nil {
		return fmt.Errorf("check budget after %s: %w", ev.Type, err)
	}
	return nil
}

// Check recomputes the current month's statistics and raises any alert not
// yet raised. It returns the level reached so far this month.
func (w *BudgetWorker) Check(ctx context.Context) (AlertLevel, error) {
	stats, err := w.stats.Statistics(ctx)
	if err != nil {
		return AlertNone, fmt.Errorf("load statistics: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if stats.Month != w.month || stats.Budget.Limit != w.budget {
		if w.level != AlertNone {
			slog.InfoContext(ctx, "Budget alert state reset",
				"month", stats.Month,
				"previous_month", w.month,
				"budget", stats.Budget.Limit)
		}
		w.month = stats.Month
		w.budget = stats.Budget.Limit
		w.level = AlertNone
	}

	reached := w.levelFor(stats.Budget)
	if reached > w.level {
		w.level = reached
		w.notifier.Notify(ctx, Alert{Month: stats.Month, Level: reached, Status: stats.Budget})
	}
	return w.level, nil
}

func (w *BudgetWorker) levelFor(b core.BudgetStatus) AlertLevel {
	switch {
	case !b.Set:
		return AlertNone
	case b.OverBudget:
		return AlertOverBudget
	case b.RawPercentage() >= w.threshold:
		return AlertThreshold
	default:
		return AlertNone
	}
}
