package notify

import (
	"context"
	"log/slog"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// LogNotifier writes alerts to the structured log. Always available, useful
// for dry runs and as a delivery trail when no transport is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns the channel identifier used for notification state keys.
func (n *LogNotifier) Name() string {
	return "log"
}

// Notify logs the alert. It cannot fail.
func (n *LogNotifier) Notify(_ context.Context, status model.BudgetStatus) model.DeliveryResult {
	slog.Warn("Budget alert",
		"scope", status.Scope,
		"month", status.Month,
		"status", status.Status,
		"spend", status.Spend,
		"cap", status.Cap,
		"remaining", status.Remaining)

	return model.DeliveryResult{Channel: n.Name(), Success: true}
}

var _ service.Notifier = (*LogNotifier)(nil)
