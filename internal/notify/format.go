// Package notify formats and dispatches budget alerts through configured
// channels, consulting the notification state store so repeated runs never
// re-deliver an alert for the same (channel, scope, month, status).
package notify

import (
	"fmt"
	"strings"

	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// Subject builds a short subject line for an alert.
func Subject(status model.BudgetStatus) string {
	return fmt.Sprintf("Budget alert: %s %s (%s)", status.Status, status.Scope, status.Month)
}

// FormatAlert renders one budget status as a single human-readable line.
func FormatAlert(status model.BudgetStatus) string {
	if status.Status == model.StatusUncapped {
		return fmt.Sprintf("[%s] %s (%s): spend %.2f, no cap configured",
			status.Status, status.Scope, status.Month, status.Spend)
	}
	return fmt.Sprintf("[%s] %s (%s): spend %.2f / cap %.2f (%.0f%% used, remaining %.2f)",
		status.Status, status.Scope, status.Month,
		status.Spend, status.Cap, status.PctUsed*100, status.Remaining)
}

// FormatDigest renders a multi-line body covering several alerts, used when
// a channel prefers one message per run.
func FormatDigest(statuses []model.BudgetStatus) string {
	if len(statuses) == 0 {
		return "No alerts."
	}
	lines := make([]string, 0, len(statuses))
	for i := range statuses {
		lines = append(lines, FormatAlert(statuses[i]))
	}
	return strings.Join(lines, "\n")
}
