package model

// BudgetStatusValue classifies monthly spend relative to a configured cap.
type BudgetStatusValue string

const (
	// StatusOK means spend is below the warning threshold.
	StatusOK BudgetStatusValue = "OK"
	// StatusNear means spend is at or past the warning threshold but not over the cap.
	StatusNear BudgetStatusValue = "NEAR"
	// StatusOver means spend exceeds the cap.
	StatusOver BudgetStatusValue = "OVER"
	// StatusUncapped marks a category with spend but no configured cap.
	// Informational only; never triggers an alert.
	StatusUncapped BudgetStatusValue = "UNCAPPED"
)

// Alertable reports whether the status should produce a notification.
func (s BudgetStatusValue) Alertable() bool {
	return s == StatusNear || s == StatusOver
}

// BudgetCap is a configured spending limit for a scope (TotalScope or a
// category name). Immutable for the duration of a run.
type BudgetCap struct {
	Scope         string
	Amount        float64
	WarnThreshold float64 // fraction of the cap in [0,1]
}

// BudgetStatus is the evaluated position of one scope for one month.
// Derived fresh each run; identical inputs always yield identical statuses.
type BudgetStatus struct {
	Scope     string // TotalScope or a category name
	Month     Month
	Spend     float64
	Cap       float64 // zero when Status is StatusUncapped
	Remaining float64 // negative when over
	PctUsed   float64
	Status    BudgetStatusValue
}

// IsTotal reports whether the status covers the whole month rather than a
// single category.
func (b *BudgetStatus) IsTotal() bool {
	return b.Scope == TotalScope
}
