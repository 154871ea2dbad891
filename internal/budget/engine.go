// Package budget compares aggregated spend against configured caps.
package budget

import (
	"sort"

	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// Engine evaluates budget statuses for a run. Caps are immutable for the
// engine's lifetime; evaluation is deterministic so identical aggregates and
// caps always yield the identical status set.
type Engine struct {
	caps   map[string]model.BudgetCap
	scopes []string
}

// NewEngine creates an engine over the configured caps. Cap validity
// (amount > 0, threshold in [0,1]) is enforced by config loading before the
// engine ever sees them.
func NewEngine(caps []model.BudgetCap) *Engine {
	e := &Engine{caps: make(map[string]model.BudgetCap, len(caps))}
	for _, cap := range caps {
		if _, dup := e.caps[cap.Scope]; !dup {
			e.scopes = append(e.scopes, cap.Scope)
		}
		e.caps[cap.Scope] = cap
	}
	sort.Strings(e.scopes)
	return e
}

// Evaluate produces one BudgetStatus per (scope, month) pair present in
// either the aggregates or the configured caps. A configured cap with no
// aggregate for a month evaluates against zero spend; a category with spend
// but no cap is reported as UNCAPPED and never alerts.
func (e *Engine) Evaluate(aggregates []model.MonthlyAggregate) []model.BudgetStatus {
	spendByMonth := make(map[model.Month]map[string]float64)
	for i := range aggregates {
		agg := &aggregates[i]
		if spendByMonth[agg.Month] == nil {
			spendByMonth[agg.Month] = make(map[string]float64)
		}
		spendByMonth[agg.Month][agg.Category] = agg.Spend
	}

	months := make([]model.Month, 0, len(spendByMonth))
	for month := range spendByMonth {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	var statuses []model.BudgetStatus
	for _, month := range months {
		spends := spendByMonth[month]

		// Configured caps first: TOTAL, then categories in name order.
		if cap, ok := e.caps[model.TotalScope]; ok {
			statuses = append(statuses, e.classify(month, cap, spends[model.TotalScope]))
		}
		for _, scope := range e.scopes {
			if scope == model.TotalScope {
				continue
			}
			statuses = append(statuses, e.classify(month, e.caps[scope], spends[scope]))
		}

		// Spend outside any cap is informational.
		uncapped := make([]string, 0)
		for category, spend := range spends {
			if category == model.TotalScope || spend == 0 {
				continue
			}
			if _, capped := e.caps[category]; !capped {
				uncapped = append(uncapped, category)
			}
		}
		sort.Strings(uncapped)
		for _, category := range uncapped {
			statuses = append(statuses, model.BudgetStatus{
				Scope:  category,
				Month:  month,
				Spend:  spends[category],
				Status: model.StatusUncapped,
			})
		}
	}

	return statuses
}

// classify applies the threshold rules for one scope and month:
// OVER iff spend > cap; NEAR iff warn*cap <= spend <= cap; OK otherwise.
// Spend exactly at warn*cap classifies as NEAR, not OK.
func (e *Engine) classify(month model.Month, cap model.BudgetCap, spend float64) model.BudgetStatus {
	status := model.BudgetStatus{
		Scope:     cap.Scope,
		Month:     month,
		Spend:     spend,
		Cap:       cap.Amount,
		Remaining: cap.Amount - spend,
		PctUsed:   spend / cap.Amount,
	}

	switch {
	case spend > cap.Amount:
		status.Status = model.StatusOver
	case spend >= cap.Amount*cap.WarnThreshold:
		status.Status = model.StatusNear
	default:
		status.Status = model.StatusOK
	}

	return status
}
