// Package aggregate rolls categorized transactions up into monthly KPIs.
package aggregate

import (
	"sort"

	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// Monthly groups transactions by (month, category) and (month, TOTAL)
// simultaneously. Spend is the absolute sum of negative amounts, income the
// sum of positive amounts. Months with no transactions for a category are
// simply absent; downstream consumers treat a missing aggregate as zero.
// Output ordering is deterministic: by month, TOTAL first, then category name.
func Monthly(txns []model.Transaction) []model.MonthlyAggregate {
	type key struct {
		month    model.Month
		category string
	}

	buckets := make(map[key]*model.MonthlyAggregate)

	add := func(month model.Month, category string, amount float64) {
		k := key{month: month, category: category}
		agg, ok := buckets[k]
		if !ok {
			agg = &model.MonthlyAggregate{Month: month, Category: category}
			buckets[k] = agg
		}
		if amount < 0 {
			agg.Spend += -amount
		} else {
			agg.Income += amount
		}
	}

	for i := range txns {
		month := txns[i].Month()
		add(month, model.TotalScope, txns[i].Amount)
		add(month, txns[i].Category, txns[i].Amount)
	}

	out := make([]model.MonthlyAggregate, 0, len(buckets))
	for _, agg := range buckets {
		out = append(out, *agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		if (out[i].Category == model.TotalScope) != (out[j].Category == model.TotalScope) {
			return out[i].Category == model.TotalScope
		}
		return out[i].Category < out[j].Category
	})

	return out
}

// LatestMonth returns the most recent month present in the aggregates, or
// the empty month when there are none. Alerting is pinned to this month so
// historical backfills never page anyone.
func LatestMonth(aggregates []model.MonthlyAggregate) model.Month {
	var latest model.Month
	for i := range aggregates {
		if aggregates[i].Month > latest {
			latest = aggregates[i].Month
		}
	}
	return latest
}

// SpendHistory extracts the month-by-month TOTAL spend series in ascending
// month order, for forecasting and trend comparisons.
func SpendHistory(aggregates []model.MonthlyAggregate) []model.MonthlyAggregate {
	var history []model.MonthlyAggregate
	for i := range aggregates {
		if aggregates[i].Category == model.TotalScope {
			history = append(history, aggregates[i])
		}
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Month < history[j].Month
	})
	return history
}
