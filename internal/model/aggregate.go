package model

// TotalScope is the scope key for the whole-month budget rather than a
// single category.
const TotalScope = "TOTAL"

// MonthlyAggregate is a derived rollup of spend and income for one
// (month, category) pair. Category is TotalScope for the month-level rollup.
// Aggregates are rebuilt from scratch each run and never mutated in place.
type MonthlyAggregate struct {
	Month    Month
	Category string
	Spend    float64 // absolute sum of negative amounts
	Income   float64 // sum of positive amounts
}
