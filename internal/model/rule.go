package model

import "strings"

// CategoryRule maps a description pattern to a spending category.
// Rules are evaluated in ascending priority order; the first match wins and
// ties at identical priority are broken by list order.
type CategoryRule struct {
	Pattern  string
	Category string
	Priority int
}

// Matches reports whether the rule's pattern occurs in the description.
// Matching is a case-insensitive substring test.
func (r *CategoryRule) Matches(description string) bool {
	if r.Pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(r.Pattern))
}

// Uncategorized is the category assigned when no rule matches and no
// fallback classifier produces an answer.
const Uncategorized = "Uncategorized"
