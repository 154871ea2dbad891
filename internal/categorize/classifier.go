// Package categorize assigns spending categories to normalized transactions.
//
// Rules are always consulted first; a fallback classifier, when configured,
// only sees transactions the rules could not place. Both sides satisfy the
// same Classifier contract so callers never special-case the variant.
package categorize

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// RuleClassifier evaluates an ordered category rule list.
// It is a pure function of (rules, description): identical inputs always
// yield the identical category.
type RuleClassifier struct {
	rules []model.CategoryRule
}

// NewRuleClassifier creates a classifier over the given rules. Rules are
// evaluated in ascending priority order; the stable sort preserves list
// order for rules sharing a priority, so the first listed wins.
func NewRuleClassifier(rules []model.CategoryRule) *RuleClassifier {
	sorted := make([]model.CategoryRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &RuleClassifier{rules: sorted}
}

// Predict returns the category of the first matching rule, or
// model.Uncategorized when nothing matches.
func (c *RuleClassifier) Predict(_ context.Context, description string) (string, error) {
	for i := range c.rules {
		if c.rules[i].Matches(description) {
			return c.rules[i].Category, nil
		}
	}
	return model.Uncategorized, nil
}

// Rules returns the rules in evaluation order.
func (c *RuleClassifier) Rules() []model.CategoryRule {
	return c.rules
}

var _ service.Classifier = (*RuleClassifier)(nil)

var merchantKeyPattern = regexp.MustCompile(`\s+`)

// MerchantKey normalizes a raw description into the key used by the learned
// merchant memory.
func MerchantKey(description string) string {
	key := strings.ToLower(strings.TrimSpace(description))
	return merchantKeyPattern.ReplaceAllString(key, " ")
}

// MemoryClassifier predicts from previously learned merchant categories.
type MemoryClassifier struct {
	memory service.MerchantMemory
}

// NewMemoryClassifier creates a classifier backed by a merchant memory store.
func NewMemoryClassifier(memory service.MerchantMemory) *MemoryClassifier {
	return &MemoryClassifier{memory: memory}
}

// Predict looks the description up in the learned merchant memory.
// An unknown merchant yields model.Uncategorized, not an error.
func (c *MemoryClassifier) Predict(ctx context.Context, description string) (string, error) {
	category, err := c.memory.GetMerchantCategory(ctx, MerchantKey(description))
	if err != nil {
		return model.Uncategorized, err
	}
	if category == "" {
		return model.Uncategorized, nil
	}
	return category, nil
}

var _ service.Classifier = (*MemoryClassifier)(nil)
