package categorize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// Categorizer composes the rule classifier with an optional fallback and an
// optional merchant memory that learns rule-derived categorizations.
type Categorizer struct {
	rules    *RuleClassifier
	fallback service.Classifier
	memory   service.MerchantMemory
	progress func(done, total int)
}

// Option configures optional categorizer collaborators.
type Option func(*Categorizer)

// WithFallback sets the classifier consulted for transactions still
// uncategorized after rule matching.
func WithFallback(fallback service.Classifier) Option {
	return func(c *Categorizer) { c.fallback = fallback }
}

// WithMerchantMemory records rule matches so future runs can fall back on
// learned merchant categories.
func WithMerchantMemory(memory service.MerchantMemory) Option {
	return func(c *Categorizer) { c.memory = memory }
}

// WithProgress reports batch progress after each transaction, for progress
// bar display in the CLI.
func WithProgress(fn func(done, total int)) Option {
	return func(c *Categorizer) { c.progress = fn }
}

// New creates a categorizer over the given rule list.
func New(rules []model.CategoryRule, opts ...Option) *Categorizer {
	c := &Categorizer{rules: NewRuleClassifier(rules)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categorize assigns a category to a single transaction.
func (c *Categorizer) Categorize(ctx context.Context, txn model.Transaction) (string, error) {
	category, err := c.rules.Predict(ctx, txn.RawDescription)
	if err != nil {
		return "", err
	}

	if category != model.Uncategorized {
		c.learn(ctx, txn.RawDescription, category)
		return category, nil
	}

	if c.fallback == nil {
		return model.Uncategorized, nil
	}

	predicted, err := c.fallback.Predict(ctx, txn.RawDescription)
	if err != nil {
		// A broken fallback never fails the batch; the transaction just
		// stays uncategorized.
		if !errors.Is(err, common.ErrNotFound) {
			slog.Warn("Fallback classifier failed",
				"description", txn.RawDescription,
				"error", err)
		}
		return model.Uncategorized, nil
	}
	if predicted == "" {
		return model.Uncategorized, nil
	}
	return predicted, nil
}

// CategorizeAll assigns categories to every transaction, returning a new
// slice. Input order is preserved.
func (c *Categorizer) CategorizeAll(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	out := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		category, err := c.Categorize(ctx, txn)
		if err != nil {
			return nil, err
		}
		txn.Category = category
		out[i] = txn

		if c.progress != nil {
			c.progress(i+1, len(txns))
		}
	}
	return out, nil
}

func (c *Categorizer) learn(ctx context.Context, description, category string) {
	if c.memory == nil {
		return
	}
	if err := c.memory.SaveMerchantCategory(ctx, MerchantKey(description), category, time.Now()); err != nil {
		slog.Debug("Failed to record merchant category", "error", err)
	}
}
