package categorize

import (
	"context"
	"testing"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifierFirstMatchWins(t *testing.T) {
	classifier := NewRuleClassifier([]model.CategoryRule{
		{Pattern: "uber eats", Category: "Food", Priority: 1},
		{Pattern: "uber", Category: "Transport", Priority: 2},
	})

	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "more specific rule first", description: "UBER EATS ORDER 123", want: "Food"},
		{name: "general rule catches the rest", description: "UBER *TRIP", want: "Transport"},
		{name: "case insensitive", description: "payment to uBeR", want: "Transport"},
		{name: "no match", description: "LOCAL BAKERY", want: model.Uncategorized},
		{name: "empty description", description: "", want: model.Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.Predict(context.Background(), tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleClassifierPriorityOrdering(t *testing.T) {
	// Listed out of priority order on purpose.
	classifier := NewRuleClassifier([]model.CategoryRule{
		{Pattern: "amazon", Category: "Shopping", Priority: 5},
		{Pattern: "amazon prime", Category: "Subscriptions", Priority: 1},
	})

	got, err := classifier.Predict(context.Background(), "AMAZON PRIME MEMBERSHIP")
	require.NoError(t, err)
	assert.Equal(t, "Subscriptions", got)
}

func TestRuleClassifierStableForEqualPriority(t *testing.T) {
	classifier := NewRuleClassifier([]model.CategoryRule{
		{Pattern: "store", Category: "First", Priority: 1},
		{Pattern: "store", Category: "Second", Priority: 1},
	})

	// Same input must always produce the same output.
	for i := 0; i < 10; i++ {
		got, err := classifier.Predict(context.Background(), "SOME STORE")
		require.NoError(t, err)
		assert.Equal(t, "First", got)
	}
}

func TestMerchantKey(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "lowercases", description: "UBER *TRIP", want: "uber *trip"},
		{name: "collapses whitespace", description: "  COFFEE   SHOP \t NYC ", want: "coffee shop nyc"},
		{name: "already normal", description: "netflix.com", want: "netflix.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MerchantKey(tt.description))
		})
	}
}
