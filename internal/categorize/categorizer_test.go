package categorize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	predictions map[string]string
	err         error
	calls       int
}

func (s *stubClassifier) Predict(_ context.Context, description string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if category, ok := s.predictions[description]; ok {
		return category, nil
	}
	return model.Uncategorized, nil
}

type stubMemory struct {
	saved map[string]string
}

func (s *stubMemory) GetMerchantCategory(_ context.Context, merchant string) (string, error) {
	if category, ok := s.saved[merchant]; ok {
		return category, nil
	}
	return "", common.ErrNotFound
}

func (s *stubMemory) SaveMerchantCategory(_ context.Context, merchant, category string, _ time.Time) error {
	if s.saved == nil {
		s.saved = make(map[string]string)
	}
	s.saved[merchant] = category
	return nil
}

func testRules() []model.CategoryRule {
	return []model.CategoryRule{
		{Pattern: "uber", Category: "Transport", Priority: 1},
		{Pattern: "swiggy", Category: "Food", Priority: 2},
	}
}

func TestCategorizeAllPreservesOrder(t *testing.T) {
	categorizer := New(testRules())

	txns := []model.Transaction{
		{ID: "a", RawDescription: "UBER *TRIP"},
		{ID: "b", RawDescription: "SWIGGY ORDER"},
		{ID: "c", RawDescription: "UNKNOWN SHOP"},
	}

	got, err := categorizer.CategorizeAll(context.Background(), txns)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "Transport", got[0].Category)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "Food", got[1].Category)
	assert.Equal(t, "c", got[2].ID)
	assert.Equal(t, model.Uncategorized, got[2].Category)
}

func TestFallbackOnlySeesUnmatchedTransactions(t *testing.T) {
	fallback := &stubClassifier{predictions: map[string]string{
		"MYSTERY MERCHANT": "Shopping",
	}}
	categorizer := New(testRules(), WithFallback(fallback))

	txns := []model.Transaction{
		{RawDescription: "UBER *TRIP"},
		{RawDescription: "MYSTERY MERCHANT"},
	}

	got, err := categorizer.CategorizeAll(context.Background(), txns)
	require.NoError(t, err)

	assert.Equal(t, "Transport", got[0].Category)
	assert.Equal(t, "Shopping", got[1].Category)
	assert.Equal(t, 1, fallback.calls, "rule matches must not reach the fallback")
}

func TestFallbackFailureIsNotFatal(t *testing.T) {
	fallback := &stubClassifier{err: errors.New("model unavailable")}
	categorizer := New(testRules(), WithFallback(fallback))

	got, err := categorizer.CategorizeAll(context.Background(), []model.Transaction{
		{RawDescription: "SOMETHING NEW"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.Uncategorized, got[0].Category)
}

func TestFallbackEmptyPredictionStaysUncategorized(t *testing.T) {
	fallback := &stubClassifier{predictions: map[string]string{"X": ""}}
	categorizer := New(testRules(), WithFallback(fallback))

	category, err := categorizer.Categorize(context.Background(), model.Transaction{RawDescription: "X"})
	require.NoError(t, err)
	assert.Equal(t, model.Uncategorized, category)
}

func TestRuleMatchesAreLearned(t *testing.T) {
	memory := &stubMemory{}
	categorizer := New(testRules(), WithMerchantMemory(memory))

	_, err := categorizer.CategorizeAll(context.Background(), []model.Transaction{
		{RawDescription: "UBER *TRIP"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Transport", memory.saved["uber *trip"])
}

func TestMemoryClassifierRecallsLearnedMerchants(t *testing.T) {
	memory := &stubMemory{}
	require.NoError(t, memory.SaveMerchantCategory(context.Background(), "uber *trip", "Transport", time.Now()))

	classifier := NewMemoryClassifier(memory)

	got, err := classifier.Predict(context.Background(), "UBER  *TRIP")
	require.NoError(t, err)
	assert.Equal(t, "Transport", got)

	got, err = classifier.Predict(context.Background(), "NEVER SEEN")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, model.Uncategorized, got)
}

func TestCategorizeAllHonorsContextCancellation(t *testing.T) {
	categorizer := New(testRules())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := categorizer.CategorizeAll(ctx, []model.Transaction{{RawDescription: "UBER"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProgressCallback(t *testing.T) {
	var reported []int
	categorizer := New(testRules(), WithProgress(func(done, total int) {
		assert.Equal(t, 3, total)
		reported = append(reported, done)
	}))

	_, err := categorizer.CategorizeAll(context.Background(), []model.Transaction{
		{RawDescription: "a"}, {RawDescription: "b"}, {RawDescription: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, reported)
}
