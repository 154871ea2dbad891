// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// NotificationStore is the contract for the persistent notification state
// tracker. Implementations must make RecordSent durable before returning and
// must treat read-then-write of a key as a critical section so two
// overlapping scheduled runs cannot both send the same alert.
type NotificationStore interface {
	HasBeenSent(ctx context.Context, channel, scope string, month model.Month, status model.BudgetStatusValue) (bool, error)
	RecordSent(ctx context.Context, record model.NotificationRecord) error
	ListSent(ctx context.Context) ([]model.NotificationRecord, error)
	Reset(ctx context.Context) error
	Close() error
}

// Notifier dispatches a single budget alert on one channel. Transport
// mechanics live behind this interface; the pipeline only sees the result.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, status model.BudgetStatus) model.DeliveryResult
}

// Classifier assigns a category to a transaction description. The rule-based
// classifier and any trained fallback both satisfy this; callers never
// special-case the variant.
type Classifier interface {
	Predict(ctx context.Context, description string) (string, error)
}

// MerchantMemory persists learned description-to-category pairs so past
// categorization decisions can seed the fallback classifier.
type MerchantMemory interface {
	GetMerchantCategory(ctx context.Context, merchant string) (string, error)
	SaveMerchantCategory(ctx context.Context, merchant, category string, seenAt time.Time) error
}

// Forecaster projects future monthly spend from history. Internals are
// pluggable; the pipeline only consumes the projected points.
type Forecaster interface {
	Forecast(history []model.MonthlyAggregate, periods int) []ForecastPoint
}

// ForecastPoint is one projected month of spend.
type ForecastPoint struct {
	Month model.Month
	Spend float64
}
