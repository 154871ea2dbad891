package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	records map[string]model.NotificationRecord
	failOn  string // channel name that triggers a store error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]model.NotificationRecord)}
}

func stateKey(channel, scope string, month model.Month, status model.BudgetStatusValue) string {
	return fmt.Sprintf("%s|%s|%s|%s", channel, scope, month, status)
}

func (m *memoryStore) HasBeenSent(_ context.Context, channel, scope string, month model.Month, status model.BudgetStatusValue) (bool, error) {
	if channel == m.failOn {
		return false, errors.New("store unavailable")
	}
	_, ok := m.records[stateKey(channel, scope, month, status)]
	return ok, nil
}

func (m *memoryStore) RecordSent(_ context.Context, record model.NotificationRecord) error {
	m.records[stateKey(record.Channel, record.Scope, record.Month, record.Status)] = record
	return nil
}

func (m *memoryStore) ListSent(_ context.Context) ([]model.NotificationRecord, error) {
	out := make([]model.NotificationRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStore) Reset(_ context.Context) error {
	m.records = make(map[string]model.NotificationRecord)
	return nil
}

func (m *memoryStore) Close() error { return nil }

type stubNotifier struct {
	name      string
	err       error
	delivered []model.BudgetStatus
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Notify(_ context.Context, status model.BudgetStatus) model.DeliveryResult {
	if s.err != nil {
		return model.DeliveryResult{Channel: s.name, Success: false, Err: s.err}
	}
	s.delivered = append(s.delivered, status)
	return model.DeliveryResult{Channel: s.name, Success: true}
}

func overStatus(scope string, month model.Month) model.BudgetStatus {
	return model.BudgetStatus{
		Scope:     scope,
		Month:     month,
		Spend:     1100,
		Cap:       1000,
		Remaining: -100,
		PctUsed:   1.1,
		Status:    model.StatusOver,
	}
}

func TestDispatchSendsAlertableStatusesOnce(t *testing.T) {
	store := newMemoryStore()
	notifier := &stubNotifier{name: "stub"}
	dispatcher := NewDispatcher(store, []service.Notifier{notifier}, time.Second)

	statuses := []model.BudgetStatus{
		overStatus(model.TotalScope, "2024-06"),
		{Scope: "Food", Month: "2024-06", Spend: 100, Cap: 500, Remaining: 400, PctUsed: 0.2, Status: model.StatusOK},
	}

	report, err := dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent())
	assert.Zero(t, report.Failed())
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, model.TotalScope, notifier.delivered[0].Scope)

	// Second pass is a no-op.
	report, err = dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err)
	assert.Zero(t, report.Sent())
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, notifier.delivered, 1)
}

func TestDispatchIgnoresOtherMonths(t *testing.T) {
	store := newMemoryStore()
	notifier := &stubNotifier{name: "stub"}
	dispatcher := NewDispatcher(store, []service.Notifier{notifier}, time.Second)

	report, err := dispatcher.Dispatch(context.Background(), []model.BudgetStatus{
		overStatus(model.TotalScope, "2024-05"),
		overStatus(model.TotalScope, "2024-06"),
	}, "2024-06")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Sent())
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, model.Month("2024-06"), notifier.delivered[0].Month)
}

func TestDispatchFailureLeavesStateUnrecorded(t *testing.T) {
	store := newMemoryStore()
	failing := &stubNotifier{name: "flaky", err: errors.New("connection refused")}
	dispatcher := NewDispatcher(store, []service.Notifier{failing}, time.Second)

	statuses := []model.BudgetStatus{overStatus(model.TotalScope, "2024-06")}

	report, err := dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err, "delivery failure is not fatal")
	assert.Equal(t, 1, report.Failed())
	assert.Zero(t, report.Sent())
	assert.Empty(t, store.records)

	// The channel recovers; the alert goes out on the next pass.
	failing.err = nil
	report, err = dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent())
	assert.Len(t, store.records, 1)
}

func TestDispatchTracksStatePerChannel(t *testing.T) {
	store := newMemoryStore()
	healthy := &stubNotifier{name: "email"}
	failing := &stubNotifier{name: "telegram", err: errors.New("bad token")}
	dispatcher := NewDispatcher(store, []service.Notifier{healthy, failing}, time.Second)

	statuses := []model.BudgetStatus{overStatus(model.TotalScope, "2024-06")}

	report, err := dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent())
	assert.Equal(t, 1, report.Failed())

	// Retry: email is skipped, telegram is retried and succeeds.
	failing.err = nil
	report, err = dispatcher.Dispatch(context.Background(), statuses, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent())
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, healthy.delivered, 1)
	assert.Len(t, failing.delivered, 1)
}

func TestDispatchStoreFailureIsFatal(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "stub"
	dispatcher := NewDispatcher(store, []service.Notifier{&stubNotifier{name: "stub"}}, time.Second)

	_, err := dispatcher.Dispatch(context.Background(), []model.BudgetStatus{
		overStatus(model.TotalScope, "2024-06"),
	}, "2024-06")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notification state")
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		name   string
		status model.BudgetStatus
		want   string
	}{
		{
			name:   "over",
			status: overStatus(model.TotalScope, "2024-06"),
			want:   "[OVER] TOTAL (2024-06): spend 1100.00 / cap 1000.00 (110% used, remaining -100.00)",
		},
		{
			name: "uncapped",
			status: model.BudgetStatus{
				Scope: "Gifts", Month: "2024-06", Spend: 75, Status: model.StatusUncapped,
			},
			want: "[UNCAPPED] Gifts (2024-06): spend 75.00, no cap configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAlert(tt.status))
		})
	}
}

func TestFormatDigest(t *testing.T) {
	assert.Equal(t, "No alerts.", FormatDigest(nil))

	digest := FormatDigest([]model.BudgetStatus{
		overStatus(model.TotalScope, "2024-06"),
		overStatus("Food", "2024-06"),
	})
	assert.Contains(t, digest, "TOTAL")
	assert.Contains(t, digest, "Food")
	assert.Contains(t, digest, "\n")
}
