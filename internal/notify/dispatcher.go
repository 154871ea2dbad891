package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// Outcome records what happened to one alert on one channel.
type Outcome struct {
	Err     error
	Channel string
	Scope   string
	Month   model.Month
	Status  model.BudgetStatusValue
	Sent    bool
}

// Report summarizes a dispatch pass.
type Report struct {
	Outcomes []Outcome
	Skipped  int // already-sent quadruples that were not re-delivered
}

// Sent counts successful deliveries.
func (r *Report) Sent() int {
	n := 0
	for i := range r.Outcomes {
		if r.Outcomes[i].Sent {
			n++
		}
	}
	return n
}

// Failed counts delivery failures.
func (r *Report) Failed() int {
	n := 0
	for i := range r.Outcomes {
		if !r.Outcomes[i].Sent {
			n++
		}
	}
	return n
}

// Dispatcher sends alertable budget statuses through every configured
// channel, tracking sent state per channel so a failure on one channel never
// suppresses or duplicates another.
type Dispatcher struct {
	store     service.NotificationStore
	notifiers []service.Notifier
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher over the given channels and state store.
func NewDispatcher(store service.NotificationStore, notifiers []service.Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		store:     store,
		notifiers: notifiers,
		timeout:   timeout,
	}
}

// Dispatch delivers every NEAR/OVER status for the given month, at most once
// per (channel, scope, month, status). Delivery failures are collected, not
// fatal: the failed quadruple is left unrecorded so the next scheduled run
// retries it. State store failures are fatal because idempotence can no
// longer be guaranteed.
func (d *Dispatcher) Dispatch(ctx context.Context, statuses []model.BudgetStatus, month model.Month) (*Report, error) {
	report := &Report{}

	for i := range statuses {
		status := statuses[i]
		if status.Month != month || !status.Status.Alertable() {
			continue
		}

		for _, notifier := range d.notifiers {
			sent, err := d.store.HasBeenSent(ctx, notifier.Name(), status.Scope, status.Month, status.Status)
			if err != nil {
				return report, fmt.Errorf("failed to check notification state: %w", err)
			}
			if sent {
				report.Skipped++
				continue
			}

			outcome := d.deliver(ctx, notifier, status)
			report.Outcomes = append(report.Outcomes, outcome)

			if outcome.Err != nil {
				slog.Error("Alert delivery failed",
					"channel", outcome.Channel,
					"scope", outcome.Scope,
					"month", outcome.Month,
					"status", outcome.Status,
					"error", outcome.Err)
				continue
			}

			record := model.NotificationRecord{
				Channel: notifier.Name(),
				Scope:   status.Scope,
				Month:   status.Month,
				Status:  status.Status,
				SentAt:  time.Now().UTC(),
			}
			if err := d.store.RecordSent(ctx, record); err != nil {
				return report, fmt.Errorf("failed to record sent notification: %w", err)
			}
		}
	}

	return report, nil
}

func (d *Dispatcher) deliver(ctx context.Context, notifier service.Notifier, status model.BudgetStatus) Outcome {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result := notifier.Notify(callCtx, status)

	return Outcome{
		Channel: notifier.Name(),
		Scope:   status.Scope,
		Month:   status.Month,
		Status:  status.Status,
		Sent:    result.Success,
		Err:     result.Err,
	}
}
