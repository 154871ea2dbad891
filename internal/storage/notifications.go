package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// HasBeenSent reports whether an alert for the exact
// (channel, scope, month, status) quadruple was previously recorded.
// A status change for the same scope and month (NEAR then OVER) is a new
// quadruple and therefore a new alert.
func (s *SQLiteStorage) HasBeenSent(ctx context.Context, channel, scope string, month model.Month, status model.BudgetStatusValue) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateNotificationKey(channel, scope, month, status); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1)
		FROM notifications
		WHERE channel = ? AND scope = ? AND month = ? AND status = ?
	`, channel, scope, string(month), string(status)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query notification state: %w", err)
	}

	return count > 0, nil
}

// RecordSent persists a delivered alert. The insert is committed before
// returning, so a crash between transport send and this call is the only
// window in which an alert can be delivered twice.
func (s *SQLiteStorage) RecordSent(ctx context.Context, record model.NotificationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNotificationKey(record.Channel, record.Scope, record.Month, record.Status); err != nil {
		return err
	}

	sentAt := record.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	// INSERT OR IGNORE keeps a concurrent run that raced us from failing;
	// the unique key already guarantees at most one row per quadruple.
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notifications (channel, scope, month, status, sent_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.Channel, record.Scope, string(record.Month), string(record.Status), sentAt)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	return nil
}

// ListSent returns every recorded notification, newest first.
func (s *SQLiteStorage) ListSent(ctx context.Context) ([]model.NotificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT channel, scope, month, status, sent_at
		FROM notifications
		ORDER BY sent_at DESC, channel, scope
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.NotificationRecord
	for rows.Next() {
		var rec model.NotificationRecord
		var month, status string
		if err := rows.Scan(&rec.Channel, &rec.Scope, &month, &status, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		rec.Month = model.Month(month)
		rec.Status = model.BudgetStatusValue(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Reset removes all notification state. Used only by the explicit
// `state reset` command; records are otherwise retained indefinitely.
func (s *SQLiteStorage) Reset(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications`); err != nil {
		return fmt.Errorf("failed to reset notification state: %w", err)
	}

	return nil
}

var _ service.NotificationStore = (*SQLiteStorage)(nil)
