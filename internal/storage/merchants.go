package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// GetMerchantCategory returns the learned category for a merchant key, or
// common.ErrNotFound when the merchant has never been seen.
func (s *SQLiteStorage) GetMerchantCategory(ctx context.Context, merchant string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return "", err
	}

	var category string
	err := s.db.QueryRowContext(ctx, `
		SELECT category FROM merchants WHERE name = ?
	`, merchant).Scan(&category)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: merchant %q", common.ErrNotFound, merchant)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query merchant: %w", err)
	}

	return category, nil
}

// SaveMerchantCategory upserts a merchant-to-category association and bumps
// its use count.
func (s *SQLiteStorage) SaveMerchantCategory(ctx context.Context, merchant, category string, seenAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merchants (name, category, last_seen, use_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET
			category = excluded.category,
			last_seen = excluded.last_seen,
			use_count = use_count + 1
	`, merchant, category, seenAt)
	if err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}

	return nil
}

var _ service.MerchantMemory = (*SQLiteStorage)(nil)
