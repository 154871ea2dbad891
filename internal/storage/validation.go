package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
	ErrInvalidKey  = errors.New("invalid notification key")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateNotificationKey ensures every component of the quadruple is set.
func validateNotificationKey(channel, scope string, month model.Month, status model.BudgetStatusValue) error {
	if strings.TrimSpace(channel) == "" {
		return fmt.Errorf("%w: missing channel", ErrInvalidKey)
	}
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("%w: missing scope", ErrInvalidKey)
	}
	if month == "" {
		return fmt.Errorf("%w: missing month", ErrInvalidKey)
	}
	if status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidKey)
	}
	return nil
}
