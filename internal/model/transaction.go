// Package model defines the core data structures for the budget-sentinel pipeline.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single normalized financial transaction from any source file.
// Amount is signed: negative for spend, positive for income.
type Transaction struct {
	Date           time.Time
	ID             string
	RawDescription string
	PaymentMethod  string
	Account        string
	Category       string // empty until the categorizer has run
	SourceFile     string
	Hash           string
	SourceRowID    int // 1-based row number in the source file, header excluded
	Amount         float64
}

// GenerateHash creates a unique hash for duplicate detection across imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.RawDescription,
		t.Account)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Month returns the year-month bucket this transaction falls into.
func (t *Transaction) Month() Month {
	return MonthOf(t.Date)
}

// IsSpend reports whether the transaction is an expense.
func (t *Transaction) IsSpend() bool {
	return t.Amount < 0
}
