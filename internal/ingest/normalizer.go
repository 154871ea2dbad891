// Package ingest turns heterogeneous raw transaction exports into canonical
// Transaction records.
//
// A malformed row never aborts a batch: it is excluded, counted, and reported.
// Only a file with no recognizable columns at all fails outright.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/model"
)

// RejectedRow describes a single source row excluded during normalization.
type RejectedRow struct {
	File   string
	Reason string
	Raw    []string
	Line   int
}

// Result is the outcome of normalizing one input file.
type Result struct {
	File         string
	Transactions []model.Transaction
	Rejected     []RejectedRow
}

// RejectedCount returns the number of rows excluded from the batch.
func (r *Result) RejectedCount() int {
	return len(r.Rejected)
}

// Normalizer maps raw tabular rows onto the canonical transaction schema.
type Normalizer struct {
	schema      config.ColumnSchema
	dateLayouts []string
}

// NewNormalizer creates a normalizer for the given column schema and
// accepted date layouts.
func NewNormalizer(schema config.ColumnSchema, dateLayouts []string) *Normalizer {
	return &Normalizer{
		schema:      schema,
		dateLayouts: dateLayouts,
	}
}

// NormalizeFile reads and normalizes a single input file, dispatching on the
// file extension. CSV, XLSX and OFX/QFX exports are supported.
func (n *Normalizer) NormalizeFile(ctx context.Context, path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		header, rows, err := readCSVRows(path)
		if err != nil {
			return nil, err
		}
		return n.normalizeRows(ctx, path, header, rows)
	case ".xlsx", ".xls":
		header, rows, err := readXLSXRows(path)
		if err != nil {
			return nil, err
		}
		return n.normalizeRows(ctx, path, header, rows)
	case ".ofx", ".qfx":
		return parseOFXFile(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

// columnIndexes resolves the canonical column positions for a header row.
// Missing optional columns map to -1.
func (n *Normalizer) columnIndexes(header []string) (map[string]int, error) {
	normalized := make(map[string]int, len(header))
	for i, name := range header {
		key := normalizeColumnName(name)
		if _, seen := normalized[key]; !seen {
			normalized[key] = i
		}
	}

	indexes := map[string]int{}
	for canonical, synonyms := range n.schema {
		indexes[canonical] = -1
		for _, synonym := range synonyms {
			if idx, ok := normalized[normalizeColumnName(synonym)]; ok {
				indexes[canonical] = idx
				break
			}
		}
	}

	// Date and amount are the bare minimum for a usable export.
	if indexes["date"] < 0 || indexes["amount"] < 0 {
		return nil, fmt.Errorf("%w: need at least date and amount columns, got %v",
			common.ErrNoUsableColumns, header)
	}
	return indexes, nil
}

func (n *Normalizer) normalizeRows(ctx context.Context, file string, header []string, rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrEmptyInput, file)
	}

	indexes, err := n.columnIndexes(header)
	if err != nil {
		return nil, err
	}

	result := &Result{File: file}

	for i, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line := i + 2 // 1-based plus the header row

		txn, rowErr := n.normalizeRow(file, line, indexes, row)
		if rowErr != nil {
			result.Rejected = append(result.Rejected, RejectedRow{
				File:   file,
				Line:   line,
				Raw:    row,
				Reason: rowErr.Error(),
			})
			continue
		}
		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}

func (n *Normalizer) normalizeRow(file string, line int, indexes map[string]int, row []string) (model.Transaction, error) {
	date, err := n.parseDate(field(row, indexes["date"]))
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := parseAmount(field(row, indexes["amount"]))
	if err != nil {
		return model.Transaction{}, err
	}

	// Some institutions export magnitudes with a separate debit/credit flag
	// instead of signed amounts. The flag wins when it is recognizable;
	// otherwise the amount keeps whatever sign it was parsed with.
	switch normalizeTypeFlag(field(row, indexes["type"])) {
	case flagDebit:
		amount = -abs(amount)
	case flagCredit:
		amount = abs(amount)
	case flagUnknown:
	}

	txn := model.Transaction{
		Date:           date,
		RawDescription: strings.TrimSpace(field(row, indexes["description"])),
		PaymentMethod:  strings.TrimSpace(field(row, indexes["mode"])),
		Account:        strings.TrimSpace(field(row, indexes["account"])),
		Amount:         amount,
		SourceFile:     file,
		SourceRowID:    line,
		ID:             fmt.Sprintf("%s:%d", filepath.Base(file), line),
	}
	txn.Hash = txn.GenerateHash()

	return txn, nil
}

func (n *Normalizer) parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range n.dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

type typeFlag int

const (
	flagUnknown typeFlag = iota
	flagDebit
	flagCredit
)

func normalizeTypeFlag(raw string) typeFlag {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "D", "DR", "DEB", "DEBIT", "WITHDRAWAL":
		return flagDebit
	case "C", "CR", "CRE", "CREDIT", "DEPOSIT":
		return flagCredit
	default:
		return flagUnknown
	}
}

var amountPattern = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)

// parseAmount extracts a numeric amount from bank export formatting:
// currency symbols, thousands separators, and parenthesized negatives.
func parseAmount(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("missing amount")
	}

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = strings.TrimSuffix(strings.TrimPrefix(value, "("), ")")
	}

	value = strings.ReplaceAll(value, ",", "")
	match := amountPattern.FindString(value)
	if match == "" {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", raw)
	}
	if negative {
		amount = -abs(amount)
	}

	return amount, nil
}

var columnNamePattern = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeColumnName lowercases a header and collapses non-alphanumerics so
// "Txn Date", "txn_date" and "TXN-DATE" all map to the same key.
func normalizeColumnName(name string) string {
	s := columnNamePattern.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
