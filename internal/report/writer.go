// Package report writes the run's CSV artifacts. Artifacts are always
// finalized before any notification is dispatched, so a slow or failing
// channel can never corrupt or delay the computed outputs.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joshsymonds/budget-sentinel/internal/ingest"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// Writer emits CSV artifacts into a single output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at outputDir, creating it if needed.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{outputDir: outputDir}, nil
}

// WriteProcessed exports the categorized transactions.
func (w *Writer) WriteProcessed(txns []model.Transaction) (string, error) {
	path := filepath.Join(w.outputDir, "processed.csv")

	rows := make([][]string, 0, len(txns)+1)
	rows = append(rows, []string{"date", "description", "amount", "payment_method", "account", "category", "source_file", "source_row"})
	for i := range txns {
		t := &txns[i]
		rows = append(rows, []string{
			t.Date.Format("2006-01-02"),
			t.RawDescription,
			formatAmount(t.Amount),
			t.PaymentMethod,
			t.Account,
			t.Category,
			filepath.Base(t.SourceFile),
			strconv.Itoa(t.SourceRowID),
		})
	}

	return path, w.writeCSV(path, rows)
}

// WriteAlerts exports every budget status evaluated in the run, not just the
// ones that triggered a send.
func (w *Writer) WriteAlerts(statuses []model.BudgetStatus) (string, error) {
	path := filepath.Join(w.outputDir, "alerts.csv")

	rows := make([][]string, 0, len(statuses)+1)
	rows = append(rows, []string{"scope", "category", "month", "spend", "cap", "remaining", "pct", "status"})
	for i := range statuses {
		s := &statuses[i]
		scope := "CATEGORY"
		if s.IsTotal() {
			scope = model.TotalScope
		}
		cap, remaining, pct := "", "", ""
		if s.Status != model.StatusUncapped {
			cap = formatAmount(s.Cap)
			remaining = formatAmount(s.Remaining)
			pct = strconv.FormatFloat(s.PctUsed, 'f', 4, 64)
		}
		rows = append(rows, []string{
			scope,
			s.Scope,
			s.Month.String(),
			formatAmount(s.Spend),
			cap,
			remaining,
			pct,
			string(s.Status),
		})
	}

	return path, w.writeCSV(path, rows)
}

// WriteMonthlySpend exports the per-month, per-category spend rollup.
func (w *Writer) WriteMonthlySpend(aggregates []model.MonthlyAggregate) (string, error) {
	path := filepath.Join(w.outputDir, "monthly_category_spend.csv")

	rows := make([][]string, 0, len(aggregates)+1)
	rows = append(rows, []string{"month", "category", "spend", "income"})
	for i := range aggregates {
		a := &aggregates[i]
		rows = append(rows, []string{
			a.Month.String(),
			a.Category,
			formatAmount(a.Spend),
			formatAmount(a.Income),
		})
	}

	return path, w.writeCSV(path, rows)
}

// WriteForecast exports projected monthly spend.
func (w *Writer) WriteForecast(points []service.ForecastPoint) (string, error) {
	path := filepath.Join(w.outputDir, "spend_forecast.csv")

	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"month", "forecast_spend"})
	for _, p := range points {
		rows = append(rows, []string{p.Month.String(), formatAmount(p.Spend)})
	}

	return path, w.writeCSV(path, rows)
}

// WriteRejected exports the rejected-rows report when any rows were dropped.
func (w *Writer) WriteRejected(rejected []ingest.RejectedRow) (string, error) {
	path := filepath.Join(w.outputDir, "rejected_rows.csv")

	rows := make([][]string, 0, len(rejected)+1)
	rows = append(rows, []string{"file", "line", "reason"})
	for _, r := range rejected {
		rows = append(rows, []string{filepath.Base(r.File), strconv.Itoa(r.Line), r.Reason})
	}

	return path, w.writeCSV(path, rows)
}

func (w *Writer) writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path) // #nosec G304 -- path is rooted in our output dir
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
