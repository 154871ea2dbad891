// Package pipeline orchestrates one end-to-end run: ingest, categorize,
// aggregate, evaluate, export, notify. Runs are batch, single-threaded, and
// re-entrant: everything except notification state is recomputed from the
// current inputs, and the state store makes repeated dispatch idempotent.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshsymonds/budget-sentinel/internal/aggregate"
	"github.com/joshsymonds/budget-sentinel/internal/budget"
	"github.com/joshsymonds/budget-sentinel/internal/categorize"
	"github.com/joshsymonds/budget-sentinel/internal/common"
	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/forecast"
	"github.com/joshsymonds/budget-sentinel/internal/ingest"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/joshsymonds/budget-sentinel/internal/notify"
	"github.com/joshsymonds/budget-sentinel/internal/report"
	"github.com/joshsymonds/budget-sentinel/internal/service"
)

// Options configures one pipeline run.
type Options struct {
	Config     *config.Config
	Store      service.NotificationStore
	Fallback   service.Classifier
	Memory     service.MerchantMemory
	Forecaster service.Forecaster
	Progress   func(done, total int)
	Inputs     []string
	Notifiers  []service.Notifier
	Notify     bool
}

// RunResult summarizes a completed run.
type RunResult struct {
	AlertMonth    model.Month
	Transactions  []model.Transaction
	Rejected      []ingest.RejectedRow
	Statuses      []model.BudgetStatus
	Artifacts     []string
	Dispatch      *notify.Report
	RowsRead      int
	Uncategorized int
}

// Run executes the pipeline. Artifacts are finalized before any notification
// is dispatched; delivery failures are reported in the result, never fatal.
func Run(ctx context.Context, opts Options) (*RunResult, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: pipeline requires a loaded config", common.ErrMissingConfig)
	}
	if len(opts.Inputs) == 0 {
		return nil, fmt.Errorf("%w: pipeline requires at least one input file", common.ErrMissingConfig)
	}

	result := &RunResult{}

	// Ingest. A file-level schema error is fatal for the run; row-level
	// failures are collected and reported.
	normalizer := ingest.NewNormalizer(opts.Config.Schema, opts.Config.DateLayouts)
	for _, input := range opts.Inputs {
		ingested, err := normalizer.NormalizeFile(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest %s: %w", input, err)
		}
		result.Transactions = append(result.Transactions, ingested.Transactions...)
		result.Rejected = append(result.Rejected, ingested.Rejected...)
	}
	result.RowsRead = len(result.Transactions) + len(result.Rejected)

	slog.Info("Ingested transactions",
		"files", len(opts.Inputs),
		"rows", result.RowsRead,
		"valid", len(result.Transactions),
		"rejected", len(result.Rejected))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Categorize.
	catOpts := make([]categorize.Option, 0, 3)
	if opts.Fallback != nil {
		catOpts = append(catOpts, categorize.WithFallback(opts.Fallback))
	}
	if opts.Memory != nil {
		catOpts = append(catOpts, categorize.WithMerchantMemory(opts.Memory))
	}
	if opts.Progress != nil {
		catOpts = append(catOpts, categorize.WithProgress(opts.Progress))
	}
	categorizer := categorize.New(opts.Config.Rules, catOpts...)

	categorized, err := categorizer.CategorizeAll(ctx, result.Transactions)
	if err != nil {
		return nil, fmt.Errorf("categorization failed: %w", err)
	}
	result.Transactions = categorized
	for i := range categorized {
		if categorized[i].Category == model.Uncategorized {
			result.Uncategorized++
		}
	}

	// Aggregate and evaluate.
	aggregates := aggregate.Monthly(result.Transactions)
	engine := budget.NewEngine(opts.Config.Budget.Caps())
	result.Statuses = engine.Evaluate(aggregates)
	result.AlertMonth = aggregate.LatestMonth(aggregates)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Artifacts are written before any notification goes out.
	forecaster := opts.Forecaster
	if forecaster == nil {
		forecaster = forecast.NewNaiveForecaster()
	}
	points := forecaster.Forecast(aggregate.SpendHistory(aggregates), opts.Config.ForecastPeriods)

	if err := writeArtifacts(result, aggregates, points, opts.Config.OutputDir); err != nil {
		return nil, err
	}

	if !opts.Notify || len(opts.Notifiers) == 0 || result.AlertMonth == "" {
		return result, nil
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("notification dispatch requires a state store")
	}

	dispatcher := notify.NewDispatcher(opts.Store, opts.Notifiers, opts.Config.Channels.Timeout)
	dispatchReport, err := dispatcher.Dispatch(ctx, result.Statuses, result.AlertMonth)
	result.Dispatch = dispatchReport
	if err != nil {
		return result, fmt.Errorf("notification dispatch aborted: %w", err)
	}

	slog.Info("Dispatch complete",
		"month", result.AlertMonth,
		"sent", dispatchReport.Sent(),
		"failed", dispatchReport.Failed(),
		"skipped", dispatchReport.Skipped)

	return result, nil
}

func writeArtifacts(result *RunResult, aggregates []model.MonthlyAggregate, points []service.ForecastPoint, outputDir string) error {
	writer, err := report.NewWriter(outputDir)
	if err != nil {
		return err
	}

	path, err := writer.WriteProcessed(result.Transactions)
	if err != nil {
		return err
	}
	result.Artifacts = append(result.Artifacts, path)

	path, err = writer.WriteAlerts(result.Statuses)
	if err != nil {
		return err
	}
	result.Artifacts = append(result.Artifacts, path)

	path, err = writer.WriteMonthlySpend(aggregates)
	if err != nil {
		return err
	}
	result.Artifacts = append(result.Artifacts, path)

	if len(points) > 0 {
		path, err = writer.WriteForecast(points)
		if err != nil {
			return err
		}
		result.Artifacts = append(result.Artifacts, path)
	}

	if len(result.Rejected) > 0 {
		path, err = writer.WriteRejected(result.Rejected)
		if err != nil {
			return err
		}
		result.Artifacts = append(result.Artifacts, path)
	}

	return nil
}
