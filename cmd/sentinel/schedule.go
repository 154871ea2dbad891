package main

import (
	"context"
	"log/slog"

	"github.com/joshsymonds/budget-sentinel/internal/categorize"
	"github.com/joshsymonds/budget-sentinel/internal/cli"
	"github.com/joshsymonds/budget-sentinel/internal/config"
	"github.com/joshsymonds/budget-sentinel/internal/pipeline"
	"github.com/joshsymonds/budget-sentinel/internal/storage"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

func scheduleCmd() *cobra.Command {
	var (
		inputs    []string
		spec      string
		immediate bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a recurring schedule",
		Long: `Schedule keeps the process alive and re-runs the full pipeline (with
notifications) on a cron schedule. Because notification state is durable,
overlapping breaches are still only alerted once.`,
		Example: `  sentinel schedule --input exports/latest.csv
  sentinel schedule --input exports/latest.csv --cron "0 0 8 * * *"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runOnce := func() {
				if err := scheduledRun(ctx, cfg, store, inputs); err != nil {
					slog.Error("Scheduled run failed", "error", err)
				}
			}

			if immediate {
				runOnce()
			}

			c := cron.New()
			if err := c.AddFunc(spec, runOnce); err != nil {
				return err
			}
			c.Start()
			defer c.Stop()

			cmd.Println(cli.FormatInfo("Scheduler started (" + spec + "), press Ctrl+C to stop"))
			<-ctx.Done()
			cmd.Println(cli.FormatInfo("Scheduler stopped"))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "transaction export to process (repeatable)")
	cmd.Flags().StringVar(&spec, "cron", "@daily", "cron schedule for pipeline runs")
	cmd.Flags().BoolVar(&immediate, "immediate", false, "run once immediately before waiting for the schedule")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func scheduledRun(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage, inputs []string) error {
	result, err := pipeline.Run(ctx, pipeline.Options{
		Config:    cfg,
		Inputs:    inputs,
		Store:     store,
		Memory:    store,
		Fallback:  categorize.NewMemoryClassifier(store),
		Notify:    true,
		Notifiers: buildNotifiers(cfg),
	})
	if err != nil {
		return err
	}

	slog.Info("Scheduled run complete",
		"transactions", len(result.Transactions),
		"rejected", len(result.Rejected),
		"month", result.AlertMonth)
	return nil
}
