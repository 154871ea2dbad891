package main

import (
	"fmt"

	"github.com/joshsymonds/budget-sentinel/internal/categorize"
	"github.com/joshsymonds/budget-sentinel/internal/cli"
	"github.com/joshsymonds/budget-sentinel/internal/pipeline"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var (
		inputs    []string
		outputDir string
		doNotify  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline over one or more transaction exports",
		Long: `Run ingests the given CSV/XLSX/OFX exports, categorizes and aggregates
the transactions, evaluates budget caps, writes the CSV artifacts, and
(with --notify) dispatches alerts for the most recent month.`,
		Example: `  sentinel run --input statements/january.csv
  sentinel run --input bank.csv --input wallet.xlsx --notify`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var bar *progressbar.ProgressBar
			result, err := pipeline.Run(ctx, pipeline.Options{
				Config:    cfg,
				Inputs:    inputs,
				Store:     store,
				Memory:    store,
				Fallback:  categorize.NewMemoryClassifier(store),
				Notify:    doNotify,
				Notifiers: buildNotifiers(cfg),
				Progress: func(done, total int) {
					if bar == nil {
						bar = cli.NewProgress(total, "Categorizing transactions...")
					}
					_ = bar.Set(done)
				},
			})
			if bar != nil {
				_ = bar.Finish()
				cmd.Println()
			}
			if result != nil {
				printRunSummary(cmd, result)
			}
			if err != nil {
				return err
			}

			cmd.Println(cli.FormatSuccess("Run complete"))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "transaction export to process (repeatable)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for CSV artifacts (overrides config)")
	cmd.Flags().BoolVar(&doNotify, "notify", false, "dispatch alerts for the most recent month")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func printRunSummary(cmd *cobra.Command, result *pipeline.RunResult) {
	cmd.Println(cli.FormatTitle("Run summary"))
	cmd.Printf("  Rows read:      %d\n", result.RowsRead)
	cmd.Printf("  Transactions:   %d\n", len(result.Transactions))
	if len(result.Rejected) > 0 {
		cmd.Println("  " + cli.FormatWarning(fmt.Sprintf("Rejected rows:  %d (see rejected_rows.csv)", len(result.Rejected))))
	}
	if result.Uncategorized > 0 {
		cmd.Printf("  Uncategorized:  %d\n", result.Uncategorized)
	}
	if result.AlertMonth != "" {
		cmd.Printf("  Alert month:    %s\n", result.AlertMonth)
	}

	alertable := 0
	for i := range result.Statuses {
		if result.Statuses[i].Status.Alertable() && result.Statuses[i].Month == result.AlertMonth {
			alertable++
		}
	}
	if alertable > 0 {
		cmd.Println("  " + cli.FormatWarning(fmt.Sprintf("Breaches:       %d", alertable)))
	}

	if result.Dispatch != nil {
		cmd.Printf("  Notifications:  %d sent, %d failed, %d already sent\n",
			result.Dispatch.Sent(), result.Dispatch.Failed(), result.Dispatch.Skipped)
	}

	for _, artifact := range result.Artifacts {
		cmd.Println("  " + cli.FormatInfo(artifact))
	}
}
