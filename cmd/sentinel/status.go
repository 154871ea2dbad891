package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/joshsymonds/budget-sentinel/internal/aggregate"
	"github.com/joshsymonds/budget-sentinel/internal/budget"
	"github.com/joshsymonds/budget-sentinel/internal/categorize"
	"github.com/joshsymonds/budget-sentinel/internal/cli"
	"github.com/joshsymonds/budget-sentinel/internal/ingest"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var (
		inputs    []string
		allMonths bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Preview budget status without writing artifacts or sending alerts",
		Long: `Status runs ingest, categorization, and budget evaluation over the given
exports and prints the resulting statuses. Nothing is written and nothing is
sent, so it is safe to run as often as you like.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			normalizer := ingest.NewNormalizer(cfg.Schema, cfg.DateLayouts)
			var txns []model.Transaction
			rejected := 0
			for _, input := range inputs {
				result, err := normalizer.NormalizeFile(ctx, input)
				if err != nil {
					return fmt.Errorf("failed to ingest %s: %w", input, err)
				}
				txns = append(txns, result.Transactions...)
				rejected += result.RejectedCount()
			}

			categorizer := categorize.New(cfg.Rules)
			txns, err = categorizer.CategorizeAll(ctx, txns)
			if err != nil {
				return err
			}

			aggregates := aggregate.Monthly(txns)
			statuses := budget.NewEngine(cfg.Budget.Caps()).Evaluate(aggregates)
			latest := aggregate.LatestMonth(aggregates)

			if latest == "" {
				cmd.Println(cli.FormatWarning("No transactions found"))
				return nil
			}
			if !allMonths {
				filtered := statuses[:0]
				for i := range statuses {
					if statuses[i].Month == latest {
						filtered = append(filtered, statuses[i])
					}
				}
				statuses = filtered
			}

			cmd.Println(cli.FormatTitle(fmt.Sprintf("Budget status (%d transactions, %d rejected rows)", len(txns), rejected)))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MONTH\tSCOPE\tSPEND\tCAP\tREMAINING\tUSED\tSTATUS")
			for i := range statuses {
				s := &statuses[i]
				cap, remaining, pct := "-", "-", "-"
				if s.Status != model.StatusUncapped {
					cap = formatMoney(s.Cap)
					remaining = formatMoney(s.Remaining)
					pct = strconv.FormatFloat(s.PctUsed*100, 'f', 0, 64) + "%"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					s.Month, s.Scope, formatMoney(s.Spend), cap, remaining, pct, cli.FormatStatus(s.Status))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "transaction export to process (repeatable)")
	cmd.Flags().BoolVar(&allMonths, "all-months", false, "show every month, not just the most recent")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
