package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/joshsymonds/budget-sentinel/internal/categorize"
	"github.com/joshsymonds/budget-sentinel/internal/cli"
	"github.com/joshsymonds/budget-sentinel/internal/model"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the configured categorization rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in the order they are evaluated",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			classifier := categorize.NewRuleClassifier(cfg.Rules)
			rules := classifier.Rules()
			if len(rules) == 0 {
				cmd.Println(cli.FormatWarning("No rules configured; every transaction will be " + model.Uncategorized))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRIORITY\tPATTERN\tCATEGORY")
			for _, r := range rules {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.Priority, r.Pattern, r.Category)
			}
			return w.Flush()
		},
	}
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <description>",
		Short: "Show which category a description would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			classifier := categorize.NewRuleClassifier(cfg.Rules)
			category, err := classifier.Predict(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if category == model.Uncategorized {
				cmd.Println(cli.FormatWarning(fmt.Sprintf("%q matches no rule (%s)", args[0], model.Uncategorized)))
				return nil
			}
			cmd.Println(cli.FormatSuccess(fmt.Sprintf("%q -> %s", args[0], category)))
			return nil
		},
	}
}
