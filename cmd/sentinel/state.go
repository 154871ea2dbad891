package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/joshsymonds/budget-sentinel/internal/cli"
	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the notification state database",
	}

	cmd.AddCommand(stateListCmd())
	cmd.AddCommand(stateResetCmd())

	return cmd
}

func stateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List alerts that have already been sent",
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

			records, err := store.ListSent(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println(cli.FormatInfo("No alerts have been sent yet"))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SENT AT\tCHANNEL\tSCOPE\tMONTH\tSTATUS")
			for i := range records {
				r := &records[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.SentAt.Format("2006-01-02 15:04"), r.Channel, r.Scope, r.Month, cli.FormatStatus(r.Status))
			}
			return w.Flush()
		},
	}
}

func stateResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all notification state",
		Long: `Reset deletes every sent-alert record. The next run will re-send alerts
for any breach that is still active.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !force {
				cmd.Print(cli.FormatWarning("This will re-arm every previously sent alert. Type 'yes' to continue: "))
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("failed to read confirmation: %w", err)
				}
				if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
					cmd.Println(cli.FormatInfo("Reset cancelled"))
					return nil
				}
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Reset(ctx); err != nil {
				return err
			}
			cmd.Println(cli.FormatSuccess("Notification state cleared"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
