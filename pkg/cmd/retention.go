package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imap-mag/magvault/pkg/internal/service"
	"github.com/imap-mag/magvault/pkg/internal/types"
)

var (
	sweepTask   string
	sweepDryRun bool

	retentionCmd = &cobra.Command{
		Use:   "retention",
		Short: "Retention sweeper and store reconciler",
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "run the retention tasks once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			resp, err := service.NewRetentionService(ctx).Sweep(ctx, types.SweepRequest{
				Task:   sweepTask,
				DryRun: sweepDryRun,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, resp)
		},
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "collect orphaned store files and report missing ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, mgr, err := newServiceContext()
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			resp, err := service.NewReconcileService(ctx).Reconcile(ctx, types.ReconcileRequest{
				DryRun: sweepDryRun,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd, resp)
		},
	}
)

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// registerRetentionCommands registers the retention commands.
func registerRetentionCommands() {
	sweepCmd.Flags().StringVar(&sweepTask, "task", "", "run only the named retention task")

	for _, c := range []*cobra.Command{sweepCmd, reconcileCmd} {
		c.Flags().BoolVar(&sweepDryRun, "dry-run", false, "report actions without touching anything")
		retentionCmd.AddCommand(c)
	}

	rootCmd.AddCommand(retentionCmd)
}
