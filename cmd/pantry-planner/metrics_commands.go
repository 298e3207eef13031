package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pantry-planner/internal/app"
)

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show model usage and process health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, _ string) error {
				usage, health, err := a.UsageReport(days)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(usage))
				for _, d := range usage {
					rows = append(rows, []string{
						d.Date,
						strconv.Itoa(d.TotalPrompt),
						strconv.Itoa(d.TotalCompletion),
						strconv.Itoa(d.TotalExecution),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "No model usage recorded")
				} else {
					writeRows(out, []string{"Date", "Prompt", "Completion", "Calls"}, rows,
						[]columnAlignment{alignLeft, alignRight, alignRight, alignRight})
				}
				fmt.Fprintf(out, "Data: %s  RAM: %dMB  Goroutines: %d\n", health.Storage, health.HeapMB, health.Goroutines)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days of history")
	return cmd
}

func newMetricsCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Delete usage metrics older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return ctx.withApp(cmd.Context(), func(a *app.App, _ string) error {
				if a.Metrics == nil {
					return errors.New("metrics are not available")
				}
				n, err := a.Metrics.Cleanup(days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d metric rows\n", n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Keep this many days of metrics")
	return cmd
}
