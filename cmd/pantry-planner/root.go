package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, userFlag, storeFlag string

	ctx := newCommandContext(&configFlag, &userFlag, &storeFlag)

	rootCmd := &cobra.Command{
		Use:           "pantry-planner",
		Short:         "Shopping list reconciled against your pantry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User whose list and pantry to use")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Store backend: sqlite, file, postgres or remote")

	for _, cmd := range newItemCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newPantryCommand(ctx))
	rootCmd.AddCommand(newUsageCommand(ctx))
	rootCmd.AddCommand(newMetricsCleanupCommand(ctx))

	return rootCmd
}
