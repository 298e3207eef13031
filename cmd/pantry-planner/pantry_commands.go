package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pantry-planner/internal/app"
	"pantry-planner/internal/pantry"
)

const dateLayout = "2006-01-02"

func newPantryCommand(ctx *commandContext) *cobra.Command {
	pantryCmd := &cobra.Command{
		Use:   "pantry",
		Short: "Manage what you already have",
	}
	pantryCmd.AddCommand(newPantryAddCommand(ctx))
	pantryCmd.AddCommand(newPantryListCommand(ctx))
	pantryCmd.AddCommand(newPantryRemoveCommand(ctx))
	pantryCmd.AddCommand(newPantryExpiringCommand(ctx))
	return pantryCmd
}

func newPantryAddCommand(ctx *commandContext) *cobra.Command {
	var expires string
	cmd := &cobra.Command{
		Use:     "add <line>",
		Short:   "Stock an item such as \"500 g rice\"",
		Example: "  pantry-planner pantry add 1 l milk --expires 2024-05-01",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var expiresAt *time.Time
			if expires != "" {
				t, err := time.ParseInLocation(dateLayout, expires, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --expires %q, use YYYY-MM-DD", expires)
				}
				expiresAt = &t
			}
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				item, err := a.StockLine(cmd.Context(), userID, strings.Join(args, " "), expiresAt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stocked %s\t%s\t%s\n", item.Name, item.Quantity, item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&expires, "expires", "", "Expiry date (YYYY-MM-DD)")
	return cmd
}

func newPantryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the pantry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				items, err := a.Pantry.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				printPantry(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
}

func newPantryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a pantry item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				if err := a.RemovePantryItem(cmd.Context(), userID, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Removed")
				return nil
			})
		},
	}
}

func newPantryExpiringCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "Show items expiring soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				items, err := a.ExpiringPantry(cmd.Context(), userID, time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				printPantry(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 3, "Look-ahead window in days")
	return cmd
}

func printPantry(w io.Writer, items []pantry.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Pantry is empty")
		return
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		expires := ""
		if it.ExpiresAt != nil {
			expires = it.ExpiresAt.Local().Format(dateLayout)
		}
		rows = append(rows, []string{it.Name, it.Quantity, expires, it.ID})
	}
	writeRows(w, []string{"Item", "Quantity", "Expires", "ID"}, rows,
		[]columnAlignment{alignLeft, alignRight})
}
