package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pantry-planner/internal/app"
	"pantry-planner/internal/shopping"
)

func newItemCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newListCommand(ctx),
		newAddCommand(ctx),
		newAddRecipeCommand(ctx),
		newImportCommand(ctx),
		newCheckCommand(ctx),
		newQtyCommand(ctx),
		newRemoveCommand(ctx),
		newClearCommand(ctx),
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the shopping list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				l, err := a.Shopping.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				printItems(cmd.OutOrStdout(), l.Items())
				return nil
			})
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "add <line>",
		Short:   "Add an item such as \"2 kg potatoes\"",
		Example: "  pantry-planner add 2 kg potatoes",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				res, err := a.AddLine(cmd.Context(), userID, strings.Join(args, " "))
				if err != nil {
					return err
				}
				printMergeSummary(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func newAddRecipeCommand(ctx *commandContext) *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "add-recipe <file|->",
		Short: "Add a recipe's ingredient lines, skipping what the pantry covers",
		Long: `Reads one ingredient per line from the file, or from stdin when the
argument is "-". The recipe name defaults to the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, name, err := readLines(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if origin == "" {
				origin = name
			}
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				res, err := a.AddRecipeLines(cmd.Context(), userID, origin, lines)
				if err != nil {
					return err
				}
				printMergeSummary(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "Recipe name recorded on the items")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <url>",
		Short: "Import a recipe page and add its ingredients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
				res, err := a.ImportRecipe(cmd.Context(), userID, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %q", res.Recipe.Title)
				if res.Cached {
					fmt.Fprint(out, " (cached)")
				}
				fmt.Fprintln(out)
				printMergeSummary(out, res.Merge)
				return nil
			})
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "check <n|id>...",
		Short: "Mark items as bought",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withList(ctx, cmd, func(l *shopping.List) error {
				items := make([]shopping.Item, 0, len(args))
				for _, ref := range args {
					it, err := resolveItem(l, ref)
					if err != nil {
						return err
					}
					items = append(items, it)
				}
				for _, it := range items {
					if _, err := l.SetChecked(cmd.Context(), it.ID, !undo); err != nil {
						return err
					}
				}
				printItems(cmd.OutOrStdout(), l.Items())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Uncheck instead")
	return cmd
}

func newQtyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <n|id> <quantity|->",
		Short: "Set an item's quantity; \"-\" makes it unquantified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quantity *float64
			if args[1] != "-" {
				q, err := strconv.ParseFloat(args[1], 64)
				if err != nil || q < 0 {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				quantity = &q
			}
			return withList(ctx, cmd, func(l *shopping.List) error {
				it, err := resolveItem(l, args[0])
				if err != nil {
					return err
				}
				it, err = l.SetQuantity(cmd.Context(), it.ID, quantity)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", it.Name, it.Amount())
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <n|id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withList(ctx, cmd, func(l *shopping.List) error {
				it, err := resolveItem(l, args[0])
				if err != nil {
					return err
				}
				if err := l.Remove(cmd.Context(), it.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", it.Name)
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var checked bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withList(ctx, cmd, func(l *shopping.List) error {
				var (
					n   int
					err error
				)
				if checked {
					n, err = l.ClearChecked(cmd.Context())
				} else {
					n, err = l.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&checked, "checked", false, "Only remove checked items")
	return cmd
}

func withList(ctx *commandContext, cmd *cobra.Command, fn func(*shopping.List) error) error {
	return ctx.withApp(cmd.Context(), func(a *app.App, userID string) error {
		l, err := a.Shopping.List(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return fn(l)
	})
}

func readLines(stdin io.Reader, path string) ([]string, string, error) {
	var (
		r    = stdin
		name string
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open recipe: %w", err)
		}
		defer f.Close()
		r = f
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("read recipe: %w", err)
	}
	return lines, name, nil
}

func printItems(w io.Writer, items []shopping.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing to buy")
		return
	}
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			checkMark(it.Checked),
			it.Name,
			it.Amount(),
			it.Recipe,
			it.ID,
		})
	}
	writeRows(w, []string{"#", "", "Item", "Amount", "Recipe", "ID"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
}

func printMergeSummary(w io.Writer, res shopping.MergeResult) {
	if len(res.Inserted) == 0 && len(res.Updated) == 0 {
		fmt.Fprintln(w, "Nothing to add; the pantry covers it")
		return
	}
	fmt.Fprintf(w, "Added %d, updated %d\n", len(res.Inserted), len(res.Updated))
	for _, it := range res.Inserted {
		fmt.Fprintf(w, "+ %s\t%s\n", it.Name, it.Amount())
	}
	for _, it := range res.Updated {
		fmt.Fprintf(w, "~ %s\t%s\n", it.Name, it.Amount())
	}
}

func checkMark(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}
