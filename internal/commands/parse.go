package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvloznov/expense-bot/internal/api/handlers"
	"github.com/dvloznov/expense-bot/internal/config"
	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/expense"
	"github.com/dvloznov/expense-bot/internal/notion"
)

func newParseCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <message>",
		Short: "Parse an expense message offline and show the Notion properties it maps to",
		Example: `  expensebot parse "Eggs, 3.50, Walmart, Groceries"
  expensebot parse --json "2024-01-15, Bread, 2.25, Kroger, Groceries"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.envFile)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			e, err := expense.NewParser(loc).Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}

			return printExpense(cmd.OutOrStdout(), e, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the expense and Notion properties as JSON")

	return cmd
}

func printExpense(w io.Writer, e domain.Expense, asJSON bool) error {
	resp := handlers.PreviewResponse{
		Expense:    handlers.NewExpenseResponse(e),
		Properties: notion.ExpenseToNotionProperties(e),
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(w, "Date:     %s\n", resp.Expense.Date)
	fmt.Fprintf(w, "Item:     %s\n", resp.Expense.Item)
	fmt.Fprintf(w, "Price:    %v\n", resp.Expense.Price)
	fmt.Fprintf(w, "Store:    %s\n", resp.Expense.Store)
	fmt.Fprintf(w, "Category: %s\n", resp.Expense.Category)
	fmt.Fprintf(w, "Quantity: %s\n", resp.Expense.Quantity)
	return nil
}
