package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/importer"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

func newTransactionsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List and categorize stored transactions",
	}
	cmd.AddCommand(
		newTransactionsListCommand(opts),
		newSetCategoryCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

func newTransactionsListCommand(opts *rootOptions) *cobra.Command {
	var from, to, merchant string
	var uncategorized bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.Filter{Merchant: merchant, UncategorizedOnly: uncategorized, NewestFirst: true, Limit: limit}
			var err error
			if f.From, err = optionalDate(from); err != nil {
				return err
			}
			if f.To, err = optionalDate(to); err != nil {
				return err
			}
			return runTransactionsList(cmd, opts, f)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "earliest date")
	cmd.Flags().StringVar(&to, "to", "", "latest date")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only uncategorized transactions")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	return cmd
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return importer.ParseDate(s)
}

func runTransactionsList(cmd *cobra.Command, opts *rootOptions, f store.Filter) error {
	svc, err := opts.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	txns, err := svc.ListTransactions(f)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, txns)
	}
	for _, t := range txns {
		fmt.Fprintf(w, "%6d  %s  %12s  %-30s  %-20s  %s\n",
			t.ID, t.Date.Format("2006-01-02"), money(t.Amount), t.Description, orDash(t.Merchant), cyan(orDash(t.CategoryValue())))
	}
	return nil
}

func newSetCategoryCommand(opts *rootOptions) *cobra.Command {
	var clearCategory bool

	cmd := &cobra.Command{
		Use:   "set-category <id> [category]",
		Short: "Set a transaction's category by hand",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			var category *string
			switch {
			case clearCategory:
			case len(args) == 2 && strings.TrimSpace(args[1]) != "":
				category = model.StringPtr(strings.TrimSpace(args[1]))
			default:
				return fmt.Errorf("give a category or --clear")
			}
			return runSetCategory(cmd, opts, ids[0], category)
		},
	}

	cmd.Flags().BoolVar(&clearCategory, "clear", false, "remove the category")

	return cmd
}

func runSetCategory(cmd *cobra.Command, opts *rootOptions, id uint64, category *string) error {
	svc, err := opts.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	rec, err := svc.SetCategory(cmd.Context(), id, category)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, rec)
	}
	prev := "-"
	if rec.OriginalCategory != nil {
		prev = orDash(*rec.OriginalCategory)
	}
	fmt.Fprintf(w, "Transaction %d: %s -> %s\n", id, prev, cyan(orDash(rec.Category)))
	return nil
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show every categorization attempt for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			recs, err := svc.History(ids[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, recs)
			}
			for _, r := range recs {
				conf := "-"
				if r.Confidence != nil {
					conf = fmt.Sprintf("%.2f", *r.Confidence)
				}
				mark := " "
				if r.Promoted {
					mark = green("*")
				}
				fmt.Fprintf(w, "%s %s  %-8s %-30s conf=%s  model=%s\n",
					mark, r.CreatedAt.Format(time.RFC3339), r.Source, r.Category, conf, orDash(r.Model))
			}
			return nil
		},
	}
}
