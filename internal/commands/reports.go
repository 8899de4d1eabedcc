package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBreakdownCommand(opts *rootOptions) *cobra.Command {
	var months, limit int

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Spending breakdowns over recent months",
	}
	cmd.PersistentFlags().IntVar(&months, "months", 3, "months to include")

	categories := &cobra.Command{
		Use:   "categories",
		Short: "Income and spend per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			b, err := svc.CategoryBreakdown(months)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, b)
			}
			fmt.Fprintf(w, "Since %s: income %s, spend %s, net %s\n",
				b.WindowStart.Format("2006-01-02"), money(b.IncomeTotal), b.SpendTotal.StringFixed(2), money(b.NetTotal))
			for _, r := range b.Categories {
				fmt.Fprintf(w, "  %-28s spend %10s  income %10s  %6s%%\n",
					r.Category, r.Spend.StringFixed(2), r.Income.StringFixed(2), r.ShareOfSpend.StringFixed(2))
			}
			return nil
		},
	}

	merchants := &cobra.Command{
		Use:   "merchants",
		Short: "Totals per merchant, largest spend first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			rows, err := svc.MerchantBreakdown(months, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, rows)
			}
			for _, r := range rows {
				fmt.Fprintf(w, "  %-28s x%-4d spend %10s  net %s\n", r.Merchant, r.Transactions, r.Spend.StringFixed(2), money(r.Net))
			}
			return nil
		},
	}
	merchants.Flags().IntVar(&limit, "limit", 10, "maximum merchants")

	timeline := &cobra.Command{
		Use:   "timeline",
		Short: "Income and spend per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			tl, err := svc.Timeline(months)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, tl)
			}
			for _, p := range tl.Points {
				fmt.Fprintf(w, "  %s  income %10s  spend %10s  net %s\n", p.Month, p.Income.StringFixed(2), p.Spend.StringFixed(2), money(p.Net))
			}
			return nil
		},
	}

	cmd.AddCommand(categories, merchants, timeline)
	return cmd
}

func newInsightsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "All-time spend by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			in, err := svc.Insights()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, in)
			}
			fmt.Fprintf(w, "Income %s  Spend %s  Net %s\n", money(in.TotalIncome), in.TotalSpend.StringFixed(2), money(in.Net))
			for _, c := range in.SpendingByCategory {
				fmt.Fprintf(w, "  %-28s %10s\n", c.Category, c.Total.StringFixed(2))
			}
			return nil
		},
	}
}

func newForecastCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Project annual net from the last 30 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			fc, err := svc.Forecast()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, map[string]string{"projected_annual_net": fc.StringFixed(2)})
			}
			fmt.Fprintf(w, "Projected annual net: %s\n", money(fc))
			return nil
		},
	}
}
