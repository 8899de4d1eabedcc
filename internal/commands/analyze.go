package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/anomaly"
	"github.com/cleared-dev/finsight/internal/subscription"
)

func newAnomaliesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "Flag outlier and duplicate expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			rep, err := svc.Anomalies()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, rep)
			}
			fmt.Fprintln(w, bold("Outliers"))
			if len(rep.Outliers) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, o := range rep.Outliers {
				t := o.Transaction
				fmt.Fprintf(w, "  %6d  %s  %12s  %s (threshold %.2f)\n",
					t.ID, t.Date.Format("2006-01-02"), money(t.Amount), t.Description, o.Threshold)
			}
			fmt.Fprintln(w, bold("Duplicates"))
			if len(rep.Duplicates) == 0 {
				fmt.Fprintln(w, "  none")
			}
			for _, g := range rep.Duplicates {
				ids := make([]string, len(g.Members))
				for i, m := range g.Members {
					ids[i] = fmt.Sprint(m.ID)
				}
				fmt.Fprintf(w, "  %s  %s  %s  ids: %s\n",
					g.Key.Date.Format("2006-01-02"), g.Key.Amount.StringFixed(2), orDash(g.Key.Merchant), yellow(strings.Join(ids, ", ")))
			}
			return nil
		},
	}
}

func newDedupeCommand(opts *rootOptions) *cobra.Command {
	var req anomaly.DedupeRequest

	cmd := &cobra.Command{
		Use:   "dedupe <id>...",
		Short: "Delete duplicate expense transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			req.IDs = ids

			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			plan, err := svc.Dedupe(cmd.Context(), req)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, plan)
			}
			fmt.Fprintf(w, "Deleted %d transaction(s) %v", len(plan.Delete), plan.Delete)
			if len(plan.Kept) > 0 {
				fmt.Fprintf(w, ", kept %v", plan.Kept)
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	cmd.Flags().BoolVar(&req.Validate, "validate", true, "require every id to be part of a duplicate group")
	cmd.Flags().BoolVar(&req.KeepOne, "keep-one", false, "keep the lowest id of each fully listed group")

	return cmd
}

func newSubscriptionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "Detect recurring charges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			profiles, err := svc.Subscriptions()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, profiles)
			}
			for _, p := range profiles {
				next := "-"
				if p.EstimatedNext != nil {
					next = p.EstimatedNext.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%-24s x%-3d every %5.1fd  avg %8.2f  next %s  %s\n",
					bold(p.Merchant), p.Occurrences, p.AvgIntervalDays, p.AvgAmount, next, profileFlags(p))
			}
			return nil
		},
	}
}

func profileFlags(p subscription.Profile) string {
	out := make([]string, len(p.Flags))
	for i, f := range p.Flags {
		s := string(f)
		if f == subscription.FlagTrialConverted {
			s = yellow(s)
		}
		out[i] = s
	}
	return strings.Join(out, ",")
}
