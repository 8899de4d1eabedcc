package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/app"
)

func newEnrichCommand(opts *rootOptions) *cobra.Command {
	var useCluster bool
	var cp app.ClusterParams
	var mp app.ModelParams
	var onlyUncategorized, promote, overwrite bool
	var limit int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Suggest categories with a categorizer or by clustering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			var res app.EnrichResult
			if useCluster {
				cp.OnlyUncategorized, cp.Promote, cp.OverwriteExisting, cp.Limit = onlyUncategorized, promote, overwrite, limit
				res, err = svc.EnrichClusters(cmd.Context(), cp)
			} else {
				mp.OnlyUncategorized, mp.Promote, mp.OverwriteExisting, mp.Limit = onlyUncategorized, promote, overwrite, limit
				res, err = svc.EnrichModel(cmd.Context(), mp)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, res)
			}
			fmt.Fprintf(w, "%s enrichment: processed %d, promoted %d, recorded %d\n",
				res.Mode, res.Processed, len(res.Promoted), res.Records)
			for _, c := range res.Clusters {
				fmt.Fprintf(w, "  %-36s size=%d  confidence=%.2f  ids=%v\n", cyan(c.Label), c.Size, c.Confidence, c.MemberIDs)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&useCluster, "cluster", false, "group similar transactions instead of asking a categorizer")
	f.BoolVar(&onlyUncategorized, "only-uncategorized", true, "skip transactions that already have a category")
	f.BoolVar(&promote, "promote", true, "apply suggestions to the live category")
	f.BoolVar(&overwrite, "overwrite", false, "replace existing categories when promoting")
	f.IntVar(&limit, "limit", 0, "maximum candidates (0 uses config)")
	f.Float64Var(&cp.Threshold, "threshold", 0, "cluster similarity threshold (0 uses config)")
	f.IntVar(&cp.MinSize, "min-size", 0, "minimum cluster size (0 uses config)")
	f.IntVar(&cp.MaxTokens, "label-tokens", 0, "tokens per cluster label (0 uses config)")
	f.StringVar(&mp.Categorizer, "categorizer", "", "keyword, bayes or llm (default from config)")
	f.StringVar(&mp.Model, "model", "", "model name for the llm categorizer")
	f.BoolVar(&mp.IncludeEnriched, "include-enriched", false, "revisit transactions that already have records")
	f.Float64Var(&mp.MinConfidence, "min-confidence", 0, "promotion confidence (0 uses config)")

	return cmd
}

func newRenameClusterCommand(opts *rootOptions) *cobra.Command {
	p := app.RenameParams{}

	cmd := &cobra.Command{
		Use:   "rename-cluster <old> <new>",
		Short: "Rename a cluster label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Old, p.New = args[0], args[1]
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.RenameCluster(cmd.Context(), p)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.json {
				return printJSON(w, res)
			}
			if !res.Changed {
				fmt.Fprintln(w, "Labels are identical; nothing to do.")
				return nil
			}
			fmt.Fprintf(w, "Renamed %q to %q: %d transactions, %d records\n",
				res.Old, res.New, res.TransactionsUpdated, res.RecordsUpdated)
			return nil
		},
	}

	cmd.Flags().BoolVar(&p.UpdateTransactions, "transactions", true, "rename live categories")
	cmd.Flags().BoolVar(&p.UpdateHistory, "history", true, "rename cluster records")

	return cmd
}
