package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/app"
)

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var p app.IngestParams
	var scan bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Import bank CSV or XLSX exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !scan && len(args) == 0 {
				return fmt.Errorf("give at least one file or --scan")
			}
			return runIngest(cmd, opts, args, scan, p)
		},
	}

	cmd.Flags().BoolVar(&p.DryRun, "dry-run", false, "parse and report without storing")
	cmd.Flags().StringVar(&p.ChosenDescription, "description", "", "column to use as description")
	cmd.Flags().BoolVar(&p.AutoConfirmDescription, "auto-confirm", false, "apply a confident description candidate without asking")
	cmd.Flags().BoolVar(&p.ForceDescriptionChoice, "force-description", false, "ask for the description column even when one exists")
	cmd.Flags().BoolVar(&scan, "scan", false, "ingest every file in import/ and move it to import/processed/")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *rootOptions, files []string, scan bool, p app.IngestParams) error {
	svc, err := opts.open()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	var results []app.IngestResult
	if scan {
		results, err = svc.IngestScan(ctx, p)
		if err != nil {
			return err
		}
	}
	for _, f := range files {
		res, err := svc.IngestFile(ctx, f, p)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	w := cmd.OutOrStdout()
	if opts.json {
		return printJSON(w, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No files to import.")
	}
	for _, r := range results {
		printIngestResult(w, r)
	}
	return nil
}

func printIngestResult(w io.Writer, r app.IngestResult) {
	if r.Pending != nil {
		fmt.Fprintf(w, "%s %s: %s\n", yellow("?"), bold(r.File), r.Pending.Message)
		for _, c := range r.Pending.Candidates {
			fmt.Fprintf(w, "    %-20s score=%.2f  e.g. %v\n", c.Column, c.Score, c.Examples)
		}
		fmt.Fprintf(w, "  rerun with --description %s or --auto-confirm\n", r.Pending.Suggested.Column)
		return
	}
	rep := r.Report
	verb := "imported"
	if rep.DryRun {
		verb = "would import"
	}
	fmt.Fprintf(w, "%s %s: %s %d records, skipped %d, sign inferred %d (description: %s)\n",
		green("✓"), bold(r.File), verb, rep.Records, rep.Skipped, rep.SignInferred, rep.DescriptionSource)
	for _, e := range rep.ErrorsSample {
		fmt.Fprintf(w, "    %s\n", red(e.String()))
	}
}
