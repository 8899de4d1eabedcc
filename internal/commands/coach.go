package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finsight/internal/coach"
)

func newCoachCommand(opts *rootOptions) *cobra.Command {
	var req coach.Request
	var noData bool
	var history int

	cmd := &cobra.Command{
		Use:   "coach [message...]",
		Short: "Ask the financial coach a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.open()
			if err != nil {
				return err
			}
			defer svc.Close()
			w := cmd.OutOrStdout()

			if history > 0 {
				msgs, err := svc.CoachHistory(history)
				if err != nil {
					return err
				}
				if opts.json {
					return printJSON(w, msgs)
				}
				for _, m := range msgs {
					fmt.Fprintf(w, "%s %s\n", bold(m.Role+":"), m.Content)
				}
				return nil
			}

			req.Message = strings.TrimSpace(strings.Join(args, " "))
			if req.Message == "" {
				return fmt.Errorf("give a question or --history")
			}
			req.IncludeData = !noData
			reply, err := svc.Ask(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(w, reply)
			}
			fmt.Fprintln(w, reply.Response)
			fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("(%s/%s)", reply.Provider, reply.Model)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&req.Fast, "fast", false, "shorter prompt and answer")
	cmd.Flags().StringVar(&req.Model, "model", "", "model name (default from config)")
	cmd.Flags().BoolVar(&noData, "no-data", false, "do not share a financial snapshot")
	cmd.Flags().BoolVar(&req.NoHistory, "no-history", false, "do not include prior conversation")
	cmd.Flags().IntVar(&history, "history", 0, "print the last N messages instead of asking")

	return cmd
}
