package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	runsTenant string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List scan run history for a tenant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListScanRuns(ctx, runsTenant, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No scan runs found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tSCANNED\tFOUND\tHIGH\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.2fs\n",
				r.ID,
				r.StartedAt.Format(time.RFC3339),
				r.Status,
				r.ProductsScanned,
				r.CandidatesFound,
				r.HighConfidenceCount,
				r.DurationSeconds,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsTenant, "tenant", "", "tenant id (required)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	_ = runsCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(runsCmd)
}
