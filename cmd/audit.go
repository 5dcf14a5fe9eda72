package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	auditTenant string
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the merge audit trail for a tenant",
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

		entries, err := st.ListMergeAudit(ctx, auditTenant, auditLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No merge audit entries found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTYPE\tSOURCES\tCANONICAL\tRECORDS\tBY")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.CreatedAt.Format(time.RFC3339),
				e.MergeType,
				strings.Join(e.SourceNames, ", "),
				e.CanonicalName,
				e.RecordsAffected,
				e.PerformedBy,
			)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditTenant, "tenant", "", "tenant id (required)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum entries to list")
	_ = auditCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(auditCmd)
}
