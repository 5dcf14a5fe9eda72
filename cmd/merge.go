package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barstream/catalog-dedupe/internal/merge"
	"github.com/barstream/catalog-dedupe/internal/model"
)

var (
	mergeTenant   string
	mergeKeep     string
	mergeAway     string
	mergeOperator string
	mergeReason   string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge one product into another directly",
	Long:  "Executes a manual merge outside the review workflow: rewrites sales history, records an alias, reassigns inventory, refreshes metrics, and appends an audit entry.",
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

		res, err := merge.NewExecutor(st, mergeRetry()).Execute(ctx, merge.Request{
			TenantID:       mergeTenant,
			KeepProductID:  mergeKeep,
			MergeProductID: mergeAway,
			Type:           model.MergeTypeManual,
			Reasoning:      mergeReason,
			PerformedBy:    mergeOperator,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Merged: %d records rewritten (audit %s).\n",
			res.RecordsAffected, res.AuditEntryID)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeTenant, "tenant", "", "tenant id (required)")
	mergeCmd.Flags().StringVar(&mergeKeep, "keep", "", "product id to keep (required)")
	mergeCmd.Flags().StringVar(&mergeAway, "merge", "", "product id to merge away (required)")
	mergeCmd.Flags().StringVar(&mergeOperator, "operator", "", "operator id for the audit trail")
	mergeCmd.Flags().StringVar(&mergeReason, "reason", "", "reasoning recorded in the audit entry")
	_ = mergeCmd.MarkFlagRequired("tenant")
	_ = mergeCmd.MarkFlagRequired("keep")
	_ = mergeCmd.MarkFlagRequired("merge")
	rootCmd.AddCommand(mergeCmd)
}
