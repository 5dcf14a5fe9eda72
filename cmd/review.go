package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/barstream/catalog-dedupe/internal/model"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review duplicate candidates",
	Long:  "Commands for listing pending candidates and submitting merge or dismiss decisions.",
}

// -- review list --

var (
	reviewListTenant string
	reviewListLimit  int
)

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending candidates, highest confidence first",
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

		candidates, err := newWorkflow(st).ListPending(ctx, reviewListTenant, reviewListLimit)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Fprintln(os.Stderr, "No pending candidates.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCONFIDENCE\tPRODUCT A\tPRODUCT B\tREASONING")
		for _, c := range candidates {
			nameA, nameB := c.ProductAID, c.ProductBID
			if c.ProductA != nil {
				nameA = fmt.Sprintf("%s ($%.0f)", c.ProductA.Name, c.ProductA.TotalRevenue)
			}
			if c.ProductB != nil {
				nameB = fmt.Sprintf("%s ($%.0f)", c.ProductB.Name, c.ProductB.TotalRevenue)
			}
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\n",
				c.ID, c.Confidence, nameA, nameB, strings.Join(c.Detail.Reasoning, "; "))
		}
		return w.Flush()
	},
}

// -- review decide --

var (
	decideAction   string
	decideKeep     string
	decideMerge    string
	decideReviewer string
)

var reviewDecideCmd = &cobra.Command{
	Use:   "decide <candidate-id>",
	Short: "Submit a merge or dismiss decision for a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		outcome, err := newWorkflow(st).Decide(ctx, args[0], model.MergeDecision{
			Action:         model.DecisionAction(decideAction),
			KeepProductID:  decideKeep,
			MergeProductID: decideMerge,
		}, decideReviewer)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outcome.Status == model.CandidateStatusMerged {
			fmt.Fprintf(out, "Merged: %d records rewritten.\n", outcome.RecordsAffected)
		} else {
			fmt.Fprintln(out, "Dismissed.")
		}
		return nil
	},
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewListTenant, "tenant", "", "tenant id (required)")
	reviewListCmd.Flags().IntVar(&reviewListLimit, "limit", 50, "maximum candidates to list")
	_ = reviewListCmd.MarkFlagRequired("tenant")

	reviewDecideCmd.Flags().StringVar(&decideAction, "action", "", "merge or dismiss (required)")
	reviewDecideCmd.Flags().StringVar(&decideKeep, "keep", "", "product id to keep (merge only)")
	reviewDecideCmd.Flags().StringVar(&decideMerge, "merge", "", "product id to merge away (merge only)")
	reviewDecideCmd.Flags().StringVar(&decideReviewer, "reviewer", "", "reviewer id")
	_ = reviewDecideCmd.MarkFlagRequired("action")

	reviewCmd.AddCommand(reviewListCmd, reviewDecideCmd)
	rootCmd.AddCommand(reviewCmd)
}
