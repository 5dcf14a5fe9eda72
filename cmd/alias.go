package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Inspect and resolve product alias mappings",
}

// -- alias resolve --

var aliasResolveTenant string

var aliasResolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a raw product name to its canonical name",
	Long:  "Prints the canonical name for a merged-away variant, or the input unchanged when no active mapping exists. The ingest pipeline applies the same lookup before creating product rows.",
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

		canonical, err := st.ResolveAlias(ctx, aliasResolveTenant, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), canonical)
		return nil
	},
}

// -- alias list --

var (
	aliasListTenant string
	aliasListLimit  int
)

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active alias mappings for a tenant",
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

		aliases, err := st.ListAliases(ctx, aliasListTenant, aliasListLimit)
		if err != nil {
			return err
		}
		if len(aliases) == 0 {
			fmt.Fprintln(os.Stderr, "No alias mappings found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VARIANT\tCANONICAL\tCONFIDENCE\tSOURCE\tCREATED BY")
		for _, a := range aliases {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
				a.VariantName, a.CanonicalName, a.Confidence, a.Source, a.CreatedBy)
		}
		return w.Flush()
	},
}

func init() {
	aliasResolveCmd.Flags().StringVar(&aliasResolveTenant, "tenant", "", "tenant id (required)")
	_ = aliasResolveCmd.MarkFlagRequired("tenant")

	aliasListCmd.Flags().StringVar(&aliasListTenant, "tenant", "", "tenant id (required)")
	aliasListCmd.Flags().IntVar(&aliasListLimit, "limit", 100, "maximum mappings to list")
	_ = aliasListCmd.MarkFlagRequired("tenant")

	aliasCmd.AddCommand(aliasResolveCmd, aliasListCmd)
	rootCmd.AddCommand(aliasCmd)
}
