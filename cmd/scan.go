package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barstream/catalog-dedupe/internal/scan"
)

var (
	scanTenant        string
	scanMinConfidence float64
	scanMaxProducts   int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a tenant's catalog for duplicate products",
	Long:  "Compares every product pair under the cap, records pairs scoring above the confidence threshold as pending candidates, and prints a summary.",
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

		scanner, err := newScanner(st)
		if err != nil {
			return err
		}

		minConfidence := scanMinConfidence
		if minConfidence == 0 {
			minConfidence = cfg.Scan.MinConfidence
		}
		maxProducts := scanMaxProducts
		if maxProducts == 0 {
			maxProducts = cfg.Scan.MaxProducts
		}

		summary, err := scanner.Run(ctx, scanTenant, scan.Options{
			MinConfidence: minConfidence,
			MaxProducts:   maxProducts,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scan %s completed in %.2fs\n", summary.ScanID, summary.DurationSeconds)
		fmt.Fprintf(out, "  products scanned:  %d\n", summary.ProductsScanned)
		fmt.Fprintf(out, "  candidates found:  %d\n", summary.CandidatesFound)
		fmt.Fprintf(out, "  high confidence:   %d\n", summary.HighConfidenceCount)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanTenant, "tenant", "", "tenant id (required)")
	scanCmd.Flags().Float64Var(&scanMinConfidence, "min-confidence", 0, "minimum confidence to record a candidate (default from config)")
	scanCmd.Flags().IntVar(&scanMaxProducts, "max-products", 0, "maximum products to consider (default from config)")
	_ = scanCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(scanCmd)
}
