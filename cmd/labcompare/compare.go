package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/domain/report"
	comparisonrepo "github.com/kailas-cloud/labcompare/internal/repository/comparison"
	compareuc "github.com/kailas-cloud/labcompare/internal/usecase/compare"
)

var (
	compareCity string
	compareLabs []string
	compareXLSX string
	compareJSON bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one comparison and print the summary",
	Example: `  labcompare compare --city "New Delhi"
  labcompare compare --city Mumbai --labs "Lal PathLabs,SRL Diagnostics" --xlsx out.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		var repo compareuc.Repository
		if store != nil {
			defer store.Close()
			repo = comparisonrepo.New(store, time.Duration(cfg.Storage.ResultTTLHours)*time.Hour)
		}

		labs, err := buildLabs(cfg, logger)
		if err != nil {
			return err
		}
		opts, err := buildOptions(cfg.Matching)
		if err != nil {
			return err
		}
		chain := buildEmbedder(ctx, cfg.Embedding, store, logger)
		svc := compareuc.New(labs, chain.embedder, repo, opts, logger)

		competitors := compareLabs
		if len(competitors) == 0 {
			competitors = cfg.LabNames()
		}

		c, err := svc.Run(ctx, compareCity, competitors)
		if err != nil {
			return fmt.Errorf("compare %s: %w", compareCity, err)
		}

		out := cmd.OutOrStdout()
		if compareJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report.Structured(c, svc.CanonicalTests())); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
		} else {
			fmt.Fprintf(out, "Comparison for %s (%s)\n", c.City, strings.Join(labNames(c.Labs), ", "))
			fmt.Fprintln(out, report.Summary(c.Recommendations))
		}

		if compareXLSX != "" {
			if err := report.WriteXLSX(compareXLSX, c); err != nil {
				return err
			}
			logger.Info("Workbook written", zap.String("path", compareXLSX))
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareCity, "city", "", "city to compare (required)")
	compareCmd.Flags().StringSliceVar(&compareLabs, "labs", nil, "competitor labs (default: every configured lab)")
	compareCmd.Flags().StringVar(&compareXLSX, "xlsx", "", "also write the comparison to this .xlsx file")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the structured lab → test → price table instead of the summary")
	_ = compareCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(compareCmd)
}
