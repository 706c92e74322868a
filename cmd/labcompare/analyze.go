package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/report"
)

var analyzeFile string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize a lab → test → price JSON table without scraping",
	Long:  "Reads {lab: {test: price|null}} from --file (or stdin when omitted or \"-\") and prints the per-test recommendation.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		raw, err := readInput(cmd.InOrStdin(), analyzeFile)
		if err != nil {
			return err
		}
		t, err := report.DecodeTable(raw)
		if err != nil {
			return err
		}
		summary := report.FromPrices(t, canonicalTests())
		if summary == "" {
			return fmt.Errorf("%w: no canonical test has a price", domain.ErrNoData)
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "JSON price table (default stdin)")
	rootCmd.AddCommand(analyzeCmd)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func canonicalTests() []domain.CanonicalTest {
	tests := make([]domain.CanonicalTest, len(cfg.Matching.CanonicalTests))
	for i, t := range cfg.Matching.CanonicalTests {
		tests[i] = domain.CanonicalTest(t)
	}
	return tests
}

func labNames(labs []domain.LabID) []string {
	out := make([]string, len(labs))
	for i, l := range labs {
		out[i] = string(l)
	}
	return out
}
