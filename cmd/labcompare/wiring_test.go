package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/config"
	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/match"
	"github.com/kailas-cloud/labcompare/internal/scrape"
)

func TestBuildOptions(t *testing.T) {
	off := false
	opts, err := buildOptions(config.MatchingConfig{
		CrossLabThreshold:  0.9,
		CanonicalThreshold: 0.6,
		Strategy:           "optimal",
		CanonicalTests:     []string{"CBC", " ", "TSH"},
		RequireAllLabs:     &off,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := opts.Matcher.(match.Optimal); !ok {
		t.Errorf("expected optimal matcher, got %T", opts.Matcher)
	}
	if len(opts.CanonicalTests) != 2 || opts.CanonicalTests[1] != domain.TestTSH {
		t.Errorf("unexpected tests: %v", opts.CanonicalTests)
	}
	if opts.RequireAllLabs {
		t.Error("expected require_all_labs to be honored")
	}
	if opts.CrossLabThreshold != 0.9 || opts.CanonicalThreshold != 0.6 {
		t.Errorf("unexpected thresholds: %+v", opts)
	}
}

func TestBuildOptions_RequireAllDefault(t *testing.T) {
	opts, err := buildOptions(config.MatchingConfig{Strategy: "greedy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.RequireAllLabs {
		t.Error("expected require_all_labs to default to true")
	}
}

func TestBuildOptions_UnknownStrategy(t *testing.T) {
	if _, err := buildOptions(config.MatchingConfig{Strategy: "fuzzy"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildLabs(t *testing.T) {
	c := config.Config{
		Scrape: config.ScrapeConfig{TimeoutSec: 5, OutputDir: t.TempDir()},
		Labs: []config.LabConfig{
			{
				Name: "Lal PathLabs", Kind: "html",
				URL: "https://example.com/{city}", Item: "div.card",
				Selectors: map[string]string{"name": "h3", "price": ".price"},
				Fields:    config.FieldsConfig{Name: "name", Price: "price"},
			},
			{
				Name: "SRL", Kind: "file", Path: "testdata/{city}.json",
				Fields: config.FieldsConfig{Name: "test_name", Price: "cost"},
			},
		},
	}
	labs, err := buildLabs(c, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labs) != 2 {
		t.Fatalf("expected 2 labs, got %d", len(labs))
	}
	if labs[0].ID != "Lal PathLabs" || labs[1].ID != "SRL" {
		t.Errorf("lab order not kept: %s, %s", labs[0].ID, labs[1].ID)
	}
	if labs[1].NameField != "test_name" || labs[1].PriceField != "cost" {
		t.Errorf("unexpected fields: %+v", labs[1])
	}
	for _, l := range labs {
		if _, ok := l.Adapter.(*scrape.Recorder); !ok {
			t.Errorf("%s: expected recorder when output_dir is set, got %T", l.ID, l.Adapter)
		}
	}
}

func TestBuildLabs_InvalidAdapter(t *testing.T) {
	c := config.Config{Labs: []config.LabConfig{{Name: "Broken", Kind: "html"}}}
	if _, err := buildLabs(c, zap.NewNop()); err == nil {
		t.Fatal("expected error for html lab without url")
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader("from stdin"), "-")
	if err != nil || string(got) != "from stdin" {
		t.Fatalf("stdin: got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "prices.json")
	if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(nil, path)
	if err != nil || string(got) != "from file" {
		t.Fatalf("file: got %q, %v", got, err)
	}

	if _, err := readInput(nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := "labs:\n  - name: Lab A\n    kind: file\n    path: " + filepath.Join(dir, "{city}.json") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	prices := filepath.Join(dir, "prices.json")
	table := `{"Lab A": {"CBC": 300, "TSH": null}, "Lab B": {"CBC": "₹250"}}`
	if err := os.WriteFile(prices, []byte(table), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--env", "local", "--config", cfgPath, "--file", prices})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "CBC") || !strings.Contains(got, "Lab B") {
		t.Errorf("unexpected summary: %q", got)
	}
	if strings.Contains(got, "TSH") {
		t.Errorf("unpriced test must be omitted: %q", got)
	}
}
