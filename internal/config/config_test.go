package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8000},
		Labs: []LabConfig{
			{
				Name:      "SRL Diagnostics",
				URL:       "https://srldiagnostics.in/shop/?orderby=price",
				Item:      "li.product",
				Fields:    FieldsConfig{Name: "test", Price: "price"},
				Selectors: map[string]string{"test": "h2", "price": "span.price"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget.Action = "invalid_action"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}
	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"threshold", func(c *Config) { c.Matching.CrossLabThreshold = 1.5 }, "cross_lab_threshold"},
		{"canonical threshold", func(c *Config) { c.Matching.CanonicalThreshold = -0.1 }, "canonical_threshold"},
		{"strategy", func(c *Config) { c.Matching.Strategy = "random" }, "matching.strategy"},
		{"no labs", func(c *Config) { c.Labs = nil }, "at least one lab"},
		{"lab name", func(c *Config) { c.Labs[0].Name = " " }, "name is required"},
		{"duplicate lab", func(c *Config) {
			dup := c.Labs[0]
			dup.Name = "srl diagnostics"
			c.Labs = append(c.Labs, dup)
		}, "duplicate lab"},
		{"html url", func(c *Config) { c.Labs[0].URL = "" }, "need url and item"},
		{"missing selector", func(c *Config) { delete(c.Labs[0].Selectors, "price") }, `field "price"`},
		{"file path", func(c *Config) { c.Labs[0].Kind = "file" }, "need path"},
		{"kind", func(c *Config) { c.Labs[0].Kind = "browser" }, "kind must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Labs: []LabConfig{{Name: "Metropolis Labs"}}}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected Port=8000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 180 {
		t.Errorf("expected WriteTimeoutSec=180, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("unexpected model %q", cfg.Embedding.Model)
	}
	if cfg.Matching.CrossLabThreshold != 0.85 || cfg.Matching.CanonicalThreshold != 0.70 {
		t.Errorf("unexpected thresholds %v/%v", cfg.Matching.CrossLabThreshold, cfg.Matching.CanonicalThreshold)
	}
	if cfg.Matching.Strategy != "greedy" {
		t.Errorf("expected greedy strategy, got %q", cfg.Matching.Strategy)
	}
	if len(cfg.Matching.CanonicalTests) != 5 {
		t.Errorf("expected 5 canonical tests, got %v", cfg.Matching.CanonicalTests)
	}
	if cfg.Matching.RequireAllLabs == nil || !*cfg.Matching.RequireAllLabs {
		t.Error("require_all_labs should default to true")
	}
	if l := cfg.Labs[0]; l.Kind != "html" || l.Fields.Name != "name" || l.Fields.Price != "price" {
		t.Errorf("unexpected lab defaults %+v", l)
	}
	if cfg.Database.Enabled() {
		t.Error("database should be disabled without addrs")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:     HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
		Matching: MatchingConfig{CrossLabThreshold: 0.9, Strategy: "optimal", RequireAllLabs: &off},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Matching.CrossLabThreshold != 0.9 || cfg.Matching.Strategy != "optimal" {
		t.Errorf("matching overridden: %+v", cfg.Matching)
	}
	if *cfg.Matching.RequireAllLabs {
		t.Error("explicit require_all_labs=false must be kept")
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("LABCOMPARE_TEST_KEY", "sk-test")
	data := []byte(`
http:
  port: ${LABCOMPARE_TEST_PORT:-8123}
embedding:
  api_key: ${LABCOMPARE_TEST_KEY}
labs:
  - name: Lab
    kind: file
    path: testdata/{city}.json
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 8123 {
		t.Errorf("expected port 8123, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("expected api key from env, got %q", cfg.Embedding.APIKey)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("labs: []")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	body := "labs:\n  - name: A\n    kind: file\n    path: a.json\n  - name: B\n    kind: file\n    path: b.json\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := cfg.LabNames(); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("LabNames = %v", got)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%s): %v", env, err)
			}
			if len(cfg.Labs) != 3 {
				t.Errorf("expected 3 labs, got %d", len(cfg.Labs))
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("expected local, got %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("expected prod, got %q", GetEnv())
	}
}
