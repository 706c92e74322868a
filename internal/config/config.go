package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the labcompare service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Labs      []LabConfig     `yaml:"labs"`
	Storage   StorageConfig   `yaml:"storage"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // covers a full scrape + embed run
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis-compatible store settings.
// Empty addrs runs without a store: no saved comparisons, in-memory budget.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a store is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider    string       `yaml:"provider"`
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	Dimensions  int          `yaml:"dimensions"`
	Instruction string       `yaml:"instruction"`
	ChunkSize   int          `yaml:"chunk_size"`
	Budget      BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// MatchingConfig tunes name reconciliation.
type MatchingConfig struct {
	CrossLabThreshold  float64  `yaml:"cross_lab_threshold"`
	CanonicalThreshold float64  `yaml:"canonical_threshold"`
	Strategy           string   `yaml:"strategy"` // greedy (default) | optimal
	CanonicalTests     []string `yaml:"canonical_tests"`
	RequireAllLabs     *bool    `yaml:"require_all_labs"`
}

// ScrapeConfig holds settings shared by every lab adapter.
type ScrapeConfig struct {
	TimeoutSec    int     `yaml:"timeout_sec"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	UserAgent     string  `yaml:"user_agent"`
	OutputDir     string  `yaml:"output_dir"` // dump raw records here when set
}

// LabConfig describes one competitor lab.
type LabConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // html (default) | file

	// html
	URL       string            `yaml:"url"`
	PageURL   string            `yaml:"page_url"`
	Pages     int               `yaml:"pages"`
	Item      string            `yaml:"item"`
	Selectors map[string]string `yaml:"selectors"` // record field → selector
	MaxItems  int               `yaml:"max_items"`

	// file
	Path string `yaml:"path"`

	Fields FieldsConfig `yaml:"fields"`
}

// FieldsConfig names the record fields holding test name and price.
type FieldsConfig struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// StorageConfig holds result storage settings.
type StorageConfig struct {
	ResultTTLHours int `yaml:"result_ttl_hours"` // 0 keeps results forever
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}

	if c.Matching.CrossLabThreshold == 0 {
		c.Matching.CrossLabThreshold = 0.85
	}
	if c.Matching.CanonicalThreshold == 0 {
		c.Matching.CanonicalThreshold = 0.70
	}
	if c.Matching.Strategy == "" {
		c.Matching.Strategy = "greedy"
	}
	if len(c.Matching.CanonicalTests) == 0 {
		c.Matching.CanonicalTests = []string{"CBC", "Glucose", "TSH", "Uric Acid", "SGPT"}
	}
	if c.Matching.RequireAllLabs == nil {
		all := true
		c.Matching.RequireAllLabs = &all
	}

	if c.Scrape.TimeoutSec <= 0 {
		c.Scrape.TimeoutSec = 90
	}
	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = "Mozilla/5.0 (compatible; labcompare/1.0)"
	}

	for i := range c.Labs {
		l := &c.Labs[i]
		if l.Kind == "" {
			l.Kind = "html"
		}
		if l.Fields.Name == "" {
			l.Fields.Name = "name"
		}
		if l.Fields.Price == "" {
			l.Fields.Price = "price"
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}

	m := c.Matching
	if m.CrossLabThreshold < 0 || m.CrossLabThreshold > 1 {
		return fmt.Errorf("matching.cross_lab_threshold must be in [0,1], got %v", m.CrossLabThreshold)
	}
	if m.CanonicalThreshold < 0 || m.CanonicalThreshold > 1 {
		return fmt.Errorf("matching.canonical_threshold must be in [0,1], got %v", m.CanonicalThreshold)
	}
	switch m.Strategy {
	case "greedy", "optimal", "hungarian":
	default:
		return fmt.Errorf("matching.strategy must be \"greedy\" or \"optimal\", got %q", m.Strategy)
	}

	if len(c.Labs) == 0 {
		return fmt.Errorf("labs: at least one lab is required")
	}
	seen := make(map[string]bool, len(c.Labs))
	for i, l := range c.Labs {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("labs[%d].name is required", i)
		}
		key := strings.ToLower(l.Name)
		if seen[key] {
			return fmt.Errorf("labs[%d]: duplicate lab %q", i, l.Name)
		}
		seen[key] = true

		switch l.Kind {
		case "html":
			if l.URL == "" || l.Item == "" {
				return fmt.Errorf("labs[%d] (%s): html labs need url and item", i, l.Name)
			}
			for _, f := range []string{l.Fields.Name, l.Fields.Price} {
				if l.Selectors[f] == "" {
					return fmt.Errorf("labs[%d] (%s): no selector for field %q", i, l.Name, f)
				}
			}
		case "file":
			if l.Path == "" {
				return fmt.Errorf("labs[%d] (%s): file labs need path", i, l.Name)
			}
		default:
			return fmt.Errorf("labs[%d] (%s): kind must be \"html\" or \"file\", got %q", i, l.Name, l.Kind)
		}
	}
	return nil
}

// LabNames returns configured lab names in order.
func (c *Config) LabNames() []string {
	names := make([]string, len(c.Labs))
	for i, l := range c.Labs {
		names[i] = l.Name
	}
	return names
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package dirs.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
