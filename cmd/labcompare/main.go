package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/config"
	logpkg "github.com/kailas-cloud/labcompare/internal/logger"
	"github.com/kailas-cloud/labcompare/internal/version"
)

var (
	cfg        config.Config
	env        string
	configPath string
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "labcompare",
	Short:         "Compare diagnostic lab test prices across competitors",
	Long:          "Scrapes competitor lab catalogs for a city, aligns their test names with embeddings and recommends the cheapest lab per canonical test.",
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version.Version, version.Commit, version.Date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if env == "" {
			env = config.GetEnv()
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load(env)
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err = logpkg.NewLogger(env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment name selecting config/<env>.yaml (default $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file path (overrides --env)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
