package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/metrics"
	comparisonrepo "github.com/kailas-cloud/labcompare/internal/repository/comparison"
	chiTransport "github.com/kailas-cloud/labcompare/internal/transport/chi"
	compareuc "github.com/kailas-cloud/labcompare/internal/usecase/compare"
	healthuc "github.com/kailas-cloud/labcompare/internal/usecase/health"
	usageuc "github.com/kailas-cloud/labcompare/internal/usecase/usage"
	"github.com/kailas-cloud/labcompare/internal/version"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if servePort > 0 {
			cfg.HTTP.Port = servePort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override http.port")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	logger.Info("Starting labcompare API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("labs", cfg.LabNames()),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterComparisonMetrics()

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	chain := buildEmbedder(ctx, cfg.Embedding, store, logger)
	labs, err := buildLabs(cfg, logger)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg.Matching)
	if err != nil {
		return err
	}

	// Interfaces stay nil without a store; a typed nil pointer would not.
	var (
		repo        compareuc.Repository
		comparisons chiTransport.ComparisonStore
		db          healthuc.DBPinger
	)
	if store != nil {
		defer store.Close()
		r := comparisonrepo.New(store, time.Duration(cfg.Storage.ResultTTLHours)*time.Hour)
		repo, comparisons, db = r, r, store
	}

	compareSvc := compareuc.New(labs, chain.embedder, repo, opts, logger)
	usageSvc := usageuc.New(chain.budget)
	healthSvc := healthuc.New(db, chain.provider)

	server := chiTransport.NewServer(compareSvc, comparisons, usageSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
	return nil
}
