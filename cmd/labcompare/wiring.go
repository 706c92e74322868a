package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/config"
	dbRedis "github.com/kailas-cloud/labcompare/internal/db/redis"
	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/match"
	budgetrepo "github.com/kailas-cloud/labcompare/internal/repository/budget"
	"github.com/kailas-cloud/labcompare/internal/scrape"
	openaiEmb "github.com/kailas-cloud/labcompare/internal/transport/openai"
	compareuc "github.com/kailas-cloud/labcompare/internal/usecase/compare"
	embeddinguc "github.com/kailas-cloud/labcompare/internal/usecase/embedding"
)

// openStore connects to the configured store. It returns nil when none is configured.
func openStore(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (*dbRedis.Store, error) {
	if !c.Enabled() {
		log.Info("No database configured, comparisons will not be stored")
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: c.Addrs, Password: c.Password})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(c.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	log.Info("Connected to database", zap.Strings("addrs", c.Addrs))
	return store, nil
}

// embedderChain holds the process-wide embedding stack.
type embedderChain struct {
	provider *openaiEmb.Embedder
	budget   *embeddinguc.BudgetTracker
	embedder domain.Embedder
}

// buildEmbedder assembles provider -> instrumented (budget, chunking) -> instruction.
// Per-run caching is layered on top inside the comparison service.
func buildEmbedder(ctx context.Context, c config.EmbeddingConfig, store *dbRedis.Store, log *zap.Logger) embedderChain {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Model:      c.Model,
		Dimensions: c.Dimensions,
		Provider:   c.Provider,
		Logger:     log,
	})

	action := embeddinguc.BudgetActionWarn
	if c.Budget.Action == string(embeddinguc.BudgetActionReject) {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(
		c.Provider, c.Budget.DailyTokenLimit, c.Budget.MonthlyTokenLimit, action, log,
	)
	if store != nil {
		budget.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}

	var e domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
		base, c.Provider, c.Model, budget, log, embeddinguc.WithChunkSize(c.ChunkSize),
	)
	if c.Instruction != "" {
		e = domain.NewInstructionEmbedder(e, c.Instruction)
	}
	return embedderChain{provider: base, budget: budget, embedder: e}
}

// buildLabs creates one scrape adapter per configured lab, in config order.
func buildLabs(c config.Config, log *zap.Logger) ([]compareuc.LabSource, error) {
	client := &http.Client{Timeout: time.Duration(c.Scrape.TimeoutSec) * time.Second}

	labs := make([]compareuc.LabSource, 0, len(c.Labs))
	for _, l := range c.Labs {
		a, err := scrape.New(scrape.Config{
			Lab:  l.Name,
			Kind: l.Kind,
			HTML: scrape.HTMLConfig{
				URL:           l.URL,
				PageURL:       l.PageURL,
				Pages:         l.Pages,
				Item:          l.Item,
				Fields:        l.Selectors,
				MaxItems:      l.MaxItems,
				UserAgent:     c.Scrape.UserAgent,
				RatePerSecond: c.Scrape.RatePerSecond,
			},
			Path:      l.Path,
			RecordDir: c.Scrape.OutputDir,
		}, client, log)
		if err != nil {
			return nil, fmt.Errorf("build lab adapter: %w", err)
		}
		labs = append(labs, compareuc.LabSource{
			ID:         domain.LabID(l.Name),
			Adapter:    a,
			NameField:  l.Fields.Name,
			PriceField: l.Fields.Price,
		})
	}
	return labs, nil
}

// buildOptions maps matching config onto comparison options.
func buildOptions(c config.MatchingConfig) (compareuc.Options, error) {
	m, err := match.ByName(c.Strategy)
	if err != nil {
		return compareuc.Options{}, err
	}
	tests := make([]domain.CanonicalTest, 0, len(c.CanonicalTests))
	for _, t := range c.CanonicalTests {
		if t = strings.TrimSpace(t); t != "" {
			tests = append(tests, domain.CanonicalTest(t))
		}
	}
	requireAll := true
	if c.RequireAllLabs != nil {
		requireAll = *c.RequireAllLabs
	}
	return compareuc.Options{
		CrossLabThreshold:  c.CrossLabThreshold,
		CanonicalThreshold: c.CanonicalThreshold,
		Matcher:            m,
		CanonicalTests:     tests,
		RequireAllLabs:     requireAll,
	}, nil
}
