package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/domain/canonical"
	"github.com/kailas-cloud/labcompare/internal/domain/match"
	"github.com/kailas-cloud/labcompare/internal/domain/pricing"
	"github.com/kailas-cloud/labcompare/internal/domain/testname"
	"github.com/kailas-cloud/labcompare/internal/metrics"
	"github.com/kailas-cloud/labcompare/internal/repository/embcache"
	"github.com/kailas-cloud/labcompare/internal/scrape"
)

// Service runs comparisons: scrape every requested lab concurrently, align
// their vocabularies through embeddings, resolve canonical tests and pick the
// cheapest lab per test.
type Service struct {
	labs     []LabSource
	embedder domain.Embedder
	repo     Repository
	opts     Options
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a comparison service. repo may be nil to skip persistence.
func New(labs []LabSource, embedder domain.Embedder, repo Repository, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		labs:     labs,
		embedder: embedder,
		repo:     repo,
		opts:     opts.withDefaults(),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Labs returns the configured labs in run order.
func (s *Service) Labs() []domain.LabID {
	ids := make([]domain.LabID, len(s.labs))
	for i, l := range s.labs {
		ids[i] = l.ID
	}
	return ids
}

// CanonicalTests returns the taxonomy this service reports on.
func (s *Service) CanonicalTests() []domain.CanonicalTest {
	return s.opts.CanonicalTests
}

// labData is one lab's deduplicated, normalized catalog.
type labData struct {
	id     domain.LabID
	names  []string          // normalized, first occurrence order
	prices map[string]string // normalized name → raw price text
	vecs   [][]float32
}

// Run compares the requested competitors in city. Competitors are matched to
// configured labs case-insensitively; the run keeps the configured lab order.
func (s *Service) Run(ctx context.Context, city string, competitors []string) (*domain.Comparison, error) {
	start := time.Now()
	c, err := s.run(ctx, city, competitors)
	metrics.ComparisonRunDuration.Observe(time.Since(start).Seconds())
	metrics.ComparisonRunsTotal.WithLabelValues(outcome(err)).Inc()
	return c, err
}

func (s *Service) run(ctx context.Context, city string, competitors []string) (*domain.Comparison, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: location name cannot be empty", domain.ErrInvalidInput)
	}
	sources, err := s.selectLabs(competitors)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("city", city))

	entries, err := s.scrapeAll(ctx, city, sources)
	if err != nil {
		return nil, err
	}

	labs := make([]domain.LabID, len(sources))
	var active []*labData
	for i, src := range sources {
		labs[i] = src.ID
		metrics.ScrapedEntriesTotal.WithLabelValues(string(src.ID)).Add(float64(len(entries[i])))
		log.Info("Lab entries loaded", zap.String("lab", string(src.ID)), zap.Int("entries", len(entries[i])))

		if len(entries[i]) == 0 {
			if s.opts.RequireAllLabs {
				return nil, fmt.Errorf("%w: no entries from %s", domain.ErrInsufficientData, src.ID)
			}
			continue
		}
		active = append(active, normalize(src.ID, entries[i]))
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: no lab returned entries", domain.ErrInsufficientData)
	}

	// One cache per run: repeated names across labs are embedded once.
	emb := embcache.New(s.embedder, embcache.NewMemoryStore(), metrics.EmbeddingCacheTotal, s.logger)

	if err := embedLabs(ctx, emb, active); err != nil {
		return nil, err
	}

	pivot := active[0]
	pairs := make([]map[string]string, len(active))
	for i, ld := range active[1:] {
		edges := s.opts.Matcher.Match(pivot.names, pivot.vecs, ld.names, ld.vecs, s.opts.CrossLabThreshold)
		pairs[i+1] = match.Pairs(edges)
		metrics.MatchedNamesTotal.WithLabelValues(string(pivot.id), string(ld.id)).Add(float64(len(edges)))
		log.Debug("Labs aligned",
			zap.String("source", string(pivot.id)),
			zap.String("target", string(ld.id)),
			zap.Int("edges", len(edges)))
	}

	common := commonNames(pivot, pairs)
	if len(common) == 0 {
		return nil, fmt.Errorf("%w: no test names matched across all labs in %s", domain.ErrNoData, city)
	}

	labels := canonical.Labels(s.opts.CanonicalTests)
	res, err := domain.EmbedBatch(ctx, emb, append(append([]string{}, labels...), common...))
	if err != nil {
		return nil, fmt.Errorf("embed canonical labels: %w", err)
	}
	if len(res.Embeddings) != len(labels)+len(common) {
		return nil, fmt.Errorf("embed canonical labels: %w: got %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(labels)+len(common))
	}
	resolved := canonical.Resolve(s.opts.CanonicalTests, res.Embeddings[:len(labels)], common, res.Embeddings[len(labels):],
		s.opts.CanonicalThreshold)

	prices := domain.PriceTable{}
	for _, r := range resolved {
		for i, ld := range active {
			name := r.Name
			if i > 0 {
				name = pairs[i][r.Name]
			}
			text := ld.prices[name]
			p, ok := pricing.ParsePrice(text)
			if !ok {
				log.Warn("Unparsable price",
					zap.String("lab", string(ld.id)),
					zap.String("test", string(r.Test)),
					zap.String("name", name),
					zap.String("price", text))
				continue
			}
			prices.Set(r.Test, ld.id, p)
		}
	}

	recs := pricing.Reconcile(s.opts.CanonicalTests, labs, prices)
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no canonical test priced in %s", domain.ErrNoData, city)
	}

	c := &domain.Comparison{
		RunID:           s.newID(),
		City:            city,
		Labs:            labs,
		Prices:          prices,
		Recommendations: recs,
		CreatedAt:       s.now(),
	}
	log.Info("Comparison completed",
		zap.String("run_id", c.RunID),
		zap.Int("common_names", len(common)),
		zap.Int("tests", len(recs)))

	if s.repo != nil {
		if err := s.repo.Save(ctx, c); err != nil {
			log.Warn("Failed to store comparison", zap.Error(err))
		}
	}
	return c, nil
}

// selectLabs filters the configured labs to the requested competitors.
func (s *Service) selectLabs(competitors []string) ([]LabSource, error) {
	if len(competitors) == 0 {
		return nil, fmt.Errorf("%w: competitors list cannot be empty", domain.ErrInvalidInput)
	}
	want := make(map[string]bool, len(competitors))
	for _, c := range competitors {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			return nil, fmt.Errorf("%w: empty competitor name", domain.ErrInvalidInput)
		}
		want[key] = true
	}

	var out []LabSource
	for _, l := range s.labs {
		key := strings.ToLower(string(l.ID))
		if want[key] {
			out = append(out, l)
			delete(want, key)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for _, c := range competitors {
			if want[strings.ToLower(strings.TrimSpace(c))] {
				unknown = append(unknown, strings.TrimSpace(c))
			}
		}
		return nil, fmt.Errorf("%w: unknown competitors: %s", domain.ErrInvalidInput, strings.Join(unknown, ", "))
	}
	return out, nil
}

// scrapeAll fetches every lab concurrently. Adapter failures degrade to an
// empty slot; only cancellation fails the call.
func (s *Service) scrapeAll(ctx context.Context, city string, sources []LabSource) ([][]domain.RawTestEntry, error) {
	out := make([][]domain.RawTestEntry, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			records, err := src.Adapter.Fetch(gctx, city)
			if err != nil {
				s.logger.Warn("Lab scrape failed",
					zap.String("lab", string(src.ID)),
					zap.String("city", city),
					zap.Error(err))
				return nil
			}
			out[i] = ingest(src, records)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	return out, nil
}

// ingest maps lab-specific record fields into RawTestEntry values.
func ingest(src LabSource, records []scrape.Record) []domain.RawTestEntry {
	nameField, priceField := src.NameField, src.PriceField
	if nameField == "" {
		nameField = "name"
	}
	if priceField == "" {
		priceField = "price"
	}

	entries := make([]domain.RawTestEntry, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r[nameField])
		if name == "" || strings.EqualFold(name, scrape.NotAvailable) {
			continue
		}
		entries = append(entries, domain.RawTestEntry{
			Lab:          src.ID,
			RawName:      name,
			RawPriceText: strings.TrimSpace(r[priceField]),
		})
	}
	return entries
}

// normalize keeps the first entry per normalized name.
func normalize(id domain.LabID, entries []domain.RawTestEntry) *labData {
	ld := &labData{id: id, prices: make(map[string]string, len(entries))}
	for _, e := range entries {
		n := testname.Normalize(e.RawName)
		if n == "" {
			continue
		}
		if _, dup := ld.prices[n]; dup {
			continue
		}
		ld.names = append(ld.names, n)
		ld.prices[n] = e.RawPriceText
	}
	return ld
}

// embedLabs embeds every lab's names in one batch and slices the vectors back.
func embedLabs(ctx context.Context, e domain.Embedder, labs []*labData) error {
	var texts []string
	for _, ld := range labs {
		texts = append(texts, ld.names...)
	}
	res, err := domain.EmbedBatch(ctx, e, texts)
	if err != nil {
		return fmt.Errorf("embed lab names: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return fmt.Errorf("embed lab names: %w: got %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(texts))
	}
	off := 0
	for _, ld := range labs {
		ld.vecs = res.Embeddings[off : off+len(ld.names)]
		off += len(ld.names)
	}
	return nil
}

// commonNames returns pivot names aligned in every pair, in pivot order.
func commonNames(pivot *labData, pairs []map[string]string) []string {
	var names []string
	for _, n := range pivot.names {
		all := true
		for _, p := range pairs[1:] {
			if _, ok := p[n]; !ok {
				all = false
				break
			}
		}
		if all {
			names = append(names, n)
		}
	}
	return names
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, domain.ErrNoData):
		return "no_data"
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "embedding_error"
	default:
		return "error"
	}
}
