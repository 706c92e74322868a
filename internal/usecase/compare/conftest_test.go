package compare

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/labcompare/internal/domain"
	"github.com/kailas-cloud/labcompare/internal/scrape"
)

const dims = 64

// concepts maps keywords to a shared axis so that differently worded names of
// the same test embed identically.
var concepts = [][]string{
	{"cbc", "hemoglobin", "blood count"},
	{"glucose", "blood sugar"},
	{"tsh", "thyroid"},
	{"uric"},
	{"sgpt", "alanine"},
}

// conceptEmbedder embeds known tests on their concept axis and every other
// text on an axis of its own.
type conceptEmbedder struct {
	mu      sync.Mutex
	other   map[string]int
	calls   [][]string
	err     error
	errCall int // fail on this call number (1-based); 0 fails every call when err is set
}

func newConceptEmbedder() *conceptEmbedder {
	return &conceptEmbedder{other: make(map[string]int)}
}

func (e *conceptEmbedder) vector(text string) []float32 {
	v := make([]float32, dims)
	lower := strings.ToLower(text)
	for axis, kws := range concepts {
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				v[axis] = 1
				return v
			}
		}
	}
	axis, ok := e.other[lower]
	if !ok {
		axis = len(concepts) + len(e.other)%(dims-len(concepts))
		e.other[lower] = axis
	}
	v[axis] = 1
	return v
}

func (e *conceptEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0], TotalTokens: res.TotalTokens}, nil
}

func (e *conceptEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, append([]string(nil), texts...))
	if e.err != nil && (e.errCall == 0 || e.errCall == len(e.calls)) {
		return domain.BatchEmbeddingResult{}, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

type memRepo struct {
	saved []*domain.Comparison
	err   error
}

func (r *memRepo) Save(_ context.Context, c *domain.Comparison) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, c)
	return nil
}

func records(field, priceField string, kv ...string) scrape.Adapter {
	recs := make([]scrape.Record, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		recs = append(recs, scrape.Record{field: kv[i], priceField: kv[i+1]})
	}
	return scrape.AdapterFunc(func(ctx context.Context, _ string) ([]scrape.Record, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return recs, nil
	})
}

func failing(err error) scrape.Adapter {
	return scrape.AdapterFunc(func(context.Context, string) ([]scrape.Record, error) {
		return nil, err
	})
}

const (
	lal   domain.LabID = "Lal PathLabs"
	metro domain.LabID = "Metropolis Labs"
	srl   domain.LabID = "SRL Diagnostics"
)

var allLabs = []string{string(lal), string(metro), string(srl)}

// catalogs returns the three lab catalogs with the given CBC prices.
func catalogs(lalCBC, metroCBC, srlCBC string) []LabSource {
	return []LabSource{
		{
			ID: lal, NameField: "test_name", PriceField: "price",
			Adapter: records("test_name", "price",
				"COMPLETE BLOOD COUNT; CBC", lalCBC,
				"GLUCOSE, FASTING (F) AND POST MEAL (PP), 2 HOURS", "150",
				"TSH (THYROID STIMULATING HORMONE), ULTRASENSITIVE", "400",
				"URIC ACID, SERUM", "250",
				"SGPT; ALANINE AMINOTRANSFERASE (ALT)", "300",
				"LIPID PROFILE", "700",
			),
		},
		{
			ID: metro, NameField: "name", PriceField: "price",
			Adapter: records("name", "price",
				"CBC Test (Complete Blood Count)", metroCBC,
				"Fasting Blood Sugar (FBS) Test", "Rs. 120",
				"TSH (Ultrasensitive)/ TSH-U Test", "Rs. 450",
				"Uric Acid Test, Serum", "Rs. 200",
				"SGPT Test / Alanine Aminotransferase (ALT)", "Rs. 350",
				"N/A", "Rs. 10",
			),
		},
		{
			ID: srl, NameField: "test", PriceField: "price",
			Adapter: records("test", "price",
				"HEMOGLOBIN", srlCBC,
				"FASTING BLOOD SUGAR(GLUCOSE)", "₹130",
				"THYROID STIMULATING HORMONE (TSH)", "₹380",
				"URIC ACID", "₹220",
				"ALANINE TRANSAMINASE (SGPT)", "₹310",
			),
		},
	}
}

func newTestService(labs []LabSource, emb domain.Embedder, repo Repository, opts Options) *Service {
	s := New(labs, emb, repo, opts, nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	s.newID = func() string { return "run-1" }
	return s
}
