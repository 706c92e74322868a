package scrape

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// HTMLConfig describes how to scrape one lab's listing pages.
type HTMLConfig struct {
	// URL is the first page, with an optional {city} placeholder.
	URL string
	// PageURL is used for pages 2..Pages and may contain {city} and {page}.
	PageURL string
	Pages   int
	// Item selects one node per test; Fields maps record fields to
	// selectors evaluated inside each item.
	Item   string
	Fields map[string]string
	// MaxItems caps items taken from each page; 0 means no cap.
	MaxItems  int
	UserAgent string
	// RatePerSecond throttles page requests; 0 means unthrottled.
	RatePerSecond float64
}

// HTMLAdapter fetches listing pages over HTTP and extracts records.
type HTMLAdapter struct {
	cfg     HTMLConfig
	item    Selector
	fields  map[string]Selector
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewHTMLAdapter validates cfg and builds the adapter. client may be nil.
func NewHTMLAdapter(cfg HTMLConfig, client *http.Client, logger *zap.Logger) (*HTMLAdapter, error) {
	if cfg.URL == "" {
		return nil, eris.New("html adapter: url is required")
	}
	if cfg.Item == "" {
		return nil, eris.New("html adapter: item selector is required")
	}
	if len(cfg.Fields) == 0 {
		return nil, eris.New("html adapter: at least one field selector is required")
	}
	if cfg.Pages > 1 && cfg.PageURL == "" {
		return nil, eris.New("html adapter: page_url is required when pages > 1")
	}
	if cfg.Pages < 1 {
		cfg.Pages = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &HTMLAdapter{
		cfg:    cfg,
		item:   ParseSelector(cfg.Item),
		fields: make(map[string]Selector, len(cfg.Fields)),
		client: client,
		logger: logger,
	}
	for name, sel := range cfg.Fields {
		a.fields[name] = ParseSelector(sel)
	}
	if cfg.RatePerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return a, nil
}

// Fetch scrapes every configured page. A failed page is logged and skipped;
// the call fails only when no page could be fetched.
func (a *HTMLAdapter) Fetch(ctx context.Context, city string) ([]Record, error) {
	var (
		records []Record
		lastErr error
		fetched int
	)

	for page := 1; page <= a.cfg.Pages; page++ {
		u := expand(a.cfg.URL, city, page)
		if page > 1 {
			u = expand(a.cfg.PageURL, city, page)
		}

		recs, err := a.fetchPage(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "html adapter: cancelled")
			}
			a.logger.Warn("Page scrape failed", zap.String("url", u), zap.Error(err))
			lastErr = err
			continue
		}
		fetched++
		records = append(records, recs...)
	}

	if fetched == 0 {
		return nil, eris.Wrapf(lastErr, "html adapter: all %d pages failed", a.cfg.Pages)
	}
	return records, nil
}

func (a *HTMLAdapter) fetchPage(ctx context.Context, u string) ([]Record, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, eris.Wrapf(err, "build request %s", u)
	}
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "GET %s", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, eris.Errorf("GET %s: status %d", u, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", u)
	}
	return a.extract(doc), nil
}

func (a *HTMLAdapter) extract(doc *html.Node) []Record {
	items := a.item.All(doc)
	if a.cfg.MaxItems > 0 && len(items) > a.cfg.MaxItems {
		items = items[:a.cfg.MaxItems]
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		rec := make(Record, len(a.fields))
		for name, sel := range a.fields {
			rec[name] = NotAvailable
			if n := sel.First(item); n != nil {
				if txt := Text(n); txt != "" {
					rec[name] = txt
				}
			}
		}
		records = append(records, rec)
	}
	return records
}
