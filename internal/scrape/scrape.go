// Package scrape fetches raw test listings from lab websites.
package scrape

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// NotAvailable is recorded for a field the page did not provide.
const NotAvailable = "N/A"

// Record is one scraped item: field name → text. Field names vary per lab.
type Record map[string]string

// Adapter produces the records a lab lists for a city.
type Adapter interface {
	Fetch(ctx context.Context, city string) ([]Record, error)
}

// AdapterFunc adapts a function to Adapter.
type AdapterFunc func(ctx context.Context, city string) ([]Record, error)

// Fetch implements Adapter.
func (f AdapterFunc) Fetch(ctx context.Context, city string) ([]Record, error) {
	return f(ctx, city)
}

// expand fills {city} and {page} placeholders. The city is lower-cased and
// path-escaped as lab URLs expect.
func expand(tmpl, city string, page int) string {
	c := url.PathEscape(strings.ToLower(strings.TrimSpace(city)))
	return strings.NewReplacer("{city}", c, "{page}", strconv.Itoa(page)).Replace(tmpl)
}
