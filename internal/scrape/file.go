package scrape

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// FileAdapter reads records from a JSON array on disk, e.g. a capture written
// by Recorder. Scalar values are kept as text; nested values are skipped.
type FileAdapter struct {
	path string
}

// NewFileAdapter creates an adapter for a path template with {city}.
func NewFileAdapter(path string) (*FileAdapter, error) {
	if path == "" {
		return nil, eris.New("file adapter: path is required")
	}
	return &FileAdapter{path: path}, nil
}

// Fetch implements Adapter.
func (f *FileAdapter) Fetch(ctx context.Context, city string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "file adapter")
	}

	p := expand(f.path, city, 1)
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, eris.Wrapf(err, "file adapter: read %s", p)
	}
	if !gjson.ValidBytes(raw) {
		return nil, eris.Errorf("file adapter: %s is not valid JSON", p)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, eris.Errorf("file adapter: %s must hold a JSON array", p)
	}

	var records []Record
	doc.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		rec := Record{}
		item.ForEach(func(k, v gjson.Result) bool {
			switch v.Type {
			case gjson.String, gjson.Number, gjson.True, gjson.False:
				rec[k.String()] = v.String()
			}
			return true
		})
		records = append(records, rec)
		return true
	})
	return records, nil
}
