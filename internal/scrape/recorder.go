package scrape

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Recorder dumps every successful fetch to <dir>/<lab>_<city>.json before
// returning it. Write failures are logged and never fail the fetch.
type Recorder struct {
	inner  Adapter
	dir    string
	lab    string
	logger *zap.Logger
}

// NewRecorder wraps inner.
func NewRecorder(inner Adapter, dir, lab string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{inner: inner, dir: dir, lab: lab, logger: logger}
}

// Fetch implements Adapter.
func (r *Recorder) Fetch(ctx context.Context, city string) ([]Record, error) {
	records, err := r.inner.Fetch(ctx, city)
	if err != nil {
		return nil, err
	}
	if err := r.write(city, records); err != nil {
		r.logger.Warn("Failed to record scrape output", zap.String("lab", r.lab), zap.Error(err))
	}
	return records, nil
}

// Path returns the capture file for city.
func (r *Recorder) Path(city string) string {
	return filepath.Join(r.dir, slug(r.lab)+"_"+slug(city)+".json")
}

func (r *Recorder) write(city string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal records")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", r.dir)
	}
	p := r.Path(city)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", p)
	}
	return nil
}

func slug(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "_"))
}
