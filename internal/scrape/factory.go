package scrape

import (
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Adapter kinds.
const (
	KindHTML = "html"
	KindFile = "file"
)

// Config selects and configures the adapter for one lab.
type Config struct {
	Lab  string
	Kind string
	HTML HTMLConfig
	// Path is the file adapter's path template.
	Path string
	// RecordDir enables the Recorder when set.
	RecordDir string
}

// New builds the adapter for cfg, wrapped in a Recorder when RecordDir is set.
func New(cfg Config, client *http.Client, logger *zap.Logger) (Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("lab", cfg.Lab))

	var (
		a   Adapter
		err error
	)
	switch cfg.Kind {
	case KindHTML, "":
		a, err = NewHTMLAdapter(cfg.HTML, client, logger)
	case KindFile:
		a, err = NewFileAdapter(cfg.Path)
	default:
		return nil, eris.Errorf("lab %q: unknown adapter kind %q", cfg.Lab, cfg.Kind)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "lab %q", cfg.Lab)
	}

	if cfg.RecordDir != "" {
		a = NewRecorder(a, cfg.RecordDir, cfg.Lab, logger)
	}
	return a, nil
}
