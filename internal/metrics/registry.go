package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "labcompare"

// group registers a set of collectors on the default registry at most once.
type group struct {
	once       sync.Once
	collectors []prometheus.Collector
}

func (g *group) register() {
	g.once.Do(func() {
		prometheus.MustRegister(g.collectors...)
	})
}
