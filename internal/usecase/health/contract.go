package health

import "context"

// DBPinger checks the result store.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks the embedding provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
