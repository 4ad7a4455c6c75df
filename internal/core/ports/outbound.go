package ports

import (
	"context"
	"time"

	"github.com/kirillkom/jobmatch/internal/core/domain"
)

// CorpusRepository loads the full posting corpus with its relations.
type CorpusRepository interface {
	LoadCorpus(ctx context.Context) (*domain.Corpus, error)
}

// Embedder builds vectors for posting texts and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ArtifactStore persists encoded corpus vectors keyed by corpus version.
type ArtifactStore interface {
	SaveVectors(ctx context.Context, version string, vectors [][]float32) error
	LoadVectors(ctx context.Context, version string) ([][]float32, error)
}

// MessageQueue publishes/consumes corpus rebuild events.
type MessageQueue interface {
	PublishCorpusRebuilt(ctx context.Context, version string) error
	SubscribeCorpusRebuilt(ctx context.Context, handler func(context.Context, string) error) error
}

// ResultCache caches finished search responses keyed by request fingerprint.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.SearchResult, bool, error)
	Set(ctx context.Context, key string, result *domain.SearchResult, ttl time.Duration) error
}
