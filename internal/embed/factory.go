package embed

import (
	"log/slog"
)

// New creates the configured embedder. A missing API key selects the static
// embedder so the service stays usable without provider credentials.
// The result is wrapped with an LRU cache unless cacheSize is negative.
func New(cfg CohereConfig, cacheSize int, logger *slog.Logger) (Embedder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var embedder Embedder
	if cfg.APIKey == "" {
		logger.Warn("no embedding API key configured, using static embedder",
			slog.Int("dimensions", StaticDimensions))
		embedder = NewStaticEmbedder()
	} else {
		cohere, err := NewCohereEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using remote embedding provider",
			slog.String("model", cohere.ModelName()),
			slog.String("url", cfg.URL))
		embedder = cohere
	}

	if cacheSize >= 0 {
		embedder = NewCachedEmbedder(embedder, cacheSize)
	}
	return embedder, nil
}
