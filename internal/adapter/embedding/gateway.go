package embedding

import (
	"fmt"
	"sync/atomic"

	"typeindex/internal/adapter/cache"
	"typeindex/internal/domain"
	"typeindex/internal/logging"
	"typeindex/internal/port"
)

// Gateway fronts an EmbeddingProvider. It refuses to embed until Initialize
// has succeeded and collapses every provider failure into ErrEmbeddingProvider.
type Gateway struct {
	provider port.EmbeddingProvider
	cache    *cache.EmbeddingCache
	logger   *logging.Logger
	ready    atomic.Bool
}

// NewGateway wires a provider. cache may be nil.
func NewGateway(provider port.EmbeddingProvider, c *cache.EmbeddingCache, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Gateway{provider: provider, cache: c, logger: logger}
}

// Initialize marks the provider usable. It fails when no credentials are present.
func (g *Gateway) Initialize() error {
	if g.cache != nil {
		g.cache.Invalidate()
	}
	if !g.provider.IsConnected() {
		g.ready.Store(false)
		return fmt.Errorf("%w: credentials not available", domain.ErrEmbeddingUnavailable)
	}
	g.ready.Store(true)
	g.logger.Info("embedding provider initialized (model %s)", g.provider.ModelName())
	return nil
}

// Reset drops the initialized state, e.g. after credentials are disconnected.
func (g *Gateway) Reset() {
	g.ready.Store(false)
	if g.cache != nil {
		g.cache.Invalidate()
	}
}

// Ready reports whether Embed would reach the provider.
func (g *Gateway) Ready() bool {
	return g.ready.Load() && g.provider.IsConnected()
}

func (g *Gateway) ModelID() string {
	return g.provider.ModelName()
}

func (g *Gateway) Dimension() int {
	return g.provider.Dimension()
}

func (g *Gateway) Embed(text string) ([]float32, error) {
	if !g.Ready() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	model := g.provider.ModelName()
	if g.cache != nil {
		if vec, ok := g.cache.Get(model, text); ok {
			return vec, nil
		}
	}

	vec, err := g.provider.Embed(text)
	if err != nil {
		g.logger.Error("embedding request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingProvider, err)
	}

	if g.cache != nil {
		g.cache.Put(model, text, vec)
	}
	return vec, nil
}

// EmbedBatch embeds texts one by one. The first failure fails the whole batch.
func (g *Gateway) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := g.Embed(text)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}
