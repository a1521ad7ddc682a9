package generate

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/Samandar0813/darsbot/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// CachingGenerator wraps another generator with an LRU cache keyed on the
// prompt triple, so identical requests do not spend API credit twice.
type CachingGenerator struct {
	inner  Generator
	cache  *lru.Cache[string, string]
	logger zerolog.Logger
}

// NewCachingGenerator wraps inner with a cache of the given size.
func NewCachingGenerator(inner Generator, size int, logger zerolog.Logger) (*CachingGenerator, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create generation cache: %w", err)
	}
	return &CachingGenerator{
		inner:  inner,
		cache:  cache,
		logger: logger.With().Str("component", "generation-cache").Logger(),
	}, nil
}

// Generate returns a cached body when the same selections were generated
// before, otherwise delegates and caches the result. Failures are not
// cached.
func (g *CachingGenerator) Generate(ctx context.Context, degree, task, topic string) (string, error) {
	key := cacheKey(degree, task, topic)

	if body, ok := g.cache.Get(key); ok {
		metrics.GenerationCacheHits.Inc()
		g.logger.Debug().Str("task", task).Msg("Generation cache hit")
		return body, nil
	}

	body, err := g.inner.Generate(ctx, degree, task, topic)
	if err != nil {
		return "", err
	}

	g.cache.Add(key, body)
	return body, nil
}

func cacheKey(degree, task, topic string) string {
	h := sha256.New()
	h.Write([]byte(degree))
	h.Write([]byte{0})
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(topic))
	return fmt.Sprintf("%x", h.Sum(nil))
}
