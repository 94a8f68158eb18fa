package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider memoizes vectors in Redis keyed by a hash of the input.
// Redis failures never fail a Generate call; they only skip the cache.
type CachedProvider struct {
	inner     EmbeddingProvider
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewCachedProvider wraps inner. A nil client disables caching.
func NewCachedProvider(inner EmbeddingProvider, client *redis.Client, namespace string, ttl time.Duration) EmbeddingProvider {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner:     inner,
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (p *CachedProvider) cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s:%s", p.namespace, taskType, hex.EncodeToString(sum[:]))
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := p.cacheKey(text, taskType)

	// 1. Cache lookup
	data, err := p.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached []float32
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil && len(cached) > 0 {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// 2. Miss: ask the real provider
	vec, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	// 3. Backfill, best effort
	if payload, err := json.Marshal(vec); err == nil {
		p.client.Set(ctx, key, payload, p.ttl)
	}
	return vec, nil
}
