package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEMORY_LIMIT", "")
	t.Setenv("CHUNK_DELAY_MS", "")

	cfg := Load()

	assert.Equal(t, 50, cfg.Memory.Limit)
	assert.InDelta(t, 0.7, cfg.Memory.SimilarityWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Memory.ImportanceWeight, 1e-9)
	assert.Equal(t, 50*time.Millisecond, cfg.Realtime.ChunkDelay)
	assert.Equal(t, 50, cfg.Realtime.MaxChunkSize)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MEMORY_LIMIT", "10")
	t.Setenv("MEMORY_SIMILARITY_WEIGHT", "0.5")
	t.Setenv("CHUNK_DELAY_MS", "0")
	t.Setenv("EMBEDDING_CACHE_TTL", "90m")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 10, cfg.Memory.Limit)
	assert.InDelta(t, 0.5, cfg.Memory.SimilarityWeight, 1e-9)
	assert.Equal(t, time.Duration(0), cfg.Realtime.ChunkDelay)
	assert.Equal(t, 90*time.Minute, cfg.Redis.EmbeddingCacheTTL)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	assert.True(t, getEnvAsBool("OTEL_ENABLED", false))

	t.Setenv("OTEL_ENABLED", "maybe")
	assert.False(t, getEnvAsBool("OTEL_ENABLED", false))
}
