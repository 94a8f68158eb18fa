package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/repository/memory"
	"infra-assistant-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportanceScore(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		context map[string]interface{}
		want    float64
	}{
		{"empty", "", nil, 0.5},
		{"length only", strings.Repeat("a", 250), nil, 0.6},
		{"length saturates", strings.Repeat("a", 2000), nil, 0.7},
		{"small context", "", map[string]interface{}{"page_id": "p1"}, 0.54},
		{"identifier key", strings.Repeat("a", 500), map[string]interface{}{"vulnerability_id": "v-1"}, 0.94},
		{"cve value", "", map[string]interface{}{"note": "see cve-2024-3094"}, 0.74},
		{"clamped", strings.Repeat("a", 500), map[string]interface{}{
			"cve_id": "CVE-2024-1", "a": 1, "b": 2, "c": 3, "d": 4,
		}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImportanceScore(tt.text, tt.context)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestExtractKeyInformation(t *testing.T) {
	info := ExtractKeyInformation(
		"Found cve-2024-3094 in the nginx container image",
		map[string]interface{}{"container_name": "web", "page_id": "containers", "resource_id": float64(42)},
	)

	assert.Equal(t, []string{"container", "image", "security"}, info.Topics)
	assert.Equal(t, []string{"CVE-2024-3094", "web"}, info.Entities)
	assert.Equal(t, "containers", info.PageId)
	assert.Equal(t, "42", info.ResourceId)
}

func seedMemory(t *testing.T, store *memory.Store, m *entity.MemoryEntry) *entity.MemoryEntry {
	t.Helper()
	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(t.Context())
	require.NoError(t, uow.MemoryRepository().Create(t.Context(), m))
	return m
}

func TestPruneOldMemories(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(8), testMemoryConfig(3), logger.NewNopLogger())

	base := time.Now().Add(-time.Hour)
	for i, score := range []float64{0.9, 0.2, 0.5, 0.2, 0.8} {
		seedMemory(t, store, &entity.MemoryEntry{
			UserId:          "u1",
			Content:         "memory",
			ImportanceScore: score,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		})
	}
	seedMemory(t, store, &entity.MemoryEntry{UserId: "u2", Content: "other user", ImportanceScore: 0.1})

	deleted, err := svc.PruneOldMemories(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(t.Context())
	left, err := uow.MemoryRepository().FindAllByUser(t.Context(), "u1")
	require.NoError(t, err)
	scores := make([]float64, 0, len(left))
	for _, m := range left {
		scores = append(scores, m.ImportanceScore)
	}
	assert.ElementsMatch(t, []float64{0.9, 0.5, 0.8}, scores)

	count, err := uow.MemoryRepository().CountByUser(t.Context(), "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err = svc.PruneOldMemories(t.Context(), "u1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestPruneOldMemories_TieDropsOldest(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(8), testMemoryConfig(1), logger.NewNopLogger())

	old := seedMemory(t, store, &entity.MemoryEntry{UserId: "u1", Content: "old", ImportanceScore: 0.5, CreatedAt: time.Now().Add(-time.Hour)})
	recent := seedMemory(t, store, &entity.MemoryEntry{UserId: "u1", Content: "new", ImportanceScore: 0.5, CreatedAt: time.Now()})

	_, err := svc.PruneOldMemories(t.Context(), "u1")
	require.NoError(t, err)

	left, err := memory.NewRepositoryFactory(store).NewUnitOfWork(t.Context()).MemoryRepository().FindAllByUser(t.Context(), "u1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, recent.Id, left[0].Id)
	assert.NotEqual(t, old.Id, left[0].Id)
}

func TestAddMemory_KeepsLimit(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(8), testMemoryConfig(4), logger.NewNopLogger())

	for i := 0; i < 7; i++ {
		_, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: strings.Repeat("x", i*50+1)})
		require.NoError(t, err)
	}

	uow := memory.NewRepositoryFactory(store).NewUnitOfWork(t.Context())
	left, err := uow.MemoryRepository().FindAllByUser(t.Context(), "u1")
	require.NoError(t, err)
	require.Len(t, left, 4)
	// longer texts score higher, so the four longest survive
	for _, m := range left {
		assert.Greater(t, len(m.Content), 150)
	}
}

func TestAddMemory_ConcurrentKeepsExactLimit(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(8), testMemoryConfig(5), logger.NewNopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: fmt.Sprintf("container restart %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := memory.NewRepositoryFactory(store).NewUnitOfWork(t.Context()).MemoryRepository().CountByUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestAddMemory(t *testing.T) {
	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)

	t.Run("stores embedding and key info", func(t *testing.T) {
		svc := NewMemoryService(factory, embedding.NewPlaceholderProvider(8), testMemoryConfig(50), logger.NewNopLogger())
		m, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: "How do I restart the docker container?"})
		require.NoError(t, err)
		assert.NotZero(t, m.Id)
		assert.Len(t, m.Embedding, 8)
		assert.Contains(t, m.KeyInfo.Topics, "container")
	})

	t.Run("embedder down stores without vector", func(t *testing.T) {
		svc := NewMemoryService(factory, failingEmbedder{}, testMemoryConfig(50), logger.NewNopLogger())
		m, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: "volume is full"})
		require.NoError(t, err)
		assert.Nil(t, m.Embedding)
		assert.Contains(t, m.KeyInfo.Topics, "volume")
	})

	t.Run("rejects empty content", func(t *testing.T) {
		svc := NewMemoryService(factory, failingEmbedder{}, testMemoryConfig(50), logger.NewNopLogger())
		_, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: "  "})
		assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	})
}

func TestGetRelevantMemories(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(64), testMemoryConfig(50), logger.NewNopLogger())

	for _, text := range []string{
		"the nginx container keeps restarting",
		"backup the postgres volume nightly",
		"open port 8080 on the proxy",
	} {
		_, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: text})
		require.NoError(t, err)
	}
	_, err := svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u2", Content: "backup the postgres volume nightly"})
	require.NoError(t, err)

	scored, err := svc.GetRelevantMemories(t.Context(), "u1", "backup the postgres volume nightly", nil, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, "backup the postgres volume nightly", scored[0].Memory.Content)
	assert.Equal(t, "u1", scored[0].Memory.UserId)
	assert.InDelta(t, 1.0, scored[0].Similarity, 1e-5)
	assert.GreaterOrEqual(t, scored[0].RelevanceScore, scored[1].RelevanceScore)
}

func TestGetRelevantMemories_RecencyFallback(t *testing.T) {
	store := memory.NewStore()
	svc := NewMemoryService(memory.NewRepositoryFactory(store), failingEmbedder{}, testMemoryConfig(50), logger.NewNopLogger())

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"first", "second", "third"} {
		seedMemory(t, store, &entity.MemoryEntry{UserId: "u1", Content: text, ImportanceScore: 0.9, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	scored, err := svc.GetRelevantMemories(t.Context(), "u1", "anything", nil, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "third", scored[0].Memory.Content)
	assert.Equal(t, "second", scored[1].Memory.Content)
	for _, s := range scored {
		assert.Zero(t, s.RelevanceScore)
	}
}

func TestGetRelevantMemories_StorageDown(t *testing.T) {
	store := memory.NewStore()
	store.FailWith = errors.New("connection refused")
	svc := NewMemoryService(memory.NewRepositoryFactory(store), embedding.NewPlaceholderProvider(8), testMemoryConfig(50), logger.NewNopLogger())

	_, err := svc.GetRelevantMemories(t.Context(), "u1", "anything", nil, 3)
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))

	_, err = svc.AddMemory(t.Context(), &dto.AddMemoryRequest{UserId: "u1", Content: "text"})
	assert.True(t, apperror.Is(err, apperror.KindUnavailable))
}
