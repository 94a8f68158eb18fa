package memory

import (
	"errors"
	"testing"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortcutRepository(t *testing.T) {
	uow := NewRepositoryFactory(NewStore()).NewUnitOfWork(t.Context())
	repo := uow.CommandShortcutRepository()

	sc := &entity.CommandShortcut{UserId: "u1", Command: "/restart", Template: "docker restart {name}"}
	require.NoError(t, repo.Create(t.Context(), sc))
	assert.NotZero(t, sc.Id)

	err := repo.Create(t.Context(), &entity.CommandShortcut{UserId: "u1", Command: "/restart", Template: "x"})
	assert.True(t, apperror.Is(err, apperror.KindAlreadyExists))

	// same command for another user is fine
	require.NoError(t, repo.Create(t.Context(), &entity.CommandShortcut{UserId: "u2", Command: "/restart", Template: "x"}))

	used, err := repo.IncrementUsage(t.Context(), "u1", "/restart")
	require.NoError(t, err)
	require.NotNil(t, used)
	assert.Equal(t, 1, used.UsageCount)

	missing, err := repo.IncrementUsage(t.Context(), "u1", "/nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := repo.Delete(t.Context(), "u1", "/restart")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(t.Context(), "u1", "/restart")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryRepository_RecentOrder(t *testing.T) {
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(t.Context()).MemoryRepository()

	for _, content := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(t.Context(), &entity.MemoryEntry{UserId: "u1", Content: content}))
	}
	require.NoError(t, repo.Create(t.Context(), &entity.MemoryEntry{UserId: "u2", Content: "other"}))

	recent, err := repo.FindRecentByUser(t.Context(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "b", recent[1].Content)

	count, err := repo.CountByUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.DeleteByIDs(t.Context(), []uint{recent[0].Id}))
	count, err = repo.CountByUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPreferenceRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepositoryFactory(NewStore()).NewUnitOfWork(t.Context()).PreferenceRepository()

	pref := entity.NewDefaultPreference("u1")
	require.NoError(t, repo.Upsert(t.Context(), pref))

	loaded, err := repo.FindByUser(t.Context(), "u1")
	require.NoError(t, err)
	loaded.Prefer("network")

	again, err := repo.FindByUser(t.Context(), "u1")
	require.NoError(t, err)
	assert.Empty(t, again.PreferredTopics)
	assert.Equal(t, pref.Id, again.Id)
}

func TestStore_FailWith(t *testing.T) {
	store := NewStore()
	store.FailWith = errors.New("connection refused")
	repo := NewRepositoryFactory(store).NewUnitOfWork(t.Context()).ChatSessionRepository()

	err := repo.Create(t.Context(), &entity.ChatSession{UserId: "u1"})
	assert.EqualError(t, err, "connection refused")
}

func TestHistoryRepository_Window(t *testing.T) {
	repo := NewHistoryRepository(2)
	for i := 1; i <= 3; i++ {
		repo.Append(&entity.ChatMessage{Id: uint(i), ChatSessionId: 7})
	}

	history, ok := repo.Get(7)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, uint(2), history[0].Id)
	assert.Equal(t, uint(3), history[1].Id)

	repo.Delete(7)
	_, ok = repo.Get(7)
	assert.False(t, ok)
}
