package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

type MemoryRepository interface {
	Create(ctx context.Context, memory *entity.MemoryEntry) error
	// FindAllByUser returns the user's memories, newest first.
	FindAllByUser(ctx context.Context, userId string) ([]*entity.MemoryEntry, error)
	FindRecentByUser(ctx context.Context, userId string, limit int) ([]*entity.MemoryEntry, error)
	CountByUser(ctx context.Context, userId string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
}
