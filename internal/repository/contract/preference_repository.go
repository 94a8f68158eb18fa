package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

type PreferenceRepository interface {
	FindByUser(ctx context.Context, userId string) (*entity.UserPreference, error)
	// FindByUserForUpdate locks the row until the surrounding transaction ends.
	FindByUserForUpdate(ctx context.Context, userId string) (*entity.UserPreference, error)
	// Upsert inserts or replaces the record keyed by UserId.
	Upsert(ctx context.Context, preference *entity.UserPreference) error
}
