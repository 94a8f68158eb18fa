package implementation

import (
	"context"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/mapper"
	"infra-assistant-be/internal/model"
	"infra-assistant-be/internal/repository/contract"
	"infra-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type MemoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemoryRepository(db *gorm.DB) contract.MemoryRepository {
	return &MemoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemoryRepositoryImpl) Create(ctx context.Context, memory *entity.MemoryEntry) error {
	m, err := r.mapper.ToModel(memory)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	memory.Id = m.Id
	memory.CreatedAt = m.CreatedAt
	return nil
}

func (r *MemoryRepositoryImpl) FindAllByUser(ctx context.Context, userId string) ([]*entity.MemoryEntry, error) {
	return r.FindRecentByUser(ctx, userId, 0)
}

func (r *MemoryRepositoryImpl) FindRecentByUser(ctx context.Context, userId string, limit int) ([]*entity.MemoryEntry, error) {
	var models []*model.MemoryEntry
	query := applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Limit{N: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MemoryRepositoryImpl) CountByUser(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.MemoryEntry{}),
		specification.UserOwnedBy{UserID: userId},
	).Count(&count).Error
	return count, err
}

func (r *MemoryRepositoryImpl) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return applySpecifications(r.db.WithContext(ctx), specification.ByIDs{IDs: ids}).
		Delete(&model.MemoryEntry{}).Error
}
