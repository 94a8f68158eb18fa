package implementation

import (
	"context"
	"errors"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/mapper"
	"infra-assistant-be/internal/model"
	"infra-assistant-be/internal/repository/contract"
	"infra-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PreferenceMapper
}

func NewPreferenceRepository(db *gorm.DB) contract.PreferenceRepository {
	return &PreferenceRepositoryImpl{
		db:     db,
		mapper: mapper.NewPreferenceMapper(),
	}
}

func (r *PreferenceRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.UserPreference, error) {
	var m model.UserPreference
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PreferenceRepositoryImpl) FindByUser(ctx context.Context, userId string) (*entity.UserPreference, error) {
	return r.findOne(ctx, specification.UserOwnedBy{UserID: userId})
}

func (r *PreferenceRepositoryImpl) FindByUserForUpdate(ctx context.Context, userId string) (*entity.UserPreference, error) {
	return r.findOne(ctx, specification.UserOwnedBy{UserID: userId}, specification.ForUpdate{})
}

func (r *PreferenceRepositoryImpl) Upsert(ctx context.Context, preference *entity.UserPreference) error {
	m, err := r.mapper.ToModel(preference)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"response_style",
			"auto_suggestions",
			"preferred_topics",
			"avoided_topics",
			"feedback_stats",
			"updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	saved, err := r.FindByUser(ctx, preference.UserId)
	if err != nil {
		return err
	}
	if saved != nil {
		*preference = *saved
	}
	return nil
}
