package implementation

import (
	"context"
	"errors"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/mapper"
	"infra-assistant-be/internal/model"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/repository/contract"
	"infra-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type CommandShortcutRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PreferenceMapper
}

func NewCommandShortcutRepository(db *gorm.DB) contract.CommandShortcutRepository {
	return &CommandShortcutRepositoryImpl{
		db:     db,
		mapper: mapper.NewPreferenceMapper(),
	}
}

func (r *CommandShortcutRepositoryImpl) Create(ctx context.Context, shortcut *entity.CommandShortcut) error {
	m := r.mapper.ShortcutToModel(shortcut)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyExists("shortcut.create", "shortcut "+shortcut.Command+" already exists")
		}
		return err
	}
	*shortcut = *r.mapper.ShortcutToEntity(m)
	return nil
}

func (r *CommandShortcutRepositoryImpl) Update(ctx context.Context, shortcut *entity.CommandShortcut) error {
	m := r.mapper.ShortcutToModel(shortcut)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*shortcut = *r.mapper.ShortcutToEntity(m)
	return nil
}

func (r *CommandShortcutRepositoryImpl) FindByCommand(ctx context.Context, userId, command string) (*entity.CommandShortcut, error) {
	var m model.CommandShortcut
	query := applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.ByCommand{Command: command},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ShortcutToEntity(&m), nil
}

func (r *CommandShortcutRepositoryImpl) FindAllByUser(ctx context.Context, userId string) ([]*entity.CommandShortcut, error) {
	var models []*model.CommandShortcut
	query := applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "usage_count", Desc: true},
		specification.OrderBy{Field: "command", Desc: false},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CommandShortcut, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ShortcutToEntity(m)
	}
	return entities, nil
}

func (r *CommandShortcutRepositoryImpl) IncrementUsage(ctx context.Context, userId, command string) (*entity.CommandShortcut, error) {
	result := applySpecifications(r.db.WithContext(ctx).Model(&model.CommandShortcut{}),
		specification.UserOwnedBy{UserID: userId},
		specification.ByCommand{Command: command},
	).Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByCommand(ctx, userId, command)
}

func (r *CommandShortcutRepositoryImpl) Delete(ctx context.Context, userId, command string) (bool, error) {
	result := applySpecifications(r.db.WithContext(ctx),
		specification.UserOwnedBy{UserID: userId},
		specification.ByCommand{Command: command},
	).Delete(&model.CommandShortcut{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
