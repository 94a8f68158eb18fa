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

type ChatFeedbackRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatFeedbackRepository(db *gorm.DB) contract.ChatFeedbackRepository {
	return &ChatFeedbackRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatFeedbackRepositoryImpl) Create(ctx context.Context, feedback *entity.ChatFeedback) error {
	m := r.mapper.ChatFeedbackToModel(feedback)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*feedback = *r.mapper.ChatFeedbackToEntity(m)
	return nil
}

func (r *ChatFeedbackRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatFeedback, error) {
	var models []*model.ChatFeedback
	specs = append(specs, specification.OrderBy{Field: "created_at", Desc: false})
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatFeedback, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatFeedbackToEntity(m)
	}
	return entities, nil
}

func (r *ChatFeedbackRepositoryImpl) FindByMessage(ctx context.Context, messageId uint) ([]*entity.ChatFeedback, error) {
	return r.find(ctx, specification.ByMessageID{MessageID: messageId})
}

func (r *ChatFeedbackRepositoryImpl) FindByUser(ctx context.Context, userId string) ([]*entity.ChatFeedback, error) {
	return r.find(ctx, specification.UserOwnedBy{UserID: userId})
}
