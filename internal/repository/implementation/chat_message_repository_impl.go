package implementation

import (
	"context"
	"errors"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/mapper"
	"infra-assistant-be/internal/model"
	"infra-assistant-be/internal/repository/contract"
	"infra-assistant-be/internal/repository/scope"
	"infra-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.ChatMessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ChatMessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) FindByID(ctx context.Context, id uint) (*entity.ChatMessage, error) {
	var m model.ChatMessage
	if err := applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id}).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatMessageToEntity(&m), nil
}

func (r *ChatMessageRepositoryImpl) FindBySession(ctx context.Context, sessionId uint, limit int) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage

	if limit > 0 {
		// newest N, then flipped back to chronological order
		query := applySpecifications(r.db.WithContext(ctx),
			specification.ByChatSessionID{ChatSessionID: sessionId},
			specification.OrderBy{Field: "id", Desc: true},
			specification.Limit{N: limit},
		)
		if err := query.Find(&models).Error; err != nil {
			return nil, err
		}
		for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
			models[i], models[j] = models[j], models[i]
		}
		return r.mapper.ChatMessagesToEntities(models), nil
	}

	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByChatSessionID{ChatSessionID: sessionId},
	).Scopes(scope.Chronological)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ChatMessagesToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) DeleteBySession(ctx context.Context, sessionId uint) error {
	return applySpecifications(r.db.WithContext(ctx), specification.ByChatSessionID{ChatSessionID: sessionId}).
		Delete(&model.ChatMessage{}).Error
}
