package mapper

import (
	"time"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/model"

	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func toDeletedAt(deletedAt *time.Time, isDeleted bool) gorm.DeletedAt {
	if deletedAt != nil {
		return gorm.DeletedAt{Time: *deletedAt, Valid: true}
	}
	if isDeleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}

func fromDeletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func valueTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: optionalTime(s.UpdatedAt),
		DeletedAt: fromDeletedAt(s.DeletedAt),
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: valueTime(s.UpdatedAt),
		DeletedAt: toDeletedAt(s.DeletedAt, s.IsDeleted),
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	suggestions := []string(msg.Suggestions)
	if suggestions == nil {
		suggestions = []string{}
	}
	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		UserId:        msg.UserId,
		Role:          msg.Role,
		Chat:          msg.Chat,
		Suggestions:   suggestions,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     optionalTime(msg.UpdatedAt),
		DeletedAt:     fromDeletedAt(msg.DeletedAt),
		IsDeleted:     msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		UserId:        msg.UserId,
		Role:          msg.Role,
		Chat:          msg.Chat,
		Suggestions:   msg.Suggestions,
		CreatedAt:     msg.CreatedAt,
		UpdatedAt:     valueTime(msg.UpdatedAt),
		DeletedAt:     toDeletedAt(msg.DeletedAt, msg.IsDeleted),
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, msg := range models {
		entities[i] = m.ChatMessageToEntity(msg)
	}
	return entities
}

// Feedback Mappers

func (m *ChatMapper) ChatFeedbackToEntity(f *model.ChatFeedback) *entity.ChatFeedback {
	if f == nil {
		return nil
	}
	return &entity.ChatFeedback{
		Id:           f.Id,
		MessageId:    f.MessageId,
		UserId:       f.UserId,
		Rating:       f.Rating,
		FeedbackText: f.FeedbackText,
		CreatedAt:    f.CreatedAt,
	}
}

func (m *ChatMapper) ChatFeedbackToModel(f *entity.ChatFeedback) *model.ChatFeedback {
	if f == nil {
		return nil
	}
	return &model.ChatFeedback{
		Id:           f.Id,
		MessageId:    f.MessageId,
		UserId:       f.UserId,
		Rating:       f.Rating,
		FeedbackText: f.FeedbackText,
		CreatedAt:    f.CreatedAt,
	}
}
