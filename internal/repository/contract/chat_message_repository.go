package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindByID(ctx context.Context, id uint) (*entity.ChatMessage, error)
	// FindBySession returns messages oldest first; limit <= 0 means all.
	FindBySession(ctx context.Context, sessionId uint, limit int) ([]*entity.ChatMessage, error)
	DeleteBySession(ctx context.Context, sessionId uint) error
}
