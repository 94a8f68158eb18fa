package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

// Find methods return (nil, nil) when nothing matches.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*entity.ChatSession, error)
	FindAllByUser(ctx context.Context, userId string) ([]*entity.ChatSession, error)
}
