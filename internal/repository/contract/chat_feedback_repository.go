package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

type ChatFeedbackRepository interface {
	Create(ctx context.Context, feedback *entity.ChatFeedback) error
	FindByMessage(ctx context.Context, messageId uint) ([]*entity.ChatFeedback, error)
	FindByUser(ctx context.Context, userId string) ([]*entity.ChatFeedback, error)
}
