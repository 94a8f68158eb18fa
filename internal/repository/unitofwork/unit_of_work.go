package unitofwork

import (
	"context"

	"infra-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	ChatFeedbackRepository() contract.ChatFeedbackRepository
	MemoryRepository() contract.MemoryRepository
	PreferenceRepository() contract.PreferenceRepository
	CommandShortcutRepository() contract.CommandShortcutRepository
}
