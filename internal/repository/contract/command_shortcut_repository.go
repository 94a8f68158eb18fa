package contract

import (
	"context"

	"infra-assistant-be/internal/entity"
)

type CommandShortcutRepository interface {
	// Create fails with apperror.KindAlreadyExists on a duplicate (user, command).
	Create(ctx context.Context, shortcut *entity.CommandShortcut) error
	Update(ctx context.Context, shortcut *entity.CommandShortcut) error
	FindByCommand(ctx context.Context, userId, command string) (*entity.CommandShortcut, error)
	FindAllByUser(ctx context.Context, userId string) ([]*entity.CommandShortcut, error)
	// IncrementUsage bumps the counter and returns the updated row, or nil when absent.
	IncrementUsage(ctx context.Context, userId, command string) (*entity.CommandShortcut, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, userId, command string) (bool, error)
}
