package entity

import "time"

// CommandShortcut is unique per (UserId, Command).
type CommandShortcut struct {
	Id          uint
	UserId      string
	Command     string
	Description string
	Template    string
	UsageCount  int
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}
