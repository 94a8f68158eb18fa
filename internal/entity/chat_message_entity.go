package entity

import "time"

type ChatMessage struct {
	Id            uint
	ChatSessionId uint
	UserId        string
	Role          string
	Chat          string
	Suggestions   []string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}
