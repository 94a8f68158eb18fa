package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uint                        `gorm:"primaryKey;autoIncrement"`
	ChatSessionId uint                        `gorm:"not null;index"`
	UserId        string                      `gorm:"type:varchar(255);index"`
	Role          string                      `gorm:"type:varchar(20);not null"`
	Chat          string                      `gorm:"type:text;not null"`
	Suggestions   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt              `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
