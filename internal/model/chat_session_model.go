package model

import (
	"time"

	"gorm.io/gorm"
)

type ChatSession struct {
	Id        uint           `gorm:"primaryKey;autoIncrement"`
	UserId    string         `gorm:"type:varchar(255);not null;index"`
	Title     string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
