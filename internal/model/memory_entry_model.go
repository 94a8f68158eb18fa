package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type MemoryEntry struct {
	Id              uint             `gorm:"primaryKey;autoIncrement"`
	UserId          string           `gorm:"type:varchar(255);not null;index"`
	SessionId       *uint            `gorm:"index"`
	MessageId       *uint            `gorm:"index"`
	Content         string           `gorm:"type:text;not null"`
	Embedding       *pgvector.Vector `gorm:"type:vector(768)"` // NULL when no embedding could be generated
	KeyInformation  datatypes.JSON   `gorm:"type:jsonb"`
	ImportanceScore float64          `gorm:"not null;default:0.5;index"`
	CreatedAt       time.Time        `gorm:"autoCreateTime;index"`
}

func (MemoryEntry) TableName() string {
	return "memory_entries"
}
