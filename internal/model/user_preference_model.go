package model

import (
	"time"

	"gorm.io/datatypes"
)

type UserPreference struct {
	Id              uint                        `gorm:"primaryKey;autoIncrement"`
	UserId          string                      `gorm:"type:varchar(255);not null;uniqueIndex"`
	ResponseStyle   string                      `gorm:"type:varchar(20);not null"`
	AutoSuggestions bool                        `gorm:"not null"`
	PreferredTopics datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	AvoidedTopics   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	FeedbackStats   datatypes.JSON              `gorm:"type:jsonb"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}
