package model

import "time"

type CommandShortcut struct {
	Id          uint      `gorm:"primaryKey;autoIncrement"`
	UserId      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_shortcut_user_command"`
	Command     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_shortcut_user_command"`
	Description string    `gorm:"type:text"`
	Template    string    `gorm:"type:text;not null"`
	UsageCount  int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (CommandShortcut) TableName() string {
	return "command_shortcuts"
}
