package specification

import "gorm.io/gorm"

type ByChatSessionID struct {
	ChatSessionID uint
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByMessageID struct {
	MessageID uint
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}

type ByCommand struct {
	Command string
}

func (s ByCommand) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("command = ?", s.Command)
}
