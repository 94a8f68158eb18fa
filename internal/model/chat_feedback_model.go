package model

import "time"

// ChatFeedback has no foreign key on MessageId: feedback is kept even when
// the rated message no longer exists.
type ChatFeedback struct {
	Id           uint      `gorm:"primaryKey;autoIncrement"`
	MessageId    uint      `gorm:"not null;index"`
	UserId       string    `gorm:"type:varchar(255);not null;index"`
	Rating       int       `gorm:"type:smallint;not null;check:rating >= 1 AND rating <= 5"`
	FeedbackText string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (ChatFeedback) TableName() string {
	return "chat_feedback"
}
