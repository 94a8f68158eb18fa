package entity

import "time"

// ChatFeedback is immutable once stored.
type ChatFeedback struct {
	Id           uint
	MessageId    uint
	UserId       string
	Rating       int
	FeedbackText string
	CreatedAt    time.Time
}
