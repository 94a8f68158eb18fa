package dto

import (
	"time"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=120"`
}

type SessionResponse struct {
	Id        uint       `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type ChatMessageResponse struct {
	Id            uint      `json:"id"`
	ChatSessionId uint      `json:"session_id"`
	UserId        string    `json:"user_id,omitempty"`
	Role          string    `json:"role"`
	Chat          string    `json:"chat"`
	Suggestions   []string  `json:"suggestions,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type SendChatRequest struct {
	ChatSessionId uint                   `json:"chat_session_id" validate:"required"`
	Chat          string                 `json:"chat" validate:"required,max=4000"`
	Context       map[string]interface{} `json:"context,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId uint                 `json:"chat_session_id"`
	Sent          *ChatMessageResponse `json:"sent"`
	Reply         *ChatMessageResponse `json:"reply"`
	Chunks        int                  `json:"chunks"`
	Fallback      bool                 `json:"fallback,omitempty"`
}

type FeedbackRequest struct {
	MessageId    uint   `json:"message_id" validate:"required"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	FeedbackText string `json:"feedback_text" validate:"max=2000"`
}

type FeedbackResult struct {
	FeedbackId uint     `json:"feedback_id"`
	Recorded   bool     `json:"recorded"`
	Learned    bool     `json:"learned"`
	Topics     []string `json:"topics,omitempty"`
}

type ReadReceiptRequest struct {
	MessageId uint `json:"message_id" validate:"required"`
}
