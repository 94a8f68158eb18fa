package dto

import "time"

type AddMemoryRequest struct {
	UserId    string
	Content   string
	SessionId *uint
	MessageId *uint
	Context   map[string]interface{}
}

type MemorySearchRequest struct {
	Query   string                 `json:"query" validate:"required"`
	Limit   int                    `json:"limit" validate:"omitempty,min=1,max=50"`
	Context map[string]interface{} `json:"context,omitempty"`
}

type ScoredMemoryResponse struct {
	Id              uint      `json:"id"`
	Content         string    `json:"content"`
	Topics          []string  `json:"topics"`
	Intent          string    `json:"intent"`
	ImportanceScore float64   `json:"importance_score"`
	Similarity      float64   `json:"similarity"`
	RelevanceScore  float64   `json:"relevance_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// MemoryCaptureMessage is the payload published on the memory capture topic.
type MemoryCaptureMessage struct {
	UserId    string                 `json:"user_id"`
	SessionId uint                   `json:"session_id"`
	MessageId uint                   `json:"message_id"`
	Content   string                 `json:"content"`
	Context   map[string]interface{} `json:"context,omitempty"`
}
