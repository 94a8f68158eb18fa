package entity

import "time"

// KeyInformation is the keyword-derived summary stored with a memory.
type KeyInformation struct {
	Topics     []string `json:"topics"`
	Entities   []string `json:"entities"`
	Intent     string   `json:"intent"`
	PageId     string   `json:"page_id,omitempty"`
	ResourceId string   `json:"resource_id,omitempty"`
}

type MemoryEntry struct {
	Id              uint
	UserId          string
	SessionId       *uint
	MessageId       *uint
	Content         string
	Embedding       []float32 // nil when the embedding provider was unavailable
	KeyInfo         KeyInformation
	ImportanceScore float64
	CreatedAt       time.Time
}

// ScoredMemory is a memory ranked against a query.
type ScoredMemory struct {
	Memory         *MemoryEntry
	Similarity     float64
	RelevanceScore float64
}
