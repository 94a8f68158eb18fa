package dto

import "time"

type TopicStatResponse struct {
	Count     int     `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

type PreferenceResponse struct {
	UserId          string                       `json:"user_id"`
	ResponseStyle   string                       `json:"response_style"`
	AutoSuggestions bool                         `json:"auto_suggestions"`
	PreferredTopics []string                     `json:"preferred_topics"`
	AvoidedTopics   []string                     `json:"avoided_topics"`
	TopicStats      map[string]TopicStatResponse `json:"topic_stats"`
	PositiveCount   int                          `json:"positive_count"`
	NegativeCount   int                          `json:"negative_count"`
	LastFeedbackAt  *time.Time                   `json:"last_feedback_at,omitempty"`
}

// UpdatePreferenceRequest applies only the fields that are set.
type UpdatePreferenceRequest struct {
	ResponseStyle   *string  `json:"response_style" validate:"omitempty,oneof=technical simple balanced"`
	AutoSuggestions *bool    `json:"auto_suggestions"`
	PreferredTopics []string `json:"preferred_topics" validate:"omitempty,dive,required"`
	AvoidedTopics   []string `json:"avoided_topics" validate:"omitempty,dive,required"`
}

type CreateShortcutRequest struct {
	Command     string `json:"command" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Template    string `json:"template" validate:"required"`
}

type ShortcutResponse struct {
	Command     string    `json:"command"`
	Description string    `json:"description"`
	Template    string    `json:"template"`
	UsageCount  int       `json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type UseShortcutRequest struct {
	Command string `json:"command" validate:"required,max=100"`
}

type UseShortcutResponse struct {
	Command  string `json:"command"`
	Template string `json:"template"`
}
