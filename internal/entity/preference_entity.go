package entity

import (
	"slices"
	"time"
)

const (
	ResponseStyleTechnical = "technical"
	ResponseStyleSimple    = "simple"
	ResponseStyleBalanced  = "balanced"
)

type TopicStat struct {
	Count       int     `json:"count"`
	TotalRating int     `json:"total_rating"`
	AvgRating   float64 `json:"avg_rating"`
}

type FeedbackStats struct {
	Topics         map[string]*TopicStat `json:"topics"`
	PositiveCount  int                   `json:"positive_count"`
	NegativeCount  int                   `json:"negative_count"`
	LastFeedbackAt *time.Time            `json:"last_feedback_at,omitempty"`
}

// Record folds one rating into the running aggregate for topic.
func (s *FeedbackStats) Record(topic string, rating int) *TopicStat {
	if s.Topics == nil {
		s.Topics = make(map[string]*TopicStat)
	}
	stat, ok := s.Topics[topic]
	if !ok {
		stat = &TopicStat{}
		s.Topics[topic] = stat
	}
	stat.Count++
	stat.TotalRating += rating
	stat.AvgRating = float64(stat.TotalRating) / float64(stat.Count)
	return stat
}

// UserPreference is created lazily with NewDefaultPreference.
// A topic is never in PreferredTopics and AvoidedTopics at the same time.
type UserPreference struct {
	Id              uint
	UserId          string
	ResponseStyle   string
	AutoSuggestions bool
	PreferredTopics []string
	AvoidedTopics   []string
	FeedbackStats   FeedbackStats
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

func NewDefaultPreference(userId string) *UserPreference {
	return &UserPreference{
		UserId:          userId,
		ResponseStyle:   ResponseStyleBalanced,
		AutoSuggestions: true,
		PreferredTopics: []string{},
		AvoidedTopics:   []string{},
		FeedbackStats:   FeedbackStats{Topics: map[string]*TopicStat{}},
	}
}

func (p *UserPreference) IsPreferred(topic string) bool {
	return slices.Contains(p.PreferredTopics, topic)
}

func (p *UserPreference) IsAvoided(topic string) bool {
	return slices.Contains(p.AvoidedTopics, topic)
}

func (p *UserPreference) Prefer(topic string) {
	p.AvoidedTopics = remove(p.AvoidedTopics, topic)
	if !p.IsPreferred(topic) {
		p.PreferredTopics = append(p.PreferredTopics, topic)
	}
}

func (p *UserPreference) Avoid(topic string) {
	p.PreferredTopics = remove(p.PreferredTopics, topic)
	if !p.IsAvoided(topic) {
		p.AvoidedTopics = append(p.AvoidedTopics, topic)
	}
}

func (p *UserPreference) Unprefer(topic string) {
	p.PreferredTopics = remove(p.PreferredTopics, topic)
}

func remove(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}
