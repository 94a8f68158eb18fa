package mapper

import (
	"encoding/json"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type PreferenceMapper struct{}

func NewPreferenceMapper() *PreferenceMapper {
	return &PreferenceMapper{}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (m *PreferenceMapper) ToEntity(p *model.UserPreference) *entity.UserPreference {
	if p == nil {
		return nil
	}

	stats := entity.FeedbackStats{}
	if len(p.FeedbackStats) > 0 {
		_ = json.Unmarshal(p.FeedbackStats, &stats)
	}
	if stats.Topics == nil {
		stats.Topics = map[string]*entity.TopicStat{}
	}

	return &entity.UserPreference{
		Id:              p.Id,
		UserId:          p.UserId,
		ResponseStyle:   p.ResponseStyle,
		AutoSuggestions: p.AutoSuggestions,
		PreferredTopics: nonNil(p.PreferredTopics),
		AvoidedTopics:   nonNil(p.AvoidedTopics),
		FeedbackStats:   stats,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       optionalTime(p.UpdatedAt),
	}
}

func (m *PreferenceMapper) ToModel(p *entity.UserPreference) (*model.UserPreference, error) {
	if p == nil {
		return nil, nil
	}

	stats, err := json.Marshal(p.FeedbackStats)
	if err != nil {
		return nil, err
	}

	return &model.UserPreference{
		Id:              p.Id,
		UserId:          p.UserId,
		ResponseStyle:   p.ResponseStyle,
		AutoSuggestions: p.AutoSuggestions,
		PreferredTopics: nonNil(p.PreferredTopics),
		AvoidedTopics:   nonNil(p.AvoidedTopics),
		FeedbackStats:   datatypes.JSON(stats),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       valueTime(p.UpdatedAt),
	}, nil
}

func (m *PreferenceMapper) ShortcutToEntity(s *model.CommandShortcut) *entity.CommandShortcut {
	if s == nil {
		return nil
	}
	return &entity.CommandShortcut{
		Id:          s.Id,
		UserId:      s.UserId,
		Command:     s.Command,
		Description: s.Description,
		Template:    s.Template,
		UsageCount:  s.UsageCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   optionalTime(s.UpdatedAt),
	}
}

func (m *PreferenceMapper) ShortcutToModel(s *entity.CommandShortcut) *model.CommandShortcut {
	if s == nil {
		return nil
	}
	return &model.CommandShortcut{
		Id:          s.Id,
		UserId:      s.UserId,
		Command:     s.Command,
		Description: s.Description,
		Template:    s.Template,
		UsageCount:  s.UsageCount,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   valueTime(s.UpdatedAt),
	}
}
