package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/repository/unitofwork"
	"infra-assistant-be/pkg/topic"
)

const (
	positiveRating = 4
	negativeRating = 2

	// a topic is avoided only after sustained poor ratings
	avoidMinCount  = 3
	avoidMaxRating = 2.5
)

type IPreferenceService interface {
	ExtractTopics(text string) []string
	ProcessFeedback(ctx context.Context, userId string, messageId uint, rating int, feedbackText string) (*dto.FeedbackResult, error)
	GetPreferenceRecord(ctx context.Context, userId string) (*entity.UserPreference, error)
	GetPreferences(ctx context.Context, userId string) (*dto.PreferenceResponse, error)
	UpdatePreferences(ctx context.Context, userId string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error)

	CreateShortcut(ctx context.Context, userId string, req *dto.CreateShortcutRequest) (*dto.ShortcutResponse, error)
	UseShortcut(ctx context.Context, userId, command string) (string, error)
	DeleteShortcut(ctx context.Context, userId, command string) error
	ListShortcuts(ctx context.Context, userId string) ([]*dto.ShortcutResponse, error)
}

type preferenceService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	userLocks  *keyedMutex
}

func NewPreferenceService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IPreferenceService {
	return &preferenceService{
		uowFactory: uowFactory,
		logger:     log,
		userLocks:  newKeyedMutex(),
	}
}

func (ps *preferenceService) ExtractTopics(text string) []string {
	return topic.Extract(text)
}

// ProcessFeedback records the rating first so it is kept even when the rated
// message is gone, then folds it into the user's preference record.
// Updates for one user are serialized.
func (ps *preferenceService) ProcessFeedback(ctx context.Context, userId string, messageId uint, rating int, feedbackText string) (*dto.FeedbackResult, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.InvalidInput("feedback.process", "rating must be between 1 and 5")
	}

	feedback := &entity.ChatFeedback{
		MessageId:    messageId,
		UserId:       userId,
		Rating:       rating,
		FeedbackText: feedbackText,
	}
	if err := ps.uowFactory.NewUnitOfWork(ctx).ChatFeedbackRepository().Create(ctx, feedback); err != nil {
		return nil, storageErr("feedback.process", err)
	}
	result := &dto.FeedbackResult{FeedbackId: feedback.Id, Recorded: true}

	message, err := ps.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository().FindByID(ctx, messageId)
	if err != nil {
		return nil, storageErr("feedback.process", err)
	}
	// learning only touches the rater's own preferences, so any stored
	// message may teach them
	if message == nil {
		ps.logger.Info("PreferenceService", "Feedback for unknown message recorded without learning", map[string]interface{}{
			"user_id": userId, "message_id": messageId,
		})
		return result, nil
	}

	topics := ps.ExtractTopics(message.Chat)

	unlock := ps.userLocks.Lock(userId)
	defer unlock()

	uow := ps.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("feedback.process", err)
	}
	defer uow.Rollback()

	pref, err := uow.PreferenceRepository().FindByUserForUpdate(ctx, userId)
	if err != nil {
		return nil, storageErr("feedback.process", err)
	}
	if pref == nil {
		pref = entity.NewDefaultPreference(userId)
	}

	for _, t := range topics {
		pref.FeedbackStats.Record(t, rating)
	}
	if rating >= positiveRating {
		pref.FeedbackStats.PositiveCount++
	}
	if rating <= negativeRating {
		pref.FeedbackStats.NegativeCount++
	}
	now := time.Now().UTC()
	pref.FeedbackStats.LastFeedbackAt = &now

	LearnFromFeedback(pref, topics, rating)

	if err := uow.PreferenceRepository().Upsert(ctx, pref); err != nil {
		return nil, storageErr("feedback.process", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, storageErr("feedback.process", err)
	}

	result.Learned = true
	result.Topics = topics
	return result, nil
}

// LearnFromFeedback promotes topics on a good rating and demotes them on a bad
// one. Avoided topics are never re-promoted by a single good rating, and a
// topic is only avoided once its aggregate shows sustained poor ratings.
// It reports whether either topic set changed.
func LearnFromFeedback(pref *entity.UserPreference, topics []string, rating int) bool {
	if len(topics) == 0 {
		return false
	}

	changed := false
	switch {
	case rating >= positiveRating:
		for _, t := range topics {
			if pref.IsPreferred(t) || pref.IsAvoided(t) {
				continue
			}
			pref.Prefer(t)
			changed = true
		}
	case rating <= negativeRating:
		for _, t := range topics {
			if pref.IsPreferred(t) {
				pref.Unprefer(t)
				changed = true
			}
			stat := pref.FeedbackStats.Topics[t]
			if stat != nil && stat.Count >= avoidMinCount && stat.AvgRating <= avoidMaxRating && !pref.IsAvoided(t) {
				pref.Avoid(t)
				changed = true
			}
		}
	}
	return changed
}

// GetPreferenceRecord returns the stored record or the defaults, without persisting them.
func (ps *preferenceService) GetPreferenceRecord(ctx context.Context, userId string) (*entity.UserPreference, error) {
	pref, err := ps.uowFactory.NewUnitOfWork(ctx).PreferenceRepository().FindByUser(ctx, userId)
	if err != nil {
		return nil, storageErr("preference.get", err)
	}
	if pref == nil {
		return entity.NewDefaultPreference(userId), nil
	}
	return pref, nil
}

func (ps *preferenceService) GetPreferences(ctx context.Context, userId string) (*dto.PreferenceResponse, error) {
	pref, err := ps.GetPreferenceRecord(ctx, userId)
	if err != nil {
		return nil, err
	}
	return toPreferenceResponse(pref), nil
}

func (ps *preferenceService) UpdatePreferences(ctx context.Context, userId string, req *dto.UpdatePreferenceRequest) (*dto.PreferenceResponse, error) {
	for _, t := range append(append([]string{}, req.PreferredTopics...), req.AvoidedTopics...) {
		if !topic.Known(t) {
			return nil, apperror.InvalidInput("preference.update", fmt.Sprintf("unknown topic %q", t))
		}
	}
	for _, t := range req.PreferredTopics {
		for _, a := range req.AvoidedTopics {
			if t == a {
				return nil, apperror.InvalidInput("preference.update", fmt.Sprintf("topic %q cannot be both preferred and avoided", t))
			}
		}
	}

	unlock := ps.userLocks.Lock(userId)
	defer unlock()

	uow := ps.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("preference.update", err)
	}
	defer uow.Rollback()

	pref, err := uow.PreferenceRepository().FindByUserForUpdate(ctx, userId)
	if err != nil {
		return nil, storageErr("preference.update", err)
	}
	if pref == nil {
		pref = entity.NewDefaultPreference(userId)
	}

	if req.ResponseStyle != nil {
		pref.ResponseStyle = *req.ResponseStyle
	}
	if req.AutoSuggestions != nil {
		pref.AutoSuggestions = *req.AutoSuggestions
	}
	if req.PreferredTopics != nil {
		pref.PreferredTopics = []string{}
		for _, t := range req.PreferredTopics {
			pref.Prefer(t)
		}
	}
	if req.AvoidedTopics != nil {
		pref.AvoidedTopics = []string{}
		for _, t := range req.AvoidedTopics {
			pref.Avoid(t)
		}
	}

	if err := uow.PreferenceRepository().Upsert(ctx, pref); err != nil {
		return nil, storageErr("preference.update", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, storageErr("preference.update", err)
	}
	return toPreferenceResponse(pref), nil
}

func normalizeCommand(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", apperror.InvalidInput("shortcut", "command is required")
	}
	return command, nil
}

func (ps *preferenceService) CreateShortcut(ctx context.Context, userId string, req *dto.CreateShortcutRequest) (*dto.ShortcutResponse, error) {
	command, err := normalizeCommand(req.Command)
	if err != nil {
		return nil, err
	}
	shortcut := &entity.CommandShortcut{
		UserId:      userId,
		Command:     command,
		Description: req.Description,
		Template:    req.Template,
	}
	if err := ps.uowFactory.NewUnitOfWork(ctx).CommandShortcutRepository().Create(ctx, shortcut); err != nil {
		return nil, storageErr("shortcut.create", err)
	}
	return toShortcutResponse(shortcut), nil
}

// UseShortcut bumps the usage counter and returns the template.
func (ps *preferenceService) UseShortcut(ctx context.Context, userId, command string) (string, error) {
	command, err := normalizeCommand(command)
	if err != nil {
		return "", err
	}
	shortcut, err := ps.uowFactory.NewUnitOfWork(ctx).CommandShortcutRepository().IncrementUsage(ctx, userId, command)
	if err != nil {
		return "", storageErr("shortcut.use", err)
	}
	if shortcut == nil {
		return "", apperror.NotFound("shortcut.use", "shortcut "+command+" not found")
	}
	return shortcut.Template, nil
}

func (ps *preferenceService) DeleteShortcut(ctx context.Context, userId, command string) error {
	command, err := normalizeCommand(command)
	if err != nil {
		return err
	}
	deleted, err := ps.uowFactory.NewUnitOfWork(ctx).CommandShortcutRepository().Delete(ctx, userId, command)
	if err != nil {
		return storageErr("shortcut.delete", err)
	}
	if !deleted {
		return apperror.NotFound("shortcut.delete", "shortcut "+command+" not found")
	}
	return nil
}

func (ps *preferenceService) ListShortcuts(ctx context.Context, userId string) ([]*dto.ShortcutResponse, error) {
	shortcuts, err := ps.uowFactory.NewUnitOfWork(ctx).CommandShortcutRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, storageErr("shortcut.list", err)
	}
	res := make([]*dto.ShortcutResponse, 0, len(shortcuts))
	for _, s := range shortcuts {
		res = append(res, toShortcutResponse(s))
	}
	return res, nil
}

func toPreferenceResponse(pref *entity.UserPreference) *dto.PreferenceResponse {
	stats := make(map[string]dto.TopicStatResponse, len(pref.FeedbackStats.Topics))
	for t, s := range pref.FeedbackStats.Topics {
		stats[t] = dto.TopicStatResponse{Count: s.Count, AvgRating: s.AvgRating}
	}
	return &dto.PreferenceResponse{
		UserId:          pref.UserId,
		ResponseStyle:   pref.ResponseStyle,
		AutoSuggestions: pref.AutoSuggestions,
		PreferredTopics: append([]string{}, pref.PreferredTopics...),
		AvoidedTopics:   append([]string{}, pref.AvoidedTopics...),
		TopicStats:      stats,
		PositiveCount:   pref.FeedbackStats.PositiveCount,
		NegativeCount:   pref.FeedbackStats.NegativeCount,
		LastFeedbackAt:  pref.FeedbackStats.LastFeedbackAt,
	}
}

func toShortcutResponse(s *entity.CommandShortcut) *dto.ShortcutResponse {
	return &dto.ShortcutResponse{
		Command:     s.Command,
		Description: s.Description,
		Template:    s.Template,
		UsageCount:  s.UsageCount,
		CreatedAt:   s.CreatedAt,
	}
}
