package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"infra-assistant-be/internal/config"
	"infra-assistant-be/internal/dto"
	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/pkg/apperror"
	"infra-assistant-be/internal/pkg/logger"
	"infra-assistant-be/internal/repository/unitofwork"
	"infra-assistant-be/pkg/embedding"
	"infra-assistant-be/pkg/topic"
)

var cvePattern = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,}\b`)

// context keys that mark a memory as tied to a concrete vulnerability or issue
var identifierKeys = []string{"vulnerability_id", "cve_id", "issue_id"}

// context keys whose values are recorded as entities
var entityKeys = []string{"container_id", "container_name", "image", "volume", "network"}

type IMemoryService interface {
	AddMemory(ctx context.Context, req *dto.AddMemoryRequest) (*entity.MemoryEntry, error)
	GetRelevantMemories(ctx context.Context, userId, query string, queryContext map[string]interface{}, limit int) ([]*entity.ScoredMemory, error)
	PruneOldMemories(ctx context.Context, userId string) (int, error)
	SearchMemories(ctx context.Context, userId string, req *dto.MemorySearchRequest) ([]*dto.ScoredMemoryResponse, error)
}

type memoryService struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	cfg        config.MemoryConfig
	logger     logger.ILogger
	userLocks  *keyedMutex
}

func NewMemoryService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	cfg config.MemoryConfig,
	log logger.ILogger,
) IMemoryService {
	if cfg.Limit <= 0 {
		cfg.Limit = 50
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	return &memoryService{
		uowFactory: uowFactory,
		embedder:   embedder,
		cfg:        cfg,
		logger:     log,
		userLocks:  newKeyedMutex(),
	}
}

// AddMemory stores text as a memory for the user and prunes the user's store.
// An unavailable embedder still stores the entry, without a vector.
func (ms *memoryService) AddMemory(ctx context.Context, req *dto.AddMemoryRequest) (*entity.MemoryEntry, error) {
	if req.UserId == "" {
		return nil, apperror.InvalidInput("memory.add", "user id is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperror.InvalidInput("memory.add", "content is required")
	}

	vector, err := ms.embedder.Generate(ctx, req.Content, embedding.TaskRetrievalDocument)
	if err != nil {
		ms.logger.Warn("MemoryService", "Embedding unavailable, storing without vector", map[string]interface{}{
			"user_id": req.UserId, "error": err.Error(),
		})
		vector = nil
	}

	memory := &entity.MemoryEntry{
		UserId:          req.UserId,
		SessionId:       req.SessionId,
		MessageId:       req.MessageId,
		Content:         req.Content,
		Embedding:       vector,
		KeyInfo:         ExtractKeyInformation(req.Content, req.Context),
		ImportanceScore: ImportanceScore(req.Content, req.Context),
	}

	// insert and prune as one step per user so concurrent captures cannot
	// leave the store above its limit
	unlock := ms.userLocks.Lock(req.UserId)
	defer unlock()

	uow := ms.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MemoryRepository().Create(ctx, memory); err != nil {
		return nil, apperror.Unavailable("memory.add", err)
	}

	if pruned, err := ms.prune(ctx, req.UserId); err != nil {
		ms.logger.Warn("MemoryService", "Prune failed", map[string]interface{}{"user_id": req.UserId, "error": err.Error()})
	} else if pruned > 0 {
		ms.logger.Debug("MemoryService", "Pruned memories", map[string]interface{}{"user_id": req.UserId, "deleted": pruned})
	}

	return memory, nil
}

// GetRelevantMemories ranks the user's memories against query by
// similarity*SimilarityWeight + importance*ImportanceWeight. Without a query
// embedding it returns the most recent memories with a zero score.
func (ms *memoryService) GetRelevantMemories(ctx context.Context, userId, query string, queryContext map[string]interface{}, limit int) ([]*entity.ScoredMemory, error) {
	if limit <= 0 {
		limit = ms.cfg.DefaultTopK
	}
	uow := ms.uowFactory.NewUnitOfWork(ctx)

	queryVector, err := ms.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		ms.logger.Warn("MemoryService", "Query embedding unavailable, using recency", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		recent, err := uow.MemoryRepository().FindRecentByUser(ctx, userId, limit)
		if err != nil {
			return nil, apperror.Unavailable("memory.relevant", err)
		}
		scored := make([]*entity.ScoredMemory, len(recent))
		for i, m := range recent {
			scored[i] = &entity.ScoredMemory{Memory: m}
		}
		return scored, nil
	}

	memories, err := uow.MemoryRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return nil, apperror.Unavailable("memory.relevant", err)
	}

	pageId := contextString(queryContext, "page_id")
	resourceId := contextString(queryContext, "resource_id")

	scored := make([]*entity.ScoredMemory, 0, len(memories))
	for _, m := range memories {
		if m.Embedding == nil {
			continue
		}
		similarity := embedding.CosineSimilarity(queryVector, m.Embedding)
		scored = append(scored, &entity.ScoredMemory{
			Memory:         m,
			Similarity:     similarity,
			RelevanceScore: similarity*ms.cfg.SimilarityWeight + m.ImportanceScore*ms.cfg.ImportanceWeight,
		})
	}

	// equal scores: same page/resource as the query first, then newest
	sameContext := func(m *entity.MemoryEntry) bool {
		return (pageId != "" && m.KeyInfo.PageId == pageId) || (resourceId != "" && m.KeyInfo.ResourceId == resourceId)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if ca, cb := sameContext(a.Memory), sameContext(b.Memory); ca != cb {
			return ca
		}
		if !a.Memory.CreatedAt.Equal(b.Memory.CreatedAt) {
			return a.Memory.CreatedAt.After(b.Memory.CreatedAt)
		}
		return a.Memory.Id > b.Memory.Id
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// PruneOldMemories deletes the least important memories beyond the per-user
// limit. Equal importance drops the oldest first (created_at, then id).
func (ms *memoryService) PruneOldMemories(ctx context.Context, userId string) (int, error) {
	unlock := ms.userLocks.Lock(userId)
	defer unlock()
	return ms.prune(ctx, userId)
}

// prune expects the caller to hold the user's lock.
func (ms *memoryService) prune(ctx context.Context, userId string) (int, error) {
	uow := ms.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.MemoryRepository().CountByUser(ctx, userId)
	if err != nil {
		return 0, apperror.Unavailable("memory.prune", err)
	}
	if count <= int64(ms.cfg.Limit) {
		return 0, nil
	}

	memories, err := uow.MemoryRepository().FindAllByUser(ctx, userId)
	if err != nil {
		return 0, apperror.Unavailable("memory.prune", err)
	}
	excess := len(memories) - ms.cfg.Limit
	if excess <= 0 {
		return 0, nil
	}

	sort.SliceStable(memories, func(i, j int) bool {
		a, b := memories[i], memories[j]
		if a.ImportanceScore != b.ImportanceScore {
			return a.ImportanceScore < b.ImportanceScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Id < b.Id
	})

	ids := make([]uint, excess)
	for i := 0; i < excess; i++ {
		ids[i] = memories[i].Id
	}
	if err := uow.MemoryRepository().DeleteByIDs(ctx, ids); err != nil {
		return 0, apperror.Unavailable("memory.prune", err)
	}
	return excess, nil
}

func (ms *memoryService) SearchMemories(ctx context.Context, userId string, req *dto.MemorySearchRequest) ([]*dto.ScoredMemoryResponse, error) {
	scored, err := ms.GetRelevantMemories(ctx, userId, req.Query, req.Context, req.Limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ScoredMemoryResponse, 0, len(scored))
	for _, s := range scored {
		res = append(res, &dto.ScoredMemoryResponse{
			Id:              s.Memory.Id,
			Content:         s.Memory.Content,
			Topics:          s.Memory.KeyInfo.Topics,
			Intent:          s.Memory.KeyInfo.Intent,
			ImportanceScore: s.Memory.ImportanceScore,
			Similarity:      s.Similarity,
			RelevanceScore:  s.RelevanceScore,
			CreatedAt:       s.Memory.CreatedAt,
		})
	}
	return res, nil
}

// ImportanceScore rates how informative text is, independent of any query:
// 0.5 base, up to 0.2 for length, up to 0.2 for context size and 0.2 when the
// context names a vulnerability or issue. The result is clamped to [0,1].
func ImportanceScore(text string, memoryContext map[string]interface{}) float64 {
	score := 0.5
	score += math.Min(float64(len(text))/500.0, 1.0) * 0.2

	if len(memoryContext) > 0 {
		score += math.Min(float64(len(memoryContext))/5.0, 1.0) * 0.2
		if hasIdentifier(memoryContext) {
			score += 0.2
		}
	}
	return math.Max(0, math.Min(1, score))
}

func hasIdentifier(memoryContext map[string]interface{}) bool {
	for _, key := range identifierKeys {
		if contextString(memoryContext, key) != "" {
			return true
		}
	}
	for _, v := range memoryContext {
		if s, ok := v.(string); ok && cvePattern.MatchString(s) {
			return true
		}
	}
	return false
}

// ExtractKeyInformation derives the keyword summary stored with a memory.
func ExtractKeyInformation(text string, memoryContext map[string]interface{}) entity.KeyInformation {
	seen := make(map[string]bool)
	entities := make([]string, 0)
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			entities = append(entities, v)
		}
	}

	for _, cve := range cvePattern.FindAllString(text, -1) {
		add(strings.ToUpper(cve))
	}
	for _, key := range identifierKeys {
		add(contextString(memoryContext, key))
	}
	for _, key := range entityKeys {
		add(contextString(memoryContext, key))
	}

	return entity.KeyInformation{
		Topics:     topic.Extract(text),
		Entities:   entities,
		Intent:     topic.ClassifyIntent(text),
		PageId:     contextString(memoryContext, "page_id"),
		ResourceId: contextString(memoryContext, "resource_id"),
	}
}

func contextString(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == math.Trunc(s) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(v)
	}
}
