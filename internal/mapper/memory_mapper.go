package mapper

import (
	"encoding/json"

	"infra-assistant-be/internal/entity"
	"infra-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) ToEntity(e *model.MemoryEntry) *entity.MemoryEntry {
	if e == nil {
		return nil
	}

	var keyInfo entity.KeyInformation
	if len(e.KeyInformation) > 0 {
		// a corrupt column degrades to empty key info rather than failing the read
		_ = json.Unmarshal(e.KeyInformation, &keyInfo)
	}

	var embedding []float32
	if e.Embedding != nil {
		embedding = e.Embedding.Slice()
	}

	return &entity.MemoryEntry{
		Id:              e.Id,
		UserId:          e.UserId,
		SessionId:       e.SessionId,
		MessageId:       e.MessageId,
		Content:         e.Content,
		Embedding:       embedding,
		KeyInfo:         keyInfo,
		ImportanceScore: e.ImportanceScore,
		CreatedAt:       e.CreatedAt,
	}
}

func (m *MemoryMapper) ToModel(e *entity.MemoryEntry) (*model.MemoryEntry, error) {
	if e == nil {
		return nil, nil
	}

	keyInfo, err := json.Marshal(e.KeyInfo)
	if err != nil {
		return nil, err
	}

	var vec *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		vec = &v
	}

	return &model.MemoryEntry{
		Id:              e.Id,
		UserId:          e.UserId,
		SessionId:       e.SessionId,
		MessageId:       e.MessageId,
		Content:         e.Content,
		Embedding:       vec,
		KeyInformation:  datatypes.JSON(keyInfo),
		ImportanceScore: e.ImportanceScore,
		CreatedAt:       e.CreatedAt,
	}, nil
}

func (m *MemoryMapper) ToEntities(models []*model.MemoryEntry) []*entity.MemoryEntry {
	entities := make([]*entity.MemoryEntry, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
