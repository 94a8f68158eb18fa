package embedding

import (
	"context"
	"errors"
)

// DefaultDimension matches the vector(768) column used for memory entries.
const DefaultDimension = 768

// Task types hint providers that distinguish documents from queries.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// ErrUnavailable is returned (wrapped) whenever a vector cannot be produced.
// Callers treat it as "no embedding" and fall back to keyword data.
var ErrUnavailable = errors.New("embedding unavailable")

// EmbeddingProvider generates unit-normalized vectors of a fixed dimension.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)
}
