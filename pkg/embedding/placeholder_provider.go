package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

// PlaceholderProvider returns pseudo-random unit vectors seeded from the text,
// so equal texts embed identically. It carries no semantics and exists for
// local runs without a model server.
type PlaceholderProvider struct {
	Dimension int
}

func NewPlaceholderProvider(dimension int) EmbeddingProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &PlaceholderProvider{Dimension: dimension}
}

func (p *PlaceholderProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:16])))

	vec := make([]float32, p.Dimension)
	for i := range vec {
		vec[i] = float32(rng.NormFloat64())
	}
	return normalizeVector(vec), nil
}
