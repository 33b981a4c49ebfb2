package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashingEmbedder is an offline embedder using signed feature hashing of
// words and character trigrams. Similar spellings land close together,
// which is enough for vocabulary deduplication without a model.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a hashing embedder producing dims-sized vectors
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingEmbedder{dims: dims}
}

func (e *HashingEmbedder) Dimensions() int { return e.dims }

func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := Prepare(text)
	if err != nil {
		return nil, err
	}

	v := make([]float32, e.dims)
	for _, word := range strings.Fields(text) {
		e.add(v, "w:"+word, 2)

		padded := []rune("^" + word + "$")
		for i := 0; i+3 <= len(padded); i++ {
			e.add(v, "t:"+string(padded[i:i+3]), 1)
		}
	}
	return unit(v), nil
}

func (e *HashingEmbedder) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}
