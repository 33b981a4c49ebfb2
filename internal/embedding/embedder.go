// Package embedding turns vocabulary terms into fixed-size vectors.
package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
)

// DefaultDimensions is the vector size of every stored embedding
const DefaultDimensions = 384

var ErrEmptyInput = errors.New("cannot embed empty text")

// Embedder produces an embedding for a single term
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Prepare normalises text before embedding so equivalent inputs share a vector
func Prepare(text string) (string, error) {
	text = strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if text == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}

// unit scales v to length 1 in place. The zero vector is left alone.
func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
