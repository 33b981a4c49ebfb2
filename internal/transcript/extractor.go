// Package transcript extracts profile facts from free-text transcripts and
// writes them to the knowledge graph.
package transcript

import (
	"context"

	"github.com/nexxt/connect/pkg/models"
)

// Extractor turns a transcript into a structured profile
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string) (*models.TranscriptProfile, error)
}
