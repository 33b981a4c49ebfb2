// Package enrichment resolves free-text profile entries to canonical vocabulary.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/embedding"
	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
	"github.com/pgvector/pgvector-go"
)

// Resolution methods reported in models.Match
const (
	MethodExact   = "exact"
	MethodText    = "text"
	MethodVector  = "vector"
	MethodCreated = "created"
	MethodName    = "name"
)

const (
	DefaultCandidates  = 5
	DefaultMaxDistance = 0.6
)

// Normalizer maps user supplied names onto the shared vocabulary
type Normalizer struct {
	store       relational.Store
	embedder    embedding.Embedder
	candidates  int
	maxDistance float64
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithCandidates sets how many nearest neighbours are considered
func WithCandidates(n int) Option {
	return func(nz *Normalizer) {
		if n > 0 {
			nz.candidates = n
		}
	}
}

// WithMaxDistance sets the largest L2 distance accepted for a vector-only match
func WithMaxDistance(d float64) Option {
	return func(nz *Normalizer) {
		if d > 0 {
			nz.maxDistance = d
		}
	}
}

// NewNormalizer creates a normalizer. A nil embedder disables semantic matching.
func NewNormalizer(store relational.Store, embedder embedding.Embedder, opts ...Option) *Normalizer {
	n := &Normalizer{
		store:       store,
		embedder:    embedder,
		candidates:  DefaultCandidates,
		maxDistance: DefaultMaxDistance,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ResolveSkillInterest finds the canonical skill or interest for name, creating
// it when nothing close enough exists. Resolution order is exact name, then
// full-text match among the nearest embeddings, then the nearest embedding
// within the distance threshold.
func (n *Normalizer) ResolveSkillInterest(ctx context.Context, kind models.VocabularyKind, name string) (*relational.SkillInterest, models.Match, error) {
	name = strings.TrimSpace(name)
	match := models.Match{Kind: kind, Input: name}
	if name == "" {
		return nil, match, fmt.Errorf("%s name cannot be empty", kind)
	}

	found, err := n.store.FindSkillInterestByName(ctx, name)
	if err == nil {
		return n.matched(found, match, MethodExact)
	}
	if !errors.Is(err, relational.ErrNotFound) {
		return nil, match, err
	}

	vec := n.embed(ctx, name)
	if vec != nil {
		nearest, err := n.store.NearestSkillInterests(ctx, vec, n.candidates)
		if err != nil {
			return nil, match, err
		}

		if len(nearest) > 0 {
			ids := make([]uuid.UUID, len(nearest))
			for i, c := range nearest {
				ids[i] = c.SkillInterestID
			}

			found, err := n.store.MatchSkillInterestText(ctx, ids, name)
			if err == nil {
				return n.matched(found, match, MethodText)
			}
			if !errors.Is(err, relational.ErrNotFound) {
				return nil, match, err
			}

			if nearest[0].Distance <= n.maxDistance {
				top := nearest[0].SkillInterest
				return n.matched(&top, match, MethodVector)
			}
		}
	}

	now := time.Now().UTC()
	item := &relational.SkillInterest{
		SkillInterestID: uuid.New(),
		Name:            name,
		Category:        string(kind),
		ValidFrom:       now,
		ValidTo:         relational.Infinity,
	}
	if vec != nil {
		v := pgvector.NewVector(vec)
		item.Embedding = &v
	}
	if err := n.store.CreateSkillInterest(ctx, item); err != nil {
		return nil, match, err
	}

	match.Created = true
	return n.matched(item, match, MethodCreated)
}

func (n *Normalizer) matched(item *relational.SkillInterest, match models.Match, method string) (*relational.SkillInterest, models.Match, error) {
	match.Canonical = item.Name
	match.Method = method
	metrics.NormalizerMatches.WithLabelValues(string(match.Kind), method).Inc()
	return item, match, nil
}

// embed returns nil when semantic matching is unavailable so resolution can
// fall back to creating a new entry
func (n *Normalizer) embed(ctx context.Context, name string) []float32 {
	if n.embedder == nil {
		return nil
	}
	vec, err := n.embedder.Embed(ctx, name)
	if err != nil {
		log.Printf("[ENRICHMENT]: embedding %q failed, skipping semantic match: %v", name, err)
		return nil
	}
	return vec
}

// ResolveCompany finds or creates a company by exact name
func (n *Normalizer) ResolveCompany(ctx context.Context, name string) (*relational.Company, models.Match, error) {
	match := models.Match{Kind: models.VocabularyCompany, Input: strings.TrimSpace(name), Method: MethodName}
	company, err := n.store.FindOrCreateCompany(ctx, name)
	if err != nil {
		return nil, match, err
	}
	match.Canonical = company.Name
	metrics.NormalizerMatches.WithLabelValues(string(match.Kind), MethodName).Inc()
	return company, match, nil
}

// ResolveJobRole finds or creates a job role by exact name
func (n *Normalizer) ResolveJobRole(ctx context.Context, name string) (*relational.JobRole, models.Match, error) {
	match := models.Match{Kind: models.VocabularyJobRole, Input: strings.TrimSpace(name), Method: MethodName}
	role, err := n.store.FindOrCreateJobRole(ctx, name)
	if err != nil {
		return nil, match, err
	}
	match.Canonical = role.Name
	metrics.NormalizerMatches.WithLabelValues(string(match.Kind), MethodName).Inc()
	return role, match, nil
}

// ResolveLocation finds or creates a location by exact name
func (n *Normalizer) ResolveLocation(ctx context.Context, name string) (*relational.Location, models.Match, error) {
	match := models.Match{Kind: models.VocabularyLocation, Input: strings.TrimSpace(name), Method: MethodName}
	location, err := n.store.FindOrCreateLocation(ctx, name)
	if err != nil {
		return nil, match, err
	}
	match.Canonical = location.Name
	metrics.NormalizerMatches.WithLabelValues(string(match.Kind), MethodName).Inc()
	return location, match, nil
}
