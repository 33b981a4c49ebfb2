// Package recommend builds people and event recommendations from the graph.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/internal/stores/graph"
	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
)

var ErrUnknownCategory = errors.New("unknown recommendation category")

// Engine serves recommendation lists
type Engine struct {
	graph     graph.Store
	snapshots relational.Store
	tuning    *tuning.Tuning
	now       func() time.Time
}

// NewEngine creates an engine. snapshots may be nil, in which case unified
// rankings are not persisted.
func NewEngine(g graph.Store, snapshots relational.Store, t *tuning.Tuning) *Engine {
	if t == nil {
		t = tuning.Default()
	}
	return &Engine{
		graph:     g,
		snapshots: snapshots,
		tuning:    t,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// limitOr applies the default for non-positive limits and caps at the configured maximum
func (e *Engine) limitOr(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if ceiling := e.tuning.Limits.Max; ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit
}

// Category returns the recommendations of a single similarity category
func (e *Engine) Category(ctx context.Context, userID string, category models.RecommendationCategory, limit int) ([]models.Candidate, error) {
	if _, ok := graph.ProjectionFor(category); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	limit = e.limitOr(limit, e.tuning.Limits.CategoryDefault)
	recs, err := e.graph.Recommend(ctx, userID, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s recommendations: %w", category, err)
	}

	metrics.RecommendationsServed.WithLabelValues(string(category)).Inc()
	return recs, nil
}

// Unified ranks people across all categories and stores the result as the
// user's latest recommendation snapshot
func (e *Engine) Unified(ctx context.Context, userID string, limit int) ([]models.UnifiedRecommendation, error) {
	limit = e.limitOr(limit, e.tuning.Limits.UnifiedDefault)
	fetch := limit * e.tuning.Limits.FetchMultiplier

	lists := make(map[models.RecommendationCategory][]models.Candidate, len(graph.Projections))
	for _, p := range graph.Projections {
		recs, err := e.graph.Recommend(ctx, userID, p.Category, fetch)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s recommendations: %w", p.Category, err)
		}
		lists[p.Category] = recs
	}

	out := Merge(
		lists[models.RecommendDemographics],
		lists[models.RecommendInterests],
		lists[models.RecommendSkills],
		e.tuning.Weights,
		limit,
	)

	e.saveSnapshot(ctx, userID, out)
	metrics.RecommendationsServed.WithLabelValues(string(models.RecommendUnified)).Inc()
	return out, nil
}

// saveSnapshot persists a unified ranking. Failures are logged; the ranking is
// still returned to the caller.
func (e *Engine) saveSnapshot(ctx context.Context, userID string, recs []models.UnifiedRecommendation) {
	if e.snapshots == nil {
		return
	}

	owner, err := uuid.Parse(userID)
	if err != nil {
		return
	}

	now := e.now()
	rows := make([]relational.Recommendation, 0, len(recs))
	for _, r := range recs {
		other, err := uuid.Parse(r.UserID)
		if err != nil {
			continue
		}
		rows = append(rows, relational.Recommendation{
			RecommendationID:  uuid.New(),
			UserID:            owner,
			RecommendedUserID: other,
			Score:             r.FinalScore,
			Context:           string(models.RecommendUnified),
			CreatedAt:         now,
			ValidFrom:         now,
			ValidTo:           relational.Infinity,
		})
	}

	if err := e.snapshots.SaveRecommendations(ctx, owner, rows); err != nil {
		log.Printf("[RECOMMEND]: Failed to save recommendation snapshot for %s: %v", userID, err)
	}
}

// Snapshot returns the last unified ranking stored for a user
func (e *Engine) Snapshot(ctx context.Context, userID uuid.UUID) ([]models.RecommendationSnapshot, error) {
	if e.snapshots == nil {
		return nil, nil
	}

	rows, err := e.snapshots.ListRecommendations(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.RecommendationSnapshot, len(rows))
	for i, r := range rows {
		out[i] = models.RecommendationSnapshot{
			UserID:            r.UserID,
			RecommendedUserID: r.RecommendedUserID,
			Score:             r.Score,
			Context:           r.Context,
		}
	}
	return out, nil
}

// Events suggests events whose topics match the user's interests
func (e *Engine) Events(ctx context.Context, userID string, limit int) ([]models.EventRecommendation, error) {
	limit = e.limitOr(limit, e.tuning.Limits.CategoryDefault)
	recs, err := e.graph.RecommendEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event recommendations: %w", err)
	}

	metrics.RecommendationsServed.WithLabelValues("events").Inc()
	return recs, nil
}
