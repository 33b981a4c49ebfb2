package recommend

import (
	"slices"
	"sort"

	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
)

// Merge combines per-category candidate lists into a weighted unified ranking.
// A user missing from a category scores 0 there. Commonalities are merged per
// key, deduplicated and sorted, and every key is present in the output.
func Merge(demographics, interests, skills []models.Candidate, w tuning.Weights, limit int) []models.UnifiedRecommendation {
	combined := make(map[string]*models.UnifiedRecommendation)
	raw := make(map[string]map[string][]string)

	add := func(list []models.Candidate, setScore func(*models.CategoryScores, float64)) {
		for _, c := range list {
			rec, ok := combined[c.UserID]
			if !ok {
				rec = &models.UnifiedRecommendation{
					UserID:          c.UserID,
					RecommendedUser: c.RecommendedUser,
					Role:            c.Role,
					YearsExperience: c.YearsExperience,
				}
				combined[c.UserID] = rec
				raw[c.UserID] = make(map[string][]string)
			}
			if rec.Role == nil {
				rec.Role = c.Role
			}
			if rec.YearsExperience == nil {
				rec.YearsExperience = c.YearsExperience
			}
			setScore(&rec.Scores, c.SimilarityScore)

			for key, values := range c.Commonalities {
				raw[c.UserID][key] = append(raw[c.UserID][key], values...)
			}
		}
	}

	add(demographics, func(s *models.CategoryScores, v float64) { s.Demographics = v })
	add(interests, func(s *models.CategoryScores, v float64) { s.Interests = v })
	add(skills, func(s *models.CategoryScores, v float64) { s.Skills = v })

	out := make([]models.UnifiedRecommendation, 0, len(combined))
	for id, rec := range combined {
		rec.FinalScore = w.Demographics*rec.Scores.Demographics +
			w.Interests*rec.Scores.Interests +
			w.Skills*rec.Scores.Skills

		rec.Commonalities = make(map[string][]string, len(models.CommonalityKeys))
		for _, key := range models.CommonalityKeys {
			values := slices.Clone(raw[id][key])
			slices.Sort(values)
			rec.Commonalities[key] = slices.Compact(values)
			if rec.Commonalities[key] == nil {
				rec.Commonalities[key] = []string{}
			}
		}
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		return out[i].UserID < out[j].UserID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
