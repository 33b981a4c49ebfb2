package recommend

import (
	"testing"

	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultWeights = tuning.Weights{Demographics: 0.20, Interests: 0.60, Skills: 0.10}

func candidate(id string, score float64, common map[string][]string) models.Candidate {
	return models.Candidate{UserID: id, RecommendedUser: "User " + id, SimilarityScore: score, Commonalities: common}
}

func TestMerge(t *testing.T) {
	role := "Engineer"
	demo := []models.Candidate{
		candidate("b", 0.5, map[string][]string{models.SharedCompanies: {"Acme"}, models.SharedLocations: {"Berlin"}}),
		candidate("c", 1.0, nil),
	}
	interests := []models.Candidate{
		candidate("b", 0.5, map[string][]string{models.CommonInterests: {"AI", "Robotics"}}),
		candidate("d", 0.5, map[string][]string{models.CommonInterests: {"AI"}}),
	}
	skills := []models.Candidate{
		{UserID: "b", RecommendedUser: "User b", Role: &role, SimilarityScore: 1.0, Commonalities: map[string][]string{models.CommonSkills: {"Go", "Go", "Python"}}},
	}

	got := Merge(demo, interests, skills, defaultWeights, 10)
	require.Len(t, got, 3)

	// b: 0.2*0.5 + 0.6*0.5 + 0.1*1.0 = 0.5
	assert.Equal(t, "b", got[0].UserID)
	assert.InDelta(t, 0.5, got[0].FinalScore, 1e-9)
	assert.Equal(t, models.CategoryScores{Demographics: 0.5, Interests: 0.5, Skills: 1.0}, got[0].Scores)
	assert.Equal(t, []string{"Go", "Python"}, got[0].Commonalities[models.CommonSkills])
	assert.Equal(t, []string{"AI", "Robotics"}, got[0].Commonalities[models.CommonInterests])
	require.NotNil(t, got[0].Role)
	assert.Equal(t, "Engineer", *got[0].Role)

	// c: 0.2, d: 0.3
	assert.Equal(t, "d", got[1].UserID)
	assert.InDelta(t, 0.3, got[1].FinalScore, 1e-9)
	assert.Equal(t, "c", got[2].UserID)
	assert.InDelta(t, 0.2, got[2].FinalScore, 1e-9)

	for _, rec := range got {
		for _, key := range models.CommonalityKeys {
			assert.NotNil(t, rec.Commonalities[key], "%s missing %s", rec.UserID, key)
		}
	}
}

func TestMerge_TiesAndLimit(t *testing.T) {
	interests := []models.Candidate{candidate("z", 0.5, nil), candidate("a", 0.5, nil), candidate("m", 0.1, nil)}

	got := Merge(nil, interests, nil, defaultWeights, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].UserID)
	assert.Equal(t, "z", got[1].UserID)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil, nil, defaultWeights, 5))
}
