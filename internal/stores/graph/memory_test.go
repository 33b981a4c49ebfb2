package graph

import (
	"context"
	"testing"

	"github.com/nexxt/connect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func links(names ...string) []Link {
	out := make([]Link, len(names))
	for i, n := range names {
		out[i] = Link{Name: n}
	}
	return out
}

func seedGraph(t *testing.T) *InMemoryStore {
	t.Helper()
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, u := range []User{
		{UserID: "alice", FullName: "Alice A"},
		{UserID: "bob", FullName: "Bob B"},
		{UserID: "carol", FullName: "Carol C"},
		{UserID: "dave", FullName: "Dave D"},
	} {
		require.NoError(t, store.UpsertUser(ctx, u))
	}

	years := 8
	require.NoError(t, store.MergeProfile(ctx, Profile{
		UserID:    "alice",
		Skills:    links("Python", "Go"),
		Interests: links("AI", "Robotics"),
		Company:   &Link{Name: "Acme"},
		Location:  "Berlin",
	}))
	require.NoError(t, store.MergeProfile(ctx, Profile{
		UserID:            "bob",
		Skills:            links("Python", "Go", "SQL"),
		Interests:         links("AI"),
		JobRole:           "Data Scientist",
		Company:           &Link{Name: "Acme"},
		Location:          "Berlin",
		YearsOfExperience: &years,
	}))
	require.NoError(t, store.MergeProfile(ctx, Profile{
		UserID:    "carol",
		Skills:    links("Python"),
		Interests: links("Gardening"),
		Location:  "Paris",
	}))
	return store
}

func TestInMemoryStore_RefreshAndRecommend(t *testing.T) {
	ctx := context.Background()
	store := seedGraph(t)

	results, err := store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)
	require.Len(t, results, len(Projections))
	for _, r := range results {
		assert.Equal(t, StatusWritten, r.Status, r.Name)
	}

	t.Run("skills", func(t *testing.T) {
		got, err := store.Recommend(ctx, "alice", models.RecommendSkills, 5)
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "bob", got[0].UserID)
		assert.InDelta(t, 2.0/3.0, got[0].SimilarityScore, 1e-9)
		assert.Equal(t, []string{"Go", "Python"}, got[0].Commonalities[models.CommonSkills])
		require.NotNil(t, got[0].Role)
		assert.Equal(t, "Data Scientist", *got[0].Role)
		require.NotNil(t, got[0].YearsExperience)
		assert.EqualValues(t, 8, *got[0].YearsExperience)
		assert.Equal(t, models.RecommendSkills.Label(), got[0].Category)

		assert.Equal(t, "carol", got[1].UserID)
		assert.InDelta(t, 0.5, got[1].SimilarityScore, 1e-9)
	})

	t.Run("demographics", func(t *testing.T) {
		got, err := store.Recommend(ctx, "alice", models.RecommendDemographics, 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "bob", got[0].UserID)
		assert.Equal(t, []string{"Acme"}, got[0].Commonalities[models.SharedCompanies])
		assert.Equal(t, []string{"Berlin"}, got[0].Commonalities[models.SharedLocations])
		assert.Empty(t, got[0].Commonalities[models.SharedUniversities])
	})

	t.Run("excludes self and zero scores", func(t *testing.T) {
		got, err := store.Recommend(ctx, "carol", models.RecommendInterests, 5)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = store.Recommend(ctx, "dave", models.RecommendSkills, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.Recommend(ctx, "alice", models.RecommendSkills, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := store.Recommend(ctx, "alice", models.RecommendUnified, 5)
		assert.Error(t, err)
	})
}

func TestInMemoryStore_RefreshSkipsEmptyProjections(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	require.NoError(t, store.UpsertUser(ctx, User{UserID: "solo"}))

	results, err := store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, StatusSkipped, r.Status)
	}
}

func TestInMemoryStore_RefreshReplacesStaleScores(t *testing.T) {
	ctx := context.Background()
	store := seedGraph(t)

	_, err := store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, "bob"))
	_, err = store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)

	got, err := store.Recommend(ctx, "alice", models.RecommendSkills, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "carol", got[0].UserID)
}

func TestInMemoryStore_CompanyChangeKeepsHistory(t *testing.T) {
	ctx := context.Background()
	store := seedGraph(t)

	require.NoError(t, store.MergeProfile(ctx, Profile{UserID: "bob", Company: &Link{Name: "Globex"}}))
	_, err := store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)

	got, err := store.Recommend(ctx, "alice", models.RecommendDemographics, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Acme"}, got[0].Commonalities[models.SharedCompanies])
}

func TestInMemoryStore_ApplyTranscriptReplacesSets(t *testing.T) {
	ctx := context.Background()
	store := seedGraph(t)

	applied, err := store.ApplyTranscript(ctx, Profile{UserID: "alice", Skills: links("Rust"), Expertise: links("Compilers")})
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = store.RefreshSimilarities(ctx, DefaultSimilarityOptions)
	require.NoError(t, err)
	got, err := store.Recommend(ctx, "alice", models.RecommendSkills, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	applied, err = store.ApplyTranscript(ctx, Profile{UserID: "ghost"})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestInMemoryStore_MergeProfileUnknownUser(t *testing.T) {
	err := NewInMemoryStore().MergeProfile(context.Background(), Profile{UserID: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemoryStore_RecommendEvents(t *testing.T) {
	ctx := context.Background()
	store := seedGraph(t)

	require.NoError(t, store.UpsertConference(ctx, Conference{ConferenceID: "conf", Name: "DevConf"}))
	for _, e := range []Event{
		{EventID: "e1", ConferenceID: "conf", Title: "Robots and AI", EventType: "workshop", Topics: []string{"ai", "robotics"}},
		{EventID: "e2", ConferenceID: "conf", Title: "AI in Finance", EventType: "panel", Topics: []string{"AI", "Finance"}},
		{EventID: "e3", ConferenceID: "conf", Title: "Gardens", EventType: "keynote", Topics: []string{"Gardening"}},
		{EventID: "e4", ConferenceID: "conf", Title: "AI Again", EventType: "panel", Topics: []string{"AI"}},
		{EventID: "e5", ConferenceID: "conf", Title: "AI Expo", EventType: "exhibition", Topics: []string{"AI"}},
	} {
		require.NoError(t, store.UpsertEvent(ctx, e))
	}
	require.NoError(t, store.RecordAttendance(ctx, "alice", "e4", "attended"))
	require.NoError(t, store.RecordFeedback(ctx, "alice", "e5", false))

	got, err := store.RecommendEvents(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "e1", got[0].EventID)
	assert.Equal(t, 2.0, got[0].Score)
	assert.Equal(t, "conf", got[0].ConferenceID)
	assert.ElementsMatch(t, []string{"ai", "robotics"}, got[0].MatchedTopics)

	assert.Equal(t, "e2", got[1].EventID)
	assert.Equal(t, 1.0, got[1].Score)
}

func TestProjectionFor(t *testing.T) {
	p, ok := ProjectionFor(models.RecommendInterests)
	require.True(t, ok)
	assert.Equal(t, "SIMILAR_INTEREST", p.WriteType)
	assert.Contains(t, p.RelationshipTypes, "DESIRES_INDUSTRY")

	_, ok = ProjectionFor(models.RecommendUnified)
	assert.False(t, ok)
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []string{"A", "C"}, intersect([]string{"A", "B", "C"}, []string{"C", "A"}))
	assert.Nil(t, intersect([]string{"A"}, nil))
}
