package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nexxt/connect/internal/stores/relational"
	"github.com/nexxt/connect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns fixed vectors by input text
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Dimensions() int { return 3 }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestNormalizer(t *testing.T) (*Normalizer, *relational.InMemoryStore) {
	t.Helper()
	store := relational.NewInMemoryStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"Python":            {1, 0, 0},
		"Machine Learning":  {0, 1, 0},
		"machine learnings": {0.1, 0.9, 0},
		"Kubernetes":        {0.7, 0.7, 0},
		"k8s":               {0.72, 0.69, 0},
		"Gardening":         {-1, 0, 0},
	}}

	n := NewNormalizer(store, embedder)
	ctx := context.Background()
	for _, name := range []string{"Python", "Machine Learning", "Kubernetes"} {
		_, err := store.SeedVocabulary(ctx, models.VocabularySkill, name, embedder.vectors[name])
		require.NoError(t, err)
	}
	return n, store
}

func TestNormalizer_ResolveSkillInterest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		input     string
		canonical string
		method    string
		created   bool
	}{
		{"exact name ignores case", "python", "Python", MethodExact, false},
		{"text match among nearest", "machine learnings", "Machine Learning", MethodText, false},
		{"nearest vector within threshold", "k8s", "Kubernetes", MethodVector, false},
		{"nothing close creates entry", "Gardening", "Gardening", MethodCreated, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newTestNormalizer(t)

			item, match, err := n.ResolveSkillInterest(ctx, models.VocabularySkill, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, item.Name)
			assert.Equal(t, tt.canonical, match.Canonical)
			assert.Equal(t, tt.method, match.Method)
			assert.Equal(t, tt.created, match.Created)
			assert.Equal(t, models.VocabularySkill, match.Kind)
		})
	}
}

func TestNormalizer_CreatedEntryIsReused(t *testing.T) {
	ctx := context.Background()
	n, _ := newTestNormalizer(t)

	first, _, err := n.ResolveSkillInterest(ctx, models.VocabularyInterest, "Gardening")
	require.NoError(t, err)
	assert.Equal(t, string(models.VocabularyInterest), first.Category)
	require.NotNil(t, first.Embedding)

	second, match, err := n.ResolveSkillInterest(ctx, models.VocabularyInterest, "gardening")
	require.NoError(t, err)
	assert.Equal(t, first.SkillInterestID, second.SkillInterestID)
	assert.Equal(t, MethodExact, match.Method)
}

func TestNormalizer_EmbeddingFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	store := relational.NewInMemoryStore()
	n := NewNormalizer(store, &stubEmbedder{err: errors.New("offline")})

	item, match, err := n.ResolveSkillInterest(ctx, models.VocabularySkill, "Rust")
	require.NoError(t, err)
	assert.True(t, match.Created)
	assert.Nil(t, item.Embedding)
}

func TestNormalizer_MaxDistance(t *testing.T) {
	ctx := context.Background()
	store := relational.NewInMemoryStore()
	embedder := &stubEmbedder{vectors: map[string][]float32{"Kubernetes": {0.7, 0.7, 0}, "k8s": {0.72, 0.69, 0}}}
	_, err := store.SeedVocabulary(ctx, models.VocabularySkill, "Kubernetes", embedder.vectors["Kubernetes"])
	require.NoError(t, err)

	n := NewNormalizer(store, embedder, WithMaxDistance(0.001))
	_, match, err := n.ResolveSkillInterest(ctx, models.VocabularySkill, "k8s")
	require.NoError(t, err)
	assert.Equal(t, MethodCreated, match.Method)
}

func TestNormalizer_ResolveEmpty(t *testing.T) {
	n, _ := newTestNormalizer(t)
	_, _, err := n.ResolveSkillInterest(context.Background(), models.VocabularySkill, "   ")
	assert.Error(t, err)
}

func TestNormalizer_ResolveNamed(t *testing.T) {
	ctx := context.Background()
	n, _ := newTestNormalizer(t)

	first, match, err := n.ResolveCompany(ctx, " Acme ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", match.Canonical)

	again, _, err := n.ResolveCompany(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, first.CompanyID, again.CompanyID)

	role, match, err := n.ResolveJobRole(ctx, "Data Scientist")
	require.NoError(t, err)
	assert.Equal(t, "Data Scientist", role.Name)
	assert.Equal(t, MethodName, match.Method)

	location, _, err := n.ResolveLocation(ctx, "Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", location.Name)

	_, _, err = n.ResolveLocation(ctx, "")
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := relational.NewInMemoryStore()
	n := NewNormalizer(store, &stubEmbedder{})

	vocab, err := LoadVocabulary("")
	require.NoError(t, err)
	require.NotEmpty(t, vocab.Skills)
	require.NotEmpty(t, vocab.Interests)

	result, err := n.Seed(ctx, vocab)
	require.NoError(t, err)
	assert.Equal(t, len(vocab.Entries()), result.Changed)
	assert.Zero(t, result.Failed)

	result, err = n.Seed(ctx, vocab)
	require.NoError(t, err)
	assert.Zero(t, result.Changed)
	assert.Equal(t, len(vocab.Entries()), result.Unchanged)

	item, err := store.FindSkillInterestByName(ctx, "python")
	require.NoError(t, err)
	assert.Equal(t, "Python", item.Name)
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	_, err := LoadVocabulary("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestSeedLines(t *testing.T) {
	ctx := context.Background()
	store := relational.NewInMemoryStore()
	n := NewNormalizer(store, &stubEmbedder{})

	input := "Rust\n\n  Zig  \nrust\nElixir\n"
	result, err := n.SeedLines(ctx, models.VocabularySkill, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Changed)

	item, err := store.FindSkillInterestByName(ctx, "zig")
	require.NoError(t, err)
	assert.Equal(t, "Zig", item.Name)
	assert.Equal(t, string(models.VocabularySkill), item.Category)

	_, err = n.SeedLines(ctx, models.VocabularyKind("colour"), strings.NewReader("Red"))
	assert.Error(t, err)
}
