package transcript

import (
	"context"
	"testing"

	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRules() *RuleExtractor {
	return NewRuleExtractor(tuning.Default().Transcript)
}

func extractExample(t *testing.T, id string) *models.TranscriptProfile {
	t.Helper()
	text, ok := Example(id)
	require.True(t, ok)

	p, err := newRules().Extract(context.Background(), text)
	require.NoError(t, err)
	return p
}

func TestRuleExtractor_SoftwareEngineer(t *testing.T) {
	p := extractExample(t, "software_engineer")

	assert.Subset(t, p.Skills, []string{"python", "machine learning", "natural language processing", "computer vision", "deep learning", "docker", "kubernetes"})
	assert.Equal(t, []string{"ai", "open-source"}, p.Interests)
	assert.Equal(t, []string{"big data processing", "deep learning", "neural networks"}, p.Expertise)
	assert.Equal(t, "Senior Software Engineer", p.JobRole)
	assert.Equal(t, "Google", p.Company)
	require.Len(t, p.JobHistory, 1)
	assert.Equal(t, models.JobHistory{Role: "Senior Software Engineer", Company: "Google"}, p.JobHistory[0])

	require.Len(t, p.Education, 1)
	assert.Equal(t, "Stanford University", p.Education[0].Institution)
	require.NotNil(t, p.Education[0].Year)
	assert.Equal(t, 2015, *p.Education[0].Year)

	require.NotNil(t, p.YearsOfExperience)
	assert.Equal(t, 8, *p.YearsOfExperience)
}

func TestRuleExtractor_DataScientist(t *testing.T) {
	p := extractExample(t, "data_scientist")

	assert.Equal(t, "Data Scientist", p.JobRole)
	assert.Equal(t, "Pfizer", p.Company)
	assert.Subset(t, p.Skills, []string{"r", "python", "sql", "tensorflow", "pytorch", "scikit-learn"})
	assert.Contains(t, p.Interests, "healthcare")
	assert.Subset(t, p.Expertise, []string{"predictive modeling", "statistical analysis", "machine learning", "data visualization", "experimental design"})
}

func TestRuleExtractor_ProductManager(t *testing.T) {
	p := extractExample(t, "product_manager")

	assert.Equal(t, "Product Manager", p.JobRole)
	assert.Empty(t, p.Company)
	require.Len(t, p.JobHistory, 1)
	assert.Equal(t, "Microsoft", p.JobHistory[0].Company)
	require.Len(t, p.Education, 1)
	assert.Equal(t, "Harvard Business School", p.Education[0].Institution)
	assert.Subset(t, p.Interests, []string{"ai", "user experience", "product strategy"})
}

func TestRuleExtractor_Rules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, p *models.TranscriptProfile)
	}{
		{
			name: "empty transcript",
			text: "   \n ",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.True(t, p.Empty())
				assert.NotNil(t, p.Skills)
			},
		},
		{
			name: "aliases resolve to canonical entries",
			text: "I love NLP and I deploy to k8s every day.",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.Equal(t, []string{"kubernetes", "natural language processing"}, p.Skills)
			},
		},
		{
			name: "phrases need word boundaries",
			text: "She said the paint was sustainable.",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.Empty(t, p.Interests)
			},
		},
		{
			name: "location",
			text: "I'm based in Berlin and love it.",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.Equal(t, "Berlin", p.Location)
			},
		},
		{
			name: "duplicates removed",
			text: "Python. More python. I am experienced in Go and go.",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.Equal(t, []string{"python"}, p.Skills)
				assert.Equal(t, []string{"go"}, p.Expertise)
			},
		},
		{
			name: "has a is not a role",
			text: "The team has a manager.",
			check: func(t *testing.T, p *models.TranscriptProfile) {
				assert.Empty(t, p.JobRole)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newRules().Extract(context.Background(), tt.text)
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestExamples(t *testing.T) {
	assert.Equal(t, []string{"data_scientist", "product_manager", "software_engineer"}, ExampleIDs())

	_, ok := Example("astronaut")
	assert.False(t, ok)
}
