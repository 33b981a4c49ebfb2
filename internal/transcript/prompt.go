package transcript

import (
	"fmt"
	"strings"

	"github.com/nexxt/connect/pkg/models"
)

// promptBuilder assembles the model input from the transcript and the facts
// the rule pass already found
type promptBuilder struct {
	transcript string
	facts      [][2]string
	context    []string
}

func newPromptBuilder(transcript string) *promptBuilder {
	return &promptBuilder{transcript: strings.TrimSpace(transcript)}
}

// addFact records a detected fact. Empty values are dropped.
func (pb *promptBuilder) addFact(key, value string) *promptBuilder {
	if value = strings.TrimSpace(value); value != "" {
		pb.facts = append(pb.facts, [2]string{key, value})
	}
	return pb
}

// addContext adds a free-form hint line
func (pb *promptBuilder) addContext(line string) *promptBuilder {
	if line = strings.TrimSpace(line); line != "" {
		pb.context = append(pb.context, line)
	}
	return pb
}

// withRuleOutput adds the scalar facts and the detected lists of p
func (pb *promptBuilder) withRuleOutput(p *models.TranscriptProfile) *promptBuilder {
	if p == nil {
		return pb
	}
	pb.addFact("job_role", p.JobRole).
		addFact("company", p.Company).
		addFact("location", p.Location)
	if p.YearsOfExperience != nil {
		pb.addFact("years_of_experience", fmt.Sprint(*p.YearsOfExperience))
	}
	if len(p.Skills) > 0 {
		pb.addContext("skills already found: " + strings.Join(p.Skills, ", "))
	}
	if len(p.Interests) > 0 {
		pb.addContext("interests already found: " + strings.Join(p.Interests, ", "))
	}
	return pb
}

func (pb *promptBuilder) build() string {
	parts := []string{"## Transcript:", pb.transcript}

	if len(pb.facts) > 0 {
		parts = append(parts, "\n## Detected Facts:")
		for _, f := range pb.facts {
			parts = append(parts, fmt.Sprintf("- %s: %s", f[0], f[1]))
		}
	}

	if len(pb.context) > 0 {
		parts = append(parts, "\n## Hints:")
		for _, c := range pb.context {
			parts = append(parts, "- "+c)
		}
	}

	return strings.Join(parts, "\n")
}
