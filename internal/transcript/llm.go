package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nexxt/connect/pkg/models"
	"github.com/nexxt/connect/pkg/utils"
	"github.com/nlpodyssey/openai-agents-go/agents"
)

const defaultInstructions = `You extract professional profile facts from a spoken self-introduction.
Reply with a single JSON object and nothing else, using exactly these keys:
{"skills": [string], "expertise": [string], "interests": [string],
 "education": [{"institution": string, "degree": string, "year": number|null}],
 "job_history": [{"role": string, "company": string, "start_year": number|null, "end_year": number|null}],
 "job_role": string, "company": string, "location": string, "years_of_experience": number|null}
Use lowercase for skills, expertise and interests. Use an empty list or empty string when a fact is not stated.
Never invent facts that the speaker did not say. Facts listed under "Detected Facts" were
found by a rule pass; keep them unless the transcript clearly contradicts them.`

// runAgent is replaced in tests
type runAgent func(ctx context.Context, agent *agents.Agent, input string) (string, error)

func runWithAgents(ctx context.Context, agent *agents.Agent, input string) (string, error) {
	result, err := agents.Run(ctx, agent, input)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(result.FinalOutput), nil
}

// LLMExtractor asks a language model for the profile and merges the answer
// with the rule-based extraction. Rule output is returned alone when the model
// call fails.
type LLMExtractor struct {
	agent *agents.Agent
	rules *RuleExtractor
	run   runAgent
}

// NewLLMExtractor creates the extractor. Instructions are read from
// TRANSCRIPT_PROMPT_PATH when set.
func NewLLMExtractor(cfg *utils.Config, rules *RuleExtractor) (*LLMExtractor, error) {
	model := cfg.Get("MODEL")
	if model == "" {
		return nil, errors.New("MODEL not set in environment")
	}

	instructions := utils.LoadPromptWithFallback(cfg.Get("TRANSCRIPT_PROMPT_PATH"), defaultInstructions)
	return &LLMExtractor{
		agent: agents.New("transcript-extractor").
			WithInstructions(instructions).
			WithModel(model),
		rules: rules,
		run:   runWithAgents,
	}, nil
}

func (e *LLMExtractor) Name() string { return "llm" }

func (e *LLMExtractor) Extract(ctx context.Context, text string) (*models.TranscriptProfile, error) {
	base, err := e.rules.Extract(ctx, text)
	if err != nil || strings.TrimSpace(text) == "" {
		return base, err
	}

	input := newPromptBuilder(text).withRuleOutput(base).build()
	output, err := e.run(ctx, e.agent, input)
	if err != nil {
		log.Printf("[TRANSCRIPT]: Model extraction failed, using rule output: %v", err)
		return base, nil
	}

	extracted, err := parseModelOutput(output)
	if err != nil {
		log.Printf("[TRANSCRIPT]: Could not parse model output, using rule output: %v", err)
		return base, nil
	}

	return mergeProfiles(base, extracted), nil
}

// parseModelOutput decodes the JSON object in a model reply, tolerating code fences
func parseModelOutput(output string) (*models.TranscriptProfile, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in model output")
	}

	var p models.TranscriptProfile
	if err := json.Unmarshal([]byte(output[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("failed to decode model output: %w", err)
	}
	return &p, nil
}

// mergeProfiles unions the list fields. Scalar facts from the rules win; the
// model only fills the ones the rules left empty.
func mergeProfiles(rules, model *models.TranscriptProfile) *models.TranscriptProfile {
	out := emptyProfile()

	lower := func(values []string) []string {
		res := make([]string, len(values))
		for i, v := range values {
			res[i] = strings.ToLower(v)
		}
		return res
	}
	out.Skills = append(append(out.Skills, rules.Skills...), lower(model.Skills)...)
	out.Expertise = append(append(out.Expertise, rules.Expertise...), lower(model.Expertise)...)
	out.Interests = append(append(out.Interests, rules.Interests...), lower(model.Interests)...)
	out.Education = append(append(out.Education, rules.Education...), model.Education...)
	out.JobHistory = append(out.JobHistory, rules.JobHistory...)
	for _, j := range model.JobHistory {
		known := false
		for _, r := range rules.JobHistory {
			if strings.EqualFold(r.Company, j.Company) {
				known = true
				break
			}
		}
		if !known {
			out.JobHistory = append(out.JobHistory, j)
		}
	}

	out.JobRole = firstNonEmpty(rules.JobRole, model.JobRole)
	out.Company = firstNonEmpty(rules.Company, model.Company)
	out.Location = firstNonEmpty(rules.Location, model.Location)
	out.YearsOfExperience = rules.YearsOfExperience
	if out.YearsOfExperience == nil {
		out.YearsOfExperience = model.YearsOfExperience
	}

	finish(out)
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
