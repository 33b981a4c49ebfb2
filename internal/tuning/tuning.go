// Package tuning loads the recommender tuning file.
package tuning

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultTuning []byte

// Weights are the unified ranking weights per category
type Weights struct {
	Demographics float64 `yaml:"demographics"`
	Interests    float64 `yaml:"interests"`
	Skills       float64 `yaml:"skills"`
}

// Limits bound how many recommendations are fetched and returned
type Limits struct {
	CategoryDefault int `yaml:"category_default"`
	UnifiedDefault  int `yaml:"unified_default"`
	FetchMultiplier int `yaml:"fetch_multiplier"`
	Max             int `yaml:"max"`
}

// Similarity are the node similarity write parameters
type Similarity struct {
	TopK   int     `yaml:"top_k"`
	Cutoff float64 `yaml:"cutoff"`
}

// Normalizer tunes vocabulary resolution
type Normalizer struct {
	Candidates        int     `yaml:"candidates"`
	MaxVectorDistance float64 `yaml:"max_vector_distance"`
}

// Lexicon is the phrase list used by the rule-based transcript extractor.
// Aliases map an alternative phrase onto a canonical lexicon entry.
type Lexicon struct {
	Skills    []string          `yaml:"skills"`
	Interests []string          `yaml:"interests"`
	Aliases   map[string]string `yaml:"aliases"`
}

// Tuning is the full tuning file
type Tuning struct {
	Weights    Weights    `yaml:"weights"`
	Limits     Limits     `yaml:"limits"`
	Similarity Similarity `yaml:"similarity"`
	Normalizer Normalizer `yaml:"normalizer"`
	Transcript Lexicon    `yaml:"transcript"`
}

// Default returns the built-in tuning
func Default() *Tuning {
	t, err := parse(defaultTuning, nil)
	if err != nil {
		panic(fmt.Sprintf("built-in tuning is invalid: %v", err))
	}
	return t
}

// Load reads a tuning file layered over the built-in defaults. An empty path
// returns the defaults.
func Load(path string) (*Tuning, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	return parse(data, Default())
}

func parse(data []byte, base *Tuning) (*Tuning, error) {
	t := &Tuning{}
	if base != nil {
		t = base
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate rejects settings the recommender cannot run with
func (t *Tuning) Validate() error {
	w := t.Weights
	if w.Demographics < 0 || w.Interests < 0 || w.Skills < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if t.Limits.CategoryDefault <= 0 || t.Limits.UnifiedDefault <= 0 {
		return fmt.Errorf("default limits must be positive")
	}
	if t.Limits.FetchMultiplier < 1 {
		return fmt.Errorf("fetch_multiplier must be at least 1")
	}
	if t.Limits.Max < t.Limits.UnifiedDefault || t.Limits.Max < t.Limits.CategoryDefault {
		return fmt.Errorf("max limit must not be below the default limits")
	}
	if t.Similarity.TopK <= 0 {
		return fmt.Errorf("similarity top_k must be positive")
	}
	if t.Similarity.Cutoff < 0 || t.Similarity.Cutoff > 1 {
		return fmt.Errorf("similarity cutoff must be within [0, 1]")
	}
	return nil
}
