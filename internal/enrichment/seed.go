package enrichment

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/nexxt/connect/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary is the canonical seed list per vocabulary kind
type Vocabulary struct {
	Skills    []string `yaml:"skills"`
	Interests []string `yaml:"interests"`
	JobRoles  []string `yaml:"job_roles"`
	Companies []string `yaml:"companies"`
	Locations []string `yaml:"locations"`
}

// Entries flattens the vocabulary into kind/name pairs in a stable order
func (v *Vocabulary) Entries() []SeedEntry {
	var out []SeedEntry
	add := func(kind models.VocabularyKind, names []string) {
		for _, name := range names {
			out = append(out, SeedEntry{Kind: kind, Name: name})
		}
	}
	add(models.VocabularySkill, v.Skills)
	add(models.VocabularyInterest, v.Interests)
	add(models.VocabularyJobRole, v.JobRoles)
	add(models.VocabularyCompany, v.Companies)
	add(models.VocabularyLocation, v.Locations)
	return out
}

// SeedEntry is a single vocabulary term
type SeedEntry struct {
	Kind models.VocabularyKind
	Name string
}

// LoadVocabulary reads a vocabulary file, or the built-in list when path is empty
func LoadVocabulary(path string) (*Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
		}
		data = b
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return &v, nil
}

// SeedResult counts the outcome of a seed run
type SeedResult struct {
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Seed embeds and stores every vocabulary entry. It is safe to run repeatedly;
// existing entries only gain a missing embedding.
func (n *Normalizer) Seed(ctx context.Context, v *Vocabulary) (SeedResult, error) {
	var result SeedResult
	for _, entry := range v.Entries() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		vec := n.embed(ctx, entry.Name)
		changed, err := n.store.SeedVocabulary(ctx, entry.Kind, entry.Name, vec)
		switch {
		case err != nil:
			log.Printf("[ENRICHMENT]: failed to seed %s %q: %v", entry.Kind, entry.Name, err)
			result.Failed++
		case changed:
			result.Changed++
		default:
			result.Unchanged++
		}
	}
	return result, nil
}

// SeedLines seeds one vocabulary kind from a reader holding one name per line.
// Blank lines and repeated names (ignoring case) are skipped.
func (n *Normalizer) SeedLines(ctx context.Context, kind models.VocabularyKind, r io.Reader) (SeedResult, error) {
	if !kind.Valid() {
		return SeedResult{}, fmt.Errorf("unknown vocabulary kind %q", kind)
	}

	seen := make(map[string]bool)
	v := &Vocabulary{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		switch kind {
		case models.VocabularySkill:
			v.Skills = append(v.Skills, name)
		case models.VocabularyInterest:
			v.Interests = append(v.Interests, name)
		case models.VocabularyJobRole:
			v.JobRoles = append(v.JobRoles, name)
		case models.VocabularyCompany:
			v.Companies = append(v.Companies, name)
		case models.VocabularyLocation:
			v.Locations = append(v.Locations, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return SeedResult{}, fmt.Errorf("failed to read vocabulary lines: %w", err)
	}

	return n.Seed(ctx, v)
}
