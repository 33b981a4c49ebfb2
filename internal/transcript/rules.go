package transcript

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/nexxt/connect/internal/tuning"
	"github.com/nexxt/connect/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	expertiseMarkers = []string{"expertise includes", "expertise in", "experienced in", "specialize in", "specialise in"}
	roleMarkers      = []string{"i'm a ", "i'm an ", "i am a ", "i am an ", "as a ", "as an "}
	companyMarkers   = []string{"working at ", "work at "}
	pastMarkers      = []string{"worked at "}
	locationMarkers  = []string{"based in ", "live in ", "living in ", "located in "}

	// Words that end a job role phrase
	roleStops = map[string]bool{
		"with": true, "at": true, "in": true, "for": true, "and": true, "who": true,
		"where": true, "from": true, "focusing": true, "specializing": true, "on": true,
		"working": true, "currently": true, "based": true, "that": true,
	}

	sentenceSplit = regexp.MustCompile(`[.!?\n]+`)
	listSplit     = regexp.MustCompile(`\s*(?:,|;|\band\b|\bor\b)\s*`)
	institution   = regexp.MustCompile(`(?:[A-Z][\w&'.-]*\s+)*(?:University|College|Institute|School)(?:\s+of(?:\s+[A-Z][\w&'.-]*)+)?`)
	yearPattern   = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	yearsPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})\+?\s+years?\s+of\s+(?:[a-z]+\s+)?experience\b`)
)

type phrase struct {
	canonical string
	pattern   *regexp.Regexp
}

// RuleExtractor pulls profile facts from a transcript with phrase and pattern
// rules. It is deterministic and needs no external service.
type RuleExtractor struct {
	skills    []phrase
	interests []phrase
	title     cases.Caser
}

// NewRuleExtractor compiles the lexicon. Aliases resolve to the entry they name
// in either list.
func NewRuleExtractor(lexicon tuning.Lexicon) *RuleExtractor {
	r := &RuleExtractor{title: cases.Title(language.English)}

	inList := func(list []string, v string) bool { return slices.Contains(list, v) }
	for _, s := range lexicon.Skills {
		r.skills = append(r.skills, compilePhrase(s, s))
	}
	for _, i := range lexicon.Interests {
		r.interests = append(r.interests, compilePhrase(i, i))
	}
	for alias, canonical := range lexicon.Aliases {
		alias, canonical = strings.ToLower(alias), strings.ToLower(canonical)
		switch {
		case inList(lexicon.Skills, canonical):
			r.skills = append(r.skills, compilePhrase(alias, canonical))
		case inList(lexicon.Interests, canonical):
			r.interests = append(r.interests, compilePhrase(alias, canonical))
		}
	}
	return r
}

func compilePhrase(text, canonical string) phrase {
	text = strings.ToLower(strings.TrimSpace(text))
	return phrase{
		canonical: strings.ToLower(strings.TrimSpace(canonical)),
		pattern:   regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(text) + `(?:[^a-z0-9]|$)`),
	}
}

func (r *RuleExtractor) Name() string { return "rules" }

// Extract runs every rule over the transcript. An empty transcript yields an
// empty profile.
func (r *RuleExtractor) Extract(ctx context.Context, text string) (*models.TranscriptProfile, error) {
	p := emptyProfile()
	if strings.TrimSpace(text) == "" {
		return p, nil
	}

	lower := strings.ToLower(text)
	p.Skills = matchPhrases(lower, r.skills)
	p.Interests = matchPhrases(lower, r.interests)

	for _, sentence := range sentenceSplit.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		ls := strings.ToLower(sentence)

		if rest, ok := after(sentence, ls, expertiseMarkers); ok {
			for _, item := range listSplit.Split(rest, -1) {
				if item = strings.TrimSpace(item); item != "" {
					p.Expertise = append(p.Expertise, strings.ToLower(item))
				}
			}
		}

		if p.JobRole == "" {
			if rest, ok := after(sentence, ls, roleMarkers); ok {
				p.JobRole = r.title.String(roleWords(rest))
			}
		}

		if rest, ok := after(sentence, ls, companyMarkers); ok {
			if company := capitalised(rest); company != "" {
				p.Company = company
				p.JobHistory = append(p.JobHistory, models.JobHistory{Role: orUnknown(p.JobRole), Company: company})
			}
		} else if rest, ok := after(sentence, ls, pastMarkers); ok {
			if company := capitalised(rest); company != "" {
				p.JobHistory = append(p.JobHistory, models.JobHistory{Role: "Unknown", Company: company})
			}
		}

		if p.Location == "" {
			if rest, ok := after(sentence, ls, locationMarkers); ok {
				p.Location = capitalised(rest)
			}
		}

		for _, name := range institution.FindAllString(sentence, -1) {
			edu := models.Education{Institution: strings.TrimSpace(name)}
			if y := yearPattern.FindString(sentence); y != "" {
				year, _ := strconv.Atoi(y)
				edu.Year = &year
			}
			p.Education = append(p.Education, edu)
		}

		if p.YearsOfExperience == nil {
			if m := yearsPattern.FindStringSubmatch(sentence); m != nil {
				years, _ := strconv.Atoi(m[1])
				p.YearsOfExperience = &years
			}
		}
	}

	finish(p)
	return p, nil
}

func emptyProfile() *models.TranscriptProfile {
	return &models.TranscriptProfile{
		Skills:     []string{},
		Expertise:  []string{},
		Interests:  []string{},
		Education:  []models.Education{},
		JobHistory: []models.JobHistory{},
	}
}

// finish deduplicates and sorts the list fields. Education entries without an
// institution are dropped.
func finish(p *models.TranscriptProfile) {
	p.Skills = sortedUnique(p.Skills)
	p.Expertise = sortedUnique(p.Expertise)
	p.Interests = sortedUnique(p.Interests)

	seen := make(map[string]bool)
	education := p.Education[:0]
	for _, e := range p.Education {
		e.Institution = strings.TrimSpace(e.Institution)
		if e.Institution == "" {
			continue
		}
		if key := strings.ToLower(e.Institution); !seen[key] {
			seen[key] = true
			education = append(education, e)
		}
	}
	p.Education = education
	slices.SortFunc(p.Education, func(a, b models.Education) int { return strings.Compare(a.Institution, b.Institution) })
}

func sortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func matchPhrases(lower string, phrases []phrase) []string {
	var out []string
	for _, ph := range phrases {
		if ph.pattern.MatchString(lower) {
			out = append(out, ph.canonical)
		}
	}
	return out
}

// after returns the text following the first marker found in the sentence,
// with its original casing. A marker must start at a word boundary.
func after(sentence, lower string, markers []string) (string, bool) {
	for _, m := range markers {
		from := 0
		for {
			idx := strings.Index(lower[from:], m)
			if idx < 0 {
				break
			}
			idx += from
			if idx > 0 && unicode.IsLetter(rune(lower[idx-1])) {
				from = idx + 1
				continue
			}

			start := idx + len(m)
			if len(lower) != len(sentence) {
				return strings.TrimSpace(lower[start:]), true
			}
			return strings.TrimSpace(sentence[start:]), true
		}
	}
	return "", false
}

// roleWords reads a job title up to the first stop word or punctuation
func roleWords(rest string) string {
	var words []string
	for _, w := range strings.Fields(rest) {
		trimmed := strings.TrimRight(w, ",;:")
		if roleStops[strings.ToLower(trimmed)] || len(words) == 5 {
			break
		}
		words = append(words, strings.ToLower(trimmed))
		if trimmed != w {
			break
		}
	}
	return strings.Join(words, " ")
}

// capitalised reads consecutive capitalised words, as in a proper noun
func capitalised(rest string) string {
	var words []string
	for _, w := range strings.Fields(rest) {
		trimmed := strings.TrimRight(w, ",;:")
		if trimmed == "" || !unicode.IsUpper([]rune(trimmed)[0]) {
			break
		}
		words = append(words, trimmed)
		if trimmed != w {
			break
		}
	}
	return strings.Join(words, " ")
}

func orUnknown(role string) string {
	if role == "" {
		return "Unknown"
	}
	return role
}
