package scoring

import (
	"strings"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/jobs"
)

const passingMark = 60

// Weights are the heuristic constants of the final score.
type Weights struct {
	NoExperience float64 `mapstructure:"no-experience"`
	InRange      float64 `mapstructure:"in-range"`
	OutOfRange   float64 `mapstructure:"out-of-range"`
	SkillsMax    float64 `mapstructure:"skills-max"`
	CGPAHigh     float64 `mapstructure:"cgpa-high"`
	CGPALow      float64 `mapstructure:"cgpa-low"`
	DegreeOnly   float64 `mapstructure:"degree-only"`
	Secondary    float64 `mapstructure:"secondary"`
}

func DefaultWeights() Weights {
	return Weights{
		NoExperience: 10,
		InRange:      20,
		OutOfRange:   15,
		SkillsMax:    60,
		CGPAHigh:     10,
		CGPALow:      5,
		DegreeOnly:   8,
		Secondary:    5,
	}
}

// Breakdown holds the components of a final score.
type Breakdown struct {
	Years      float64
	Experience float64
	Skills     float64
	Education  float64
}

func (b Breakdown) Total() float64 {
	return b.Experience + b.Skills + b.Education
}

// Engine computes final scores of candidates against their matched profile.
type Engine struct {
	weights  Weights
	synonyms map[string]string
}

type Option func(*Engine)

func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// WithSynonyms replaces the synonym table. A required skill found in the table
// also matches any candidate skill containing the mapped value.
func WithSynonyms(synonyms map[string]string) Option {
	return func(e *Engine) {
		e.synonyms = make(map[string]string, len(synonyms))
		for k, v := range synonyms {
			e.synonyms[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		weights:  DefaultWeights(),
		synonyms: map[string]string{"microsoft excel": "excel"},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Score returns the breakdown of the candidate against the profile. A nil
// profile yields a zero breakdown.
func (e *Engine) Score(item *candidate.Item, profile *jobs.Profile) Breakdown {
	if item == nil || profile == nil {
		return Breakdown{}
	}

	years := CombinedYears(item.Fields.Experience, item.Fields.Internships)
	return Breakdown{
		Years:      years,
		Experience: e.experience(years, profile),
		Skills:     e.weights.SkillsMax * e.SkillRatio(SplitSkills(item.Fields.Skills), profile.Skills),
		Education:  e.education(item.Fields),
	}
}

func (e *Engine) experience(years float64, profile *jobs.Profile) float64 {
	switch {
	case years == 0:
		return e.weights.NoExperience
	case profile.MinExp <= years && years <= profile.MaxExp:
		return e.weights.InRange
	default:
		return e.weights.OutOfRange
	}
}

// SkillRatio is the share of required skills matched with flexible rules:
// containment in either direction, "a or b" alternatives and synonyms.
func (e *Engine) SkillRatio(candidateSkills, required []string) float64 {
	if len(required) == 0 {
		return 0
	}

	matched := 0
	for _, req := range required {
		for _, skill := range candidateSkills {
			if skill == "" {
				continue
			}
			if e.skillMatches(req, skill) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(required))
}

func (e *Engine) skillMatches(req, skill string) bool {
	if strings.Contains(skill, req) || strings.Contains(req, skill) {
		return true
	}

	if strings.Contains(req, " or ") {
		for _, alt := range strings.Split(req, " or ") {
			if alt = strings.TrimSpace(alt); alt != "" && strings.Contains(skill, alt) {
				return true
			}
		}
	}

	if synonym, ok := e.synonyms[req]; ok && synonym != "" && strings.Contains(skill, synonym) {
		return true
	}
	return false
}

func (e *Engine) education(f candidate.Fields) float64 {
	var score float64

	cgpa := FirstNumber(f.CGPA)
	switch {
	case cgpa >= passingMark:
		score += e.weights.CGPAHigh
	case cgpa > 0:
		score += e.weights.CGPALow
	case candidate.Specified(strings.TrimSpace(f.Education)):
		score += e.weights.DegreeOnly
	}

	if FirstNumber(f.Percentage10th) >= passingMark {
		score += e.weights.Secondary
	}
	if FirstNumber(f.Percentage12th) >= passingMark {
		score += e.weights.Secondary
	}
	return score
}

// SkillOverlap is the exact set overlap used for role matching:
// |candidate ∩ required| / |required|, 0 when nothing is required.
func SkillOverlap(candidateSkills, required []string) float64 {
	if len(required) == 0 {
		return 0
	}

	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		have[s] = struct{}{}
	}

	seen := make(map[string]struct{}, len(required))
	matched := 0
	for _, r := range required {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := have[r]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}
