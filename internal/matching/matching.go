package matching

import (
	"strings"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/jobs"
	"github.com/spigell/talent-screener/internal/scoring"
)

const (
	skillsWeight     = 0.7
	experienceWeight = 0.3
	fullMark         = 100.0
)

// Result is the outcome of matching one candidate.
type Result struct {
	Role  string
	Score float64
}

// Match selects the best eligible profile for the candidate. Only profiles
// whose role equals the candidate classification (case-insensitive) are
// eligible. The strictly highest composite wins and the first one is kept on
// ties; a composite of 0 never wins.
func Match(item *candidate.Item, profiles *jobs.Profiles) Result {
	none := Result{Role: candidate.DefaultMatchedRole}
	if item == nil {
		return none
	}

	skills := scoring.SplitSkills(item.Fields.Skills)
	if len(skills) == 0 {
		return none
	}

	years := scoring.Years(item.Fields.Experience)

	best := none
	if profiles == nil {
		return best
	}
	for _, profile := range profiles.Items {
		if !strings.EqualFold(item.Classification, profile.Role) {
			continue
		}
		if score := Composite(skills, years, profile); score > best.Score {
			best = Result{Role: profile.Role, Score: score}
		}
	}
	return best
}

// Composite is 0.7 times the skill overlap plus 0.3 times the experience fit,
// both on a 0-100 scale.
func Composite(skills []string, years float64, profile *jobs.Profile) float64 {
	experience := 0.0
	if profile.MinExp <= years && years <= profile.MaxExp {
		experience = fullMark
	}
	overlap := scoring.SkillOverlap(skills, profile.Skills) * fullMark
	return skillsWeight*overlap + experienceWeight*experience
}
