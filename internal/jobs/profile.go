package jobs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultMinExp = 0
	defaultMaxExp = 1
)

var (
	skillsSectionRe   = regexp.MustCompile(`(?is)Requires skills in (.*?)(?:\s*\.|$)`)
	experienceRangeRe = regexp.MustCompile(`(?i)(\d+)-(\d+)\s*years?`)
)

// Profile describes an open role that candidates are matched against.
type Profile struct {
	Role   string   `json:"role" yaml:"role"`
	Skills []string `json:"skills" yaml:"skills"`
	MinExp float64  `json:"min_exp" yaml:"min_exp"`
	MaxExp float64  `json:"max_exp" yaml:"max_exp"`
}

// Description is a raw job description row.
type Description struct {
	Role string `yaml:"role"`
	Text string `yaml:"text"`
}

// Profiles is the ordered set of roles loaded for a run.
type Profiles struct {
	Items []*Profile
}

// FromDescription derives a profile from a free text job description.
func FromDescription(d Description) (*Profile, error) {
	role := strings.TrimSpace(d.Role)
	if role == "" {
		return nil, fmt.Errorf("job description without role")
	}

	minExp, maxExp := ExperienceRange(d.Text)
	return &Profile{
		Role:   role,
		Skills: NormalizeSkills(ExtractSkills(d.Text)),
		MinExp: minExp,
		MaxExp: maxExp,
	}, nil
}

// NewProfiles validates role uniqueness and normalizes skills.
func NewProfiles(items ...*Profile) (*Profiles, error) {
	seen := make(map[string]struct{}, len(items))
	for _, p := range items {
		if p == nil {
			return nil, fmt.Errorf("nil job profile")
		}
		p.Role = strings.TrimSpace(p.Role)
		if p.Role == "" {
			return nil, fmt.Errorf("job profile without role")
		}
		if _, ok := seen[p.Role]; ok {
			return nil, fmt.Errorf("duplicate job profile role %q", p.Role)
		}
		if p.MinExp > p.MaxExp {
			return nil, fmt.Errorf("job profile %q: min experience %.1f is greater than max %.1f", p.Role, p.MinExp, p.MaxExp)
		}
		seen[p.Role] = struct{}{}
		p.Skills = NormalizeSkills(p.Skills)
	}
	return &Profiles{Items: items}, nil
}

func (p *Profiles) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Profiles) Roles() []string {
	roles := make([]string, 0, p.Len())
	if p == nil {
		return roles
	}
	for _, profile := range p.Items {
		roles = append(roles, profile.Role)
	}
	return roles
}

// FindByRole returns the profile whose role equals the given one exactly.
func (p *Profiles) FindByRole(role string) *Profile {
	if p == nil {
		return nil
	}
	for _, profile := range p.Items {
		if profile.Role == role {
			return profile
		}
	}
	return nil
}

// NormalizeSkills lowercases, trims and de-duplicates skills keeping the first occurrence.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		result = append(result, skill)
	}
	return result
}

// ExtractSkills reads the "Requires skills in ..." sentence of a job description.
// Alternatives joined by "or"/"and" become separate skills and the contents of
// parentheses are split into their own entries.
func ExtractSkills(text string) []string {
	match := skillsSectionRe.FindStringSubmatch(text)
	if match == nil {
		return nil
	}

	section := strings.TrimSpace(match[1])
	if section == "" {
		return nil
	}

	section = strings.ReplaceAll(section, " or ", ", ")
	section = strings.ReplaceAll(section, " and ", ", ")
	section = strings.ReplaceAll(section, "HTML/CSS", "HTML, CSS")

	var (
		skills  []string
		current strings.Builder
		inside  bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			skills = append(skills, s)
		}
		current.Reset()
	}

	for _, r := range section {
		switch {
		case r == '(':
			inside = true
			flush()
		case r == ')':
			inside = false
			for _, sub := range strings.Split(current.String(), ",") {
				if sub = strings.TrimSpace(sub); sub != "" {
					skills = append(skills, sub)
				}
			}
			current.Reset()
		case r == ',' && !inside:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	seen := make(map[string]struct{}, len(skills))
	unique := skills[:0]
	for _, s := range skills {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		unique = append(unique, s)
	}
	return unique
}

// ExperienceRange reads an "N-M years" range, defaulting to 0-1.
func ExperienceRange(text string) (float64, float64) {
	match := experienceRangeRe.FindStringSubmatch(text)
	if match == nil {
		return defaultMinExp, defaultMaxExp
	}

	minExp, errMin := strconv.Atoi(match[1])
	maxExp, errMax := strconv.Atoi(match[2])
	if errMin != nil || errMax != nil {
		return defaultMinExp, defaultMaxExp
	}
	return float64(minExp), float64(maxExp)
}
