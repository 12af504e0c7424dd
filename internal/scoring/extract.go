package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talent-screener/internal/candidate"
)

// floorYears is assumed when experience is described but not quantified.
const floorYears = 0.5

var (
	yearsRe  = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:years?|yrs?)`)
	monthsRe = regexp.MustCompile(`(?i)(\d+)\s*months?`)
	numberRe = regexp.MustCompile(`\d+\.?\d*`)
)

// Years parses experience years from free text. Precedence:
//  1. the sum of all "<n> years" / "<n> yrs" mentions;
//  2. otherwise the sum of all "<n> months" mentions divided by 12;
//  3. otherwise 0.5 for any specified text;
//  4. otherwise 0.
func Years(text string) float64 {
	text = strings.TrimSpace(text)
	if !candidate.Specified(text) {
		return 0
	}

	if years, ok := sumMatches(yearsRe, text); ok {
		return years
	}
	if months, ok := sumMatches(monthsRe, text); ok {
		return months / 12
	}
	return floorYears
}

// CombinedYears folds internship durations into the experience years. Every
// year and month mention of both texts is summed; unquantified but specified
// text counts as 0.5.
func CombinedYears(experience, internships string) float64 {
	var texts []string
	for _, t := range []string{experience, internships} {
		if t = strings.TrimSpace(t); candidate.Specified(t) {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return 0
	}

	combined := strings.Join(texts, " ")
	years, _ := sumMatches(yearsRe, combined)
	months, _ := sumMatches(monthsRe, combined)

	total := years + months/12
	if total == 0 {
		return floorYears
	}
	return total
}

// FirstNumber returns the first number found in text, 0 when there is none.
func FirstNumber(text string) float64 {
	match := numberRe.FindString(text)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}

// SplitSkills turns a comma delimited skills field into lowercase entries,
// dropping empty ones.
func SplitSkills(skills string) []string {
	if !candidate.Specified(strings.TrimSpace(skills)) {
		return nil
	}

	parts := strings.Split(skills, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func sumMatches(re *regexp.Regexp, text string) (float64, bool) {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var total float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		total += v
	}
	return total, true
}
