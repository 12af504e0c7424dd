package store

import "github.com/spigell/talent-screener/internal/candidate"

// Column names of the candidates table that stages update.
const (
	ColumnContentRef      = "content_ref"
	ColumnClassification  = "classification"
	ColumnMatchedRole     = "matched_role"
	ColumnMatchScore      = "match_score"
	ColumnScore           = "score"
	ColumnFinalScore      = "final_score"
	ColumnEmailSent       = "email_sent"
	ColumnEmailStatus     = "email_status"
	ColumnRejectionReason = "rejection_reason"
	ColumnAgentStep       = "agent_step"
)

var fieldColumns = []string{
	"name", "email", "phone", "skills", "experience", "education",
	"certifications", "internships", "passed_out_year", "cgpa",
	"percentage_10th", "percentage_12th", "sex", "location",
}

// Changes is a column to value set applied by Repository.Update.
type Changes map[string]any

// FieldChanges sets every raw field. Empty values are stored as NULL.
func FieldChanges(f candidate.Fields) Changes {
	values := []string{
		f.Name, f.Email, f.Phone, f.Skills, f.Experience, f.Education,
		f.Certifications, f.Internships, f.PassedOutYear, f.CGPA,
		f.Percentage10th, f.Percentage12th, f.Sex, f.Location,
	}

	c := make(Changes, len(fieldColumns)+1)
	for i, column := range fieldColumns {
		if values[i] == "" {
			c[column] = nil
			continue
		}
		c[column] = values[i]
	}
	return c
}

// Step records the agent step that wrote the changes.
func (c Changes) Step(step string) Changes {
	c[ColumnAgentStep] = step
	return c
}
