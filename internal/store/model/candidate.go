package model

import (
	"time"

	"github.com/spigell/talent-screener/internal/candidate"
)

// Candidate is the persisted form of a candidate. Raw fields stay NULL until
// the parser fills them.
type Candidate struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TaskID     string `gorm:"column:task_id;not null;index;uniqueIndex:idx_candidates_task_file"`
	FileName   string `gorm:"column:file_name;not null;uniqueIndex:idx_candidates_task_file"`
	ContentRef string `gorm:"column:content_ref"`

	Name           *string `gorm:"column:name"`
	Email          *string `gorm:"column:email"`
	Phone          *string `gorm:"column:phone"`
	Skills         *string `gorm:"column:skills;type:text"`
	Experience     *string `gorm:"column:experience;type:text"`
	Education      *string `gorm:"column:education;type:text"`
	Certifications *string `gorm:"column:certifications;type:text"`
	Internships    *string `gorm:"column:internships;type:text"`
	PassedOutYear  *string `gorm:"column:passed_out_year"`
	CGPA           *string `gorm:"column:cgpa"`
	Percentage10th *string `gorm:"column:percentage_10th"`
	Percentage12th *string `gorm:"column:percentage_12th"`
	Sex            *string `gorm:"column:sex"`
	Location       *string `gorm:"column:location"`

	Classification  string  `gorm:"column:classification;not null;default:Unclassified"`
	MatchedRole     string  `gorm:"column:matched_role;not null;default:None"`
	MatchScore      float64 `gorm:"column:match_score;not null;default:0"`
	Score           float64 `gorm:"column:score;not null;default:0"`
	FinalScore      float64 `gorm:"column:final_score;not null;default:0"`
	EmailSent       bool    `gorm:"column:email_sent;not null;default:false"`
	EmailStatus     *string `gorm:"column:email_status"`
	RejectionReason *string `gorm:"column:rejection_reason"`

	AgentStep string `gorm:"column:agent_step;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Candidate) TableName() string {
	return "candidates"
}

func NewCandidate(item *candidate.Item) *Candidate {
	c := &Candidate{
		ID:              item.ID,
		TaskID:          item.TaskID,
		FileName:        item.FileName,
		ContentRef:      item.ContentRef,
		Name:            nullable(item.Fields.Name),
		Email:           nullable(item.Fields.Email),
		Phone:           nullable(item.Fields.Phone),
		Skills:          nullable(item.Fields.Skills),
		Experience:      nullable(item.Fields.Experience),
		Education:       nullable(item.Fields.Education),
		Certifications:  nullable(item.Fields.Certifications),
		Internships:     nullable(item.Fields.Internships),
		PassedOutYear:   nullable(item.Fields.PassedOutYear),
		CGPA:            nullable(item.Fields.CGPA),
		Percentage10th:  nullable(item.Fields.Percentage10th),
		Percentage12th:  nullable(item.Fields.Percentage12th),
		Sex:             nullable(item.Fields.Sex),
		Location:        nullable(item.Fields.Location),
		Classification:  item.Classification,
		MatchedRole:     item.MatchedRole,
		MatchScore:      item.MatchScore,
		Score:           item.Score,
		FinalScore:      item.FinalScore,
		EmailSent:       item.EmailSent,
		EmailStatus:     nullable(item.EmailStatus),
		RejectionReason: nullable(item.RejectionReason),
		AgentStep:       item.AgentStep,
	}
	if c.Classification == "" {
		c.Classification = candidate.DefaultClassification
	}
	if c.MatchedRole == "" {
		c.MatchedRole = candidate.DefaultMatchedRole
	}
	return c
}

func (c *Candidate) ToItem() *candidate.Item {
	return &candidate.Item{
		ID:         c.ID,
		TaskID:     c.TaskID,
		FileName:   c.FileName,
		ContentRef: c.ContentRef,
		Fields: candidate.Fields{
			Name:           value(c.Name),
			Email:          value(c.Email),
			Phone:          value(c.Phone),
			Skills:         value(c.Skills),
			Experience:     value(c.Experience),
			Education:      value(c.Education),
			Certifications: value(c.Certifications),
			Internships:    value(c.Internships),
			PassedOutYear:  value(c.PassedOutYear),
			CGPA:           value(c.CGPA),
			Percentage10th: value(c.Percentage10th),
			Percentage12th: value(c.Percentage12th),
			Sex:            value(c.Sex),
			Location:       value(c.Location),
		},
		Classification:  c.Classification,
		MatchedRole:     c.MatchedRole,
		MatchScore:      c.MatchScore,
		Score:           c.Score,
		FinalScore:      c.FinalScore,
		EmailSent:       c.EmailSent,
		EmailStatus:     value(c.EmailStatus),
		RejectionReason: value(c.RejectionReason),
		AgentStep:       c.AgentStep,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
