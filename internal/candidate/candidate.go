package candidate

const (
	DefaultClassification = "Unclassified"
	DefaultMatchedRole    = "None"
	NotSpecified          = "Not specified"
)

// Agent steps recorded on a candidate after a stage wrote it.
const (
	StepUploader   = "uploader"
	StepParser     = "resume_parser"
	StepClassifier = "classifier"
	StepMatcher    = "matcher"
	StepScorer     = "scorer"
	StepScheduler  = "scheduler"
)

// Item is a single candidate travelling through the pipeline.
type Item struct {
	ID         uint   `json:"id"`
	TaskID     string `json:"task_id"`
	FileName   string `json:"file_name"`
	ContentRef string `json:"content_ref,omitempty"`
	// Content is the raw resume text. It lives only in memory.
	Content string `json:"-"`

	Fields Fields `json:"fields"`

	Classification  string  `json:"classification"`
	MatchedRole     string  `json:"matched_role"`
	MatchScore      float64 `json:"match_score"`
	Score           float64 `json:"score"`
	FinalScore      float64 `json:"final_score"`
	EmailSent       bool    `json:"email_sent"`
	EmailStatus     string  `json:"email_status,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`

	AgentStep string `json:"agent_step"`
}

// Fields are the raw values extracted from a resume. Every value is kept as
// text; numeric interpretation happens in the scoring package.
type Fields struct {
	Name           string `json:"name,omitempty" mapstructure:"name"`
	Email          string `json:"email,omitempty" mapstructure:"email"`
	Phone          string `json:"phone,omitempty" mapstructure:"phone"`
	Skills         string `json:"skills,omitempty" mapstructure:"skills"`
	Experience     string `json:"experience,omitempty" mapstructure:"experience"`
	Education      string `json:"education,omitempty" mapstructure:"education"`
	Certifications string `json:"certifications,omitempty" mapstructure:"certifications"`
	Internships    string `json:"internships,omitempty" mapstructure:"internships"`
	PassedOutYear  string `json:"passed_out_year,omitempty" mapstructure:"passed_out_year"`
	CGPA           string `json:"cgpa,omitempty" mapstructure:"cgpa"`
	Percentage10th string `json:"percentage_10th,omitempty" mapstructure:"percentage_10th"`
	Percentage12th string `json:"percentage_12th,omitempty" mapstructure:"percentage_12th"`
	Sex            string `json:"sex,omitempty" mapstructure:"sex"`
	Location       string `json:"location,omitempty" mapstructure:"location"`
}

// New returns an item with domain defaults applied.
func New(taskID, fileName, content string) *Item {
	return &Item{
		TaskID:         taskID,
		FileName:       fileName,
		Content:        content,
		Classification: DefaultClassification,
		MatchedRole:    DefaultMatchedRole,
	}
}

// Clone returns a working copy. Stages mutate clones and write them back
// only after the per-item task finished.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Specified reports whether a raw field carries a usable value.
func Specified(value string) bool {
	return value != "" && value != NotSpecified
}
