package pipeline

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/jobs"
	"github.com/spigell/talent-screener/internal/store"
)

//go:embed prompts/classifier.md
var classifierPrompt string

var classifierTemplate = template.Must(template.New("classifier").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(classifierPrompt))

var errEmptyLabel = errors.New("extraction returned an empty role label")

type classifier struct {
	stage
}

// NewClassifier creates the stage that labels candidates with one of the
// loaded roles. Failures leave the candidate Unclassified.
func NewClassifier(deps *Deps) Stage {
	return &classifier{stage{name: candidate.StepClassifier, reaches: StateClassified, deps: deps}}
}

func (s *classifier) Validate() error {
	return s.deps.requireExtractor()
}

func (s *classifier) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	if run.Profiles.Len() == 0 {
		return nil, Step{}, fmt.Errorf("%w: job profiles are required", ErrPrecondition)
	}

	instruction, err := ClassifierInstruction(run.Profiles)
	if err != nil {
		return nil, Step{}, err
	}

	process := func(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
		return s.classify(ctx, log, instruction, item)
	}
	return s.apply(ctx, run, batch, process, func(item *candidate.Item, _ error) *candidate.Item {
		item.Classification = candidate.DefaultClassification
		return item
	})
}

func (s *classifier) classify(ctx context.Context, log *zap.Logger, instruction string, item *candidate.Item) (*candidate.Item, error) {
	label, err := s.deps.Extractor.Extract(ctx, instruction, ResumeSummary(item.Fields))
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, errEmptyLabel
	}

	changes := store.Changes{store.ColumnClassification: label}.Step(candidate.StepClassifier)
	if err := s.deps.Repo.Update(ctx, item.ID, changes); err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	item.Classification = label
	item.AgentStep = candidate.StepClassifier

	log.Debug("candidate classified", zap.String("classification", label))
	return item, nil
}

// ClassifierInstruction lists the loaded roles with their skills.
func ClassifierInstruction(profiles *jobs.Profiles) (string, error) {
	var b bytes.Buffer
	if err := classifierTemplate.Execute(&b, profiles.Items); err != nil {
		return "", fmt.Errorf("render classifier instruction: %w", err)
	}
	return b.String(), nil
}

// ResumeSummary is the text the classifier sees for a candidate.
func ResumeSummary(f candidate.Fields) string {
	return fmt.Sprintf("Name: %s\nSkills: %s\nExperience: %s\nEducation: %s\nCertifications: %s\nInternships: %s",
		orDefault(f.Name, "Unknown"),
		orDefault(f.Skills, "None"),
		orDefault(f.Experience, "None"),
		orDefault(f.Education, "None"),
		orDefault(f.Certifications, "None"),
		orDefault(f.Internships, "None"),
	)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
