package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/scoring"
	"github.com/spigell/talent-screener/internal/store"
)

type scorer struct {
	stage
	engine *scoring.Engine
}

// NewScorer creates the stage that computes final scores against the
// matched profile. Candidates without a matched profile score 0.
func NewScorer(deps *Deps) Stage {
	engine := scoring.New()
	if deps != nil && deps.Scoring != nil {
		engine = deps.Scoring
	}
	return &scorer{
		stage:  stage{name: candidate.StepScorer, reaches: StateScored, deps: deps},
		engine: engine,
	}
}

func (s *scorer) Validate() error {
	return s.deps.requireRepo()
}

func (s *scorer) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	process := func(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
		b := s.engine.Score(item, run.Profiles.FindByRole(item.MatchedRole))

		changes := store.Changes{
			store.ColumnScore:      b.Skills,
			store.ColumnFinalScore: b.Total(),
		}.Step(candidate.StepScorer)
		if err := s.deps.Repo.Update(ctx, item.ID, changes); err != nil {
			return nil, fmt.Errorf("update candidate: %w", err)
		}
		item.Score = b.Skills
		item.FinalScore = b.Total()
		item.AgentStep = candidate.StepScorer

		log.Debug("candidate scored",
			zap.Float64("years", b.Years),
			zap.Float64("experience_score", b.Experience),
			zap.Float64("skills_score", b.Skills),
			zap.Float64("education_score", b.Education),
			zap.Float64("final_score", item.FinalScore),
		)
		return item, nil
	}

	return s.apply(ctx, run, batch, process, func(item *candidate.Item, _ error) *candidate.Item {
		item.Score = 0
		item.FinalScore = 0
		return item
	})
}
