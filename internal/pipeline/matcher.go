package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/matching"
	"github.com/spigell/talent-screener/internal/store"
)

type matcher struct {
	stage
}

// NewMatcher creates the stage that picks the best role among the profiles
// of the candidate classification.
func NewMatcher(deps *Deps) Stage {
	return &matcher{stage{name: candidate.StepMatcher, reaches: StateMatched, deps: deps}}
}

func (s *matcher) Validate() error {
	return s.deps.requireRepo()
}

func (s *matcher) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	if run.Profiles.Len() == 0 {
		return nil, Step{}, fmt.Errorf("%w: job profiles are required", ErrPrecondition)
	}

	process := func(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
		res := matching.Match(item, run.Profiles)

		changes := store.Changes{
			store.ColumnMatchedRole: res.Role,
			store.ColumnMatchScore:  res.Score,
		}.Step(candidate.StepMatcher)
		if err := s.deps.Repo.Update(ctx, item.ID, changes); err != nil {
			return nil, fmt.Errorf("update candidate: %w", err)
		}
		item.MatchedRole = res.Role
		item.MatchScore = res.Score
		item.AgentStep = candidate.StepMatcher

		log.Debug("candidate matched", zap.String("matched_role", res.Role), zap.Float64("match_score", res.Score))
		return item, nil
	}

	return s.apply(ctx, run, batch, process, func(item *candidate.Item, _ error) *candidate.Item {
		item.MatchedRole = candidate.DefaultMatchedRole
		item.MatchScore = 0
		return item
	})
}
