package pipeline

import (
	"context"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/logger"
)

type stage struct {
	name    string
	reaches State
	deps    *Deps
}

func (s *stage) Name() string { return s.name }

func (s *stage) Reaches() State { return s.reaches }

// apply fans the batch out to process, then commits the stage writes.
func (s *stage) apply(ctx context.Context, run *Run, batch *candidate.Batch, process processFunc, degrade degradeFunc) (*candidate.Batch, Step, error) {
	f := fanOut{
		stage:   s.name,
		deps:    s.deps,
		log:     logger.WithFields(s.deps.logger(), logger.StageFields(s.name, run.TaskID)...),
		process: process,
		degrade: degrade,
	}

	out, step := f.run(ctx, batch)
	if err := s.deps.commit(ctx); err != nil {
		return nil, Step{}, err
	}
	return out, step, nil
}
