package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/logger"
	"github.com/spigell/talent-screener/internal/metrics"
)

type outcome int

const (
	outcomeOK outcome = iota
	outcomeDegraded
	outcomeDropped
)

func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return metrics.OutcomeOK
	case outcomeDegraded:
		return metrics.OutcomeDegraded
	default:
		return metrics.OutcomeDropped
	}
}

// processFunc computes and persists one candidate. It owns the copy it gets.
type processFunc func(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error)

// degradeFunc turns a failed candidate into its safe default. Stages without
// one drop failed candidates.
type degradeFunc func(item *candidate.Item, err error) *candidate.Item

type fanOut struct {
	stage   string
	deps    *Deps
	log     *zap.Logger
	process processFunc
	degrade degradeFunc
}

// run processes every candidate of the batch concurrently and collects the
// survivors in input order. Once ctx is done no new candidate is started and
// the remaining ones fail with the context error.
func (f fanOut) run(ctx context.Context, batch *candidate.Batch) (*candidate.Batch, Step) {
	items := batch.Items
	results := make([]*candidate.Item, len(items))
	outcomes := make([]outcome, len(items))

	var g errgroup.Group
	g.SetLimit(f.deps.concurrency())

	for i, item := range items {
		if item == nil {
			outcomes[i] = outcomeDropped
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i], outcomes[i] = f.fail(item, err)
			continue
		}
		g.Go(func() error {
			results[i], outcomes[i] = f.one(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	out := candidate.NewBatch()
	step := Step{Initial: len(items)}
	for i, res := range results {
		f.deps.Metrics.IncItem(f.stage, outcomes[i].String())
		switch outcomes[i] {
		case outcomeDropped:
			step.Dropped++
			continue
		case outcomeDegraded:
			step.Degraded++
		}
		out.Items = append(out.Items, res)
	}
	step.Left = out.Len()
	return out, step
}

func (f fanOut) one(ctx context.Context, item *candidate.Item) (res *candidate.Item, out outcome) {
	defer func() {
		if r := recover(); r != nil {
			res, out = f.fail(item, fmt.Errorf("panic: %v", r))
		}
	}()

	log := logger.WithFields(f.log, logger.ItemFields(item.ID, item.FileName)...)
	next, err := f.process(ctx, log, item.Clone())
	if err != nil {
		return f.fail(item, err)
	}
	return next, outcomeOK
}

func (f fanOut) fail(item *candidate.Item, err error) (*candidate.Item, outcome) {
	log := logger.WithFields(f.log, logger.ItemFields(item.ID, item.FileName)...)

	if f.degrade == nil {
		log.Warn("candidate dropped", zap.Error(err))
		return nil, outcomeDropped
	}

	log.Warn("candidate degraded", zap.Error(err))
	return f.degrade(item.Clone(), err), outcomeDegraded
}
