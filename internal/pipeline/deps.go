package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/blob"
	"github.com/spigell/talent-screener/internal/metrics"
	"github.com/spigell/talent-screener/internal/notify"
	"github.com/spigell/talent-screener/internal/scoring"
	"github.com/spigell/talent-screener/internal/store"
)

const (
	DefaultConcurrency         = 4
	DefaultAcceptanceThreshold = 50.0
)

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Repo      store.Repository
	Blob      blob.Store
	Extractor ai.Extractor
	Notifier  notify.Notifier
	Scoring   *scoring.Engine
	Validate  *validator.Validate
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// Concurrency bounds the number of candidates a stage processes at once.
	Concurrency int
	// Threshold is the minimal final score accepted by the scheduler.
	Threshold float64
}

// Stages returns the full candidate pipeline in execution order.
func Stages(deps *Deps) []Stage {
	return []Stage{
		NewUploader(deps),
		NewParser(deps),
		NewClassifier(deps),
		NewMatcher(deps),
		NewScorer(deps),
		NewScheduler(deps),
	}
}

func (d *Deps) logger() *zap.Logger {
	if d == nil || d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d *Deps) concurrency() int {
	if d.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return d.Concurrency
}

func (d *Deps) threshold() float64 {
	if d.Threshold <= 0 {
		return DefaultAcceptanceThreshold
	}
	return d.Threshold
}

func (d *Deps) requireRepo() error {
	if d == nil {
		return errors.New("dependencies are not initialized")
	}
	if d.Repo == nil {
		return errors.New("repository is required")
	}
	return nil
}

func (d *Deps) requireExtractor() error {
	if err := d.requireRepo(); err != nil {
		return err
	}
	if d.Extractor == nil {
		return errors.New("extraction capability is required")
	}
	return nil
}

// commit makes the stage writes visible. It is detached from the stage
// context so writes of completed candidates survive a stage timeout. A failed
// commit discards the stage writes.
func (d *Deps) commit(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	if err := d.Repo.Commit(ctx); err != nil {
		if rbErr := d.Repo.Rollback(ctx); rbErr != nil {
			d.logger().Error("failed to discard stage writes", zap.Error(rbErr))
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
