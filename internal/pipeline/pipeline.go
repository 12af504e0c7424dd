package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/jobs"
	"github.com/spigell/talent-screener/internal/logger"
	"github.com/spigell/talent-screener/internal/metrics"
)

// ErrPrecondition is returned when a stage cannot run at all, e.g. a
// required dependency is missing.
var ErrPrecondition = errors.New("pipeline precondition failed")

// State is the position of a run in the stage sequence.
type State int

const (
	StatePending State = iota
	StateUploaded
	StateParsed
	StateClassified
	StateMatched
	StateScored
	StateScheduled
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StatePending:    "pending",
	StateUploaded:   "uploaded",
	StateParsed:     "parsed",
	StateClassified: "classified",
	StateMatched:    "matched",
	StateScored:     "scored",
	StateScheduled:  "scheduled",
	StateDone:       "done",
	StateAborted:    "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stage is a single step of the pipeline.
type Stage interface {
	Name() string
	// Reaches is the state the run is in once the stage produced survivors.
	Reaches() State

	Validate() error
	Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error)
}

// Run holds what is shared by all stages of one pipeline run.
type Run struct {
	TaskID   string
	Profiles *jobs.Profiles
}

// Step describes the result of executing a stage.
type Step struct {
	Stage    string
	Initial  int
	Dropped  int
	Degraded int
	Left     int
}

// Result of a pipeline run. On early termination Batch is what the last
// executed stage produced and AbortedAt names that stage.
type Result struct {
	Batch     *candidate.Batch
	State     State
	AbortedAt string
	Steps     []Step
}

type Option func(*Pipeline)

// WithStageTimeout bounds every stage. Zero disables the timeout.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.stageTimeout = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline runs stages strictly one after another.
type Pipeline struct {
	stages       []Stage
	stageTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func New(stages []Stage, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{stages: stages, logger: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// Run validates every stage and then executes them in order. A stage that
// leaves no candidates terminates the run in StateAborted without an error.
// A stage error is returned without a result. When ctx is done the partial
// result is returned together with the context error.
func (p *Pipeline) Run(ctx context.Context, run *Run, batch *candidate.Batch) (*Result, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: run is required", ErrPrecondition)
	}
	if len(p.stages) == 0 {
		return nil, fmt.Errorf("%w: no stages configured", ErrPrecondition)
	}

	for _, stage := range p.stages {
		if err := stage.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", stage.Name(), ErrPrecondition, err)
		}
	}

	if batch == nil {
		batch = candidate.NewBatch()
	}
	result := &Result{Batch: batch, State: StatePending}

	for _, stage := range p.stages {
		log := logger.WithFields(p.logger, logger.StageFields(stage.Name(), run.TaskID)...)

		if err := ctx.Err(); err != nil {
			p.abort(result, stage.Name(), log, "run cancelled")
			return result, err
		}

		next, step, err := p.execute(ctx, stage, run, result.Batch)
		if err != nil {
			p.metrics.IncRun(StateAborted.String())
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		if next == nil {
			next = candidate.NewBatch()
		}
		step.Stage = stage.Name()

		log.Info("pipeline step",
			zap.Int("initial", step.Initial),
			zap.Int("dropped", step.Dropped),
			zap.Int("degraded", step.Degraded),
			zap.Int("left", step.Left),
		)

		result.Steps = append(result.Steps, step)
		result.Batch = next

		if err := ctx.Err(); err != nil {
			p.abort(result, stage.Name(), log, "run cancelled")
			return result, err
		}

		if next.Len() == 0 {
			p.abort(result, stage.Name(), log, "no candidates left")
			return result, nil
		}

		result.State = stage.Reaches()
	}

	result.State = StateDone
	p.metrics.IncRun(result.State.String())
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, stage Stage, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		p.metrics.ObserveStage(stage.Name(), time.Since(started))
	}()

	return stage.Execute(ctx, run, batch)
}

func (p *Pipeline) abort(result *Result, stage string, log *zap.Logger, reason string) {
	result.State = StateAborted
	result.AbortedAt = stage
	p.metrics.IncRun(result.State.String())

	log.Info("pipeline aborted",
		zap.String("reason", reason),
		zap.Int("candidates", result.Batch.Len()),
	)
}
