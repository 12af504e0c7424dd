package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/notify"
	"github.com/spigell/talent-screener/internal/store"
)

const (
	ReasonNoEmail  = "No email provided"
	StatusNoEmail  = "Not sent: " + ReasonNoEmail
	statusErrorFmt = "Error: %s"
	reasonBelowFmt = "Score below threshold (%g)"
	statusBelowFmt = "Not sent: %s, final_score=%g"
	notifySent     = "sent"
	notifyRejected = "below_threshold"
	notifyNoEmail  = "no_email"
	notifyNotSent  = "not_sent"
	notifyFailed   = "failed"
)

type scheduler struct {
	stage
	validate *validator.Validate
}

// NewScheduler creates the stage that forwards accepted candidates to HR.
// Every candidate ID is handled once per run, the first occurrence wins.
func NewScheduler(deps *Deps) Stage {
	v := validator.New()
	if deps != nil && deps.Validate != nil {
		v = deps.Validate
	}
	return &scheduler{
		stage:    stage{name: candidate.StepScheduler, reaches: StateScheduled, deps: deps},
		validate: v,
	}
}

func (s *scheduler) Validate() error {
	if err := s.deps.requireRepo(); err != nil {
		return err
	}
	if s.deps.Notifier == nil {
		return errors.New("notification capability is required")
	}
	return nil
}

func (s *scheduler) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	unique := candidate.NewBatch(append([]*candidate.Item(nil), batch.Items...)...)
	if removed := unique.Dedupe(); removed > 0 {
		s.deps.logger().Info("skipping duplicate or empty candidates",
			zap.String("task_id", run.TaskID),
			zap.Int("removed", removed),
		)
	}

	out, step, err := s.apply(ctx, run, unique, s.schedule, func(item *candidate.Item, err error) *candidate.Item {
		item.EmailSent = false
		item.EmailStatus = fmt.Sprintf(statusErrorFmt, err)
		item.RejectionReason = err.Error()
		return item
	})
	if err != nil {
		return nil, Step{}, err
	}

	step.Dropped += batch.Len() - unique.Len()
	step.Initial = batch.Len()
	return out, step, nil
}

func (s *scheduler) schedule(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
	threshold := s.deps.threshold()

	var decision string
	switch {
	case item.FinalScore < threshold:
		reason := fmt.Sprintf(reasonBelowFmt, threshold)
		item.RejectionReason = reason
		item.EmailSent = false
		item.EmailStatus = fmt.Sprintf(statusBelowFmt, reason, item.FinalScore)
		decision = notifyRejected
	case !s.usableEmail(item.Fields.Email):
		item.RejectionReason = ReasonNoEmail
		item.EmailSent = false
		item.EmailStatus = StatusNoEmail
		decision = notifyNoEmail
	default:
		status, err := s.deps.Notifier.Notify(ctx, notify.NewSummary(item))
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			status = fmt.Sprintf(statusErrorFmt, err)
		}
		item.RejectionReason = ""
		item.EmailStatus = status
		item.EmailSent = status == notify.StatusSent
		switch {
		case item.EmailSent:
			decision = notifySent
		case err != nil:
			decision = notifyFailed
		default:
			decision = notifyNotSent
		}
	}

	changes := store.Changes{
		store.ColumnEmailSent:       item.EmailSent,
		store.ColumnEmailStatus:     item.EmailStatus,
		store.ColumnRejectionReason: nullable(item.RejectionReason),
	}.Step(candidate.StepScheduler)
	if err := s.deps.Repo.Update(ctx, item.ID, changes); err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	item.AgentStep = candidate.StepScheduler
	s.deps.Metrics.IncNotification(decision)

	log.Info("candidate scheduled",
		zap.Float64("final_score", item.FinalScore),
		zap.Bool("email_sent", item.EmailSent),
		zap.String("email_status", item.EmailStatus),
	)
	return item, nil
}

func (s *scheduler) usableEmail(email string) bool {
	email = strings.TrimSpace(email)
	if !candidate.Specified(email) {
		return false
	}
	return s.validate.Var(email, "email") == nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
