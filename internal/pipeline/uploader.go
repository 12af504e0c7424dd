package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-screener/internal/blob"
	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/store"
)

type uploader struct {
	stage
}

// NewUploader creates the stage that registers raw documents. It creates the
// candidate rows, assigns their IDs and stores the content. Documents that
// cannot be stored are dropped.
func NewUploader(deps *Deps) Stage {
	return &uploader{stage{name: candidate.StepUploader, reaches: StateUploaded, deps: deps}}
}

func (s *uploader) Validate() error {
	if err := s.deps.requireRepo(); err != nil {
		return err
	}
	if s.deps.Blob == nil {
		return errors.New("content storage is required")
	}
	return nil
}

func (s *uploader) Execute(ctx context.Context, run *Run, batch *candidate.Batch) (*candidate.Batch, Step, error) {
	if run.TaskID == "" {
		run.TaskID = uuid.NewString()
		s.deps.logger().Info("generated task id", zap.String("task_id", run.TaskID))
	}
	return s.apply(ctx, run, batch, func(ctx context.Context, log *zap.Logger, item *candidate.Item) (*candidate.Item, error) {
		return s.upload(ctx, log, run.TaskID, item)
	}, nil)
}

func (s *uploader) upload(ctx context.Context, log *zap.Logger, taskID string, item *candidate.Item) (*candidate.Item, error) {
	name := NormalizeFileName(item.FileName)
	if name == "" {
		return nil, fmt.Errorf("invalid file name %q", item.FileName)
	}

	item.TaskID = taskID
	item.FileName = name
	item.AgentStep = candidate.StepUploader

	id, err := s.deps.Repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	item.ID = id

	// a dropped candidate must not leave its row behind for the stage commit
	uploaded := false
	defer func() {
		if !uploaded {
			s.discard(ctx, log, id)
		}
	}()

	// content is stored once the row claimed the file name within the task
	ref, err := s.deps.Blob.Put(ctx, blob.Key(taskID, name), []byte(item.Content))
	if err != nil {
		return nil, fmt.Errorf("store content: %w", err)
	}
	if err := s.deps.Repo.Update(ctx, id, store.Changes{store.ColumnContentRef: ref}.Step(candidate.StepUploader)); err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	item.ContentRef = ref
	uploaded = true

	log.Debug("candidate uploaded", zap.Uint("candidate_id", id), zap.String("content_ref", ref))
	return item, nil
}

// discard removes the row of a candidate that failed after it was created,
// including one whose upload was cancelled.
func (s *uploader) discard(ctx context.Context, log *zap.Logger, id uint) {
	if err := s.deps.Repo.Delete(context.WithoutCancel(ctx), id); err != nil {
		log.Error("failed to discard candidate row", zap.Uint("candidate_id", id), zap.Error(err))
	}
}

// NormalizeFileName reduces a client supplied path to its base name. It
// returns an empty string when nothing usable is left.
func NormalizeFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(filepath.Clean(name))
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}
