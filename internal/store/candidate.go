package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spigell/talent-screener/internal/candidate"
	"github.com/spigell/talent-screener/internal/store/model"
)

const createSavePoint = "candidate_create"

// Repository persists candidates. Writes join a transaction that stays open
// until Commit or Rollback, so a stage's writes become visible together.
type Repository interface {
	Create(ctx context.Context, item *candidate.Item) (uint, error)
	Get(ctx context.Context, id uint) (*candidate.Item, error)
	Update(ctx context.Context, id uint, changes Changes) error
	Delete(ctx context.Context, id uint) error
	ListByTask(ctx context.Context, taskID string) ([]*candidate.Item, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CandidateStore is the gorm Repository. Statements are serialized on a
// mutex since concurrent stage tasks share one transaction.
type CandidateStore struct {
	db     *gorm.DB
	logger *zap.Logger

	mu sync.Mutex
	tx *gorm.DB
}

func NewCandidateStore(db *gorm.DB, logger *zap.Logger) *CandidateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateStore{db: db, logger: logger.Named("candidate_store")}
}

func (s *CandidateStore) Create(ctx context.Context, item *candidate.Item) (uint, error) {
	if item == nil {
		return 0, errors.New("candidate is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.session(ctx)
	if err != nil {
		return 0, err
	}

	// a failed insert must not abort the shared postgres transaction
	if err := tx.SavePoint(createSavePoint).Error; err != nil {
		return 0, fmt.Errorf("savepoint: %w", err)
	}

	row := model.NewCandidate(item)
	row.ID = 0
	if err := tx.Create(row).Error; err != nil {
		if rbErr := tx.RollbackTo(createSavePoint).Error; rbErr != nil {
			s.logger.Warn("failed to roll back to savepoint", zap.Error(rbErr))
		}
		return 0, translate(err)
	}
	return row.ID, nil
}

func (s *CandidateStore) Get(ctx context.Context, id uint) (*candidate.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row model.Candidate
	if err := s.reader(ctx).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	return row.ToItem(), nil
}

func (s *CandidateStore) Update(ctx context.Context, id uint, changes Changes) error {
	if len(changes) == 0 {
		return ErrEmptyChanges
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.session(ctx)
	if err != nil {
		return err
	}

	result := tx.Model(&model.Candidate{}).Where("id = ?", id).Updates(map[string]any(changes))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes a row written within the open transaction or an earlier one.
func (s *CandidateStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.session(ctx)
	if err != nil {
		return err
	}

	result := tx.Delete(&model.Candidate{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *CandidateStore) ListByTask(ctx context.Context, taskID string) ([]*candidate.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []model.Candidate
	if err := s.reader(ctx).Where("task_id = ?", taskID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]*candidate.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToItem())
	}
	return items, nil
}

// Commit makes the pending writes visible. It is a no-op without writes. A
// failed commit keeps the transaction until Rollback releases it.
func (s *CandidateStore) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	if err := s.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.tx = nil
	return nil
}

func (s *CandidateStore) Rollback(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil

	if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// session returns the open transaction, beginning one when needed. The
// transaction must outlive a cancelled stage context, so it is begun on a
// detached one. Callers hold mu.
func (s *CandidateStore) session(ctx context.Context) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.tx == nil {
		tx := s.db.WithContext(context.WithoutCancel(ctx)).Begin()
		if tx.Error != nil {
			return nil, fmt.Errorf("begin transaction: %w", tx.Error)
		}
		s.tx = tx
		s.logger.Debug("transaction started")
	}
	return s.tx.WithContext(ctx), nil
}

// reader reads through the open transaction so pending writes are visible
// and a single sqlite connection is not requested twice. Callers hold mu.
func (s *CandidateStore) reader(ctx context.Context) *gorm.DB {
	if s.tx != nil {
		return s.tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	default:
		return err
	}
}
