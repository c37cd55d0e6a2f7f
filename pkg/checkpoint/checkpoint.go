package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mojo-fit/mojo-indexer/pkg/postgres/helpers"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store holds the last fully processed ledger position.
type Store interface {
	Read(ctx context.Context) (uint64, error)
	// Advance moves the checkpoint forward. tx, when given, is the transaction the
	// window was applied in so both commit together.
	Advance(ctx context.Context, tx *gorm.DB, position uint64) error
}

// RegressionError is returned when asked to move the checkpoint backwards.
type RegressionError struct {
	Current   uint64
	Requested uint64
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("RegressionError: cannot move checkpoint from %d back to %d", e.Current, e.Requested)
}

const checkpointRowId = 1

type GormStore struct {
	db              *gorm.DB
	logger          *zap.Logger
	initialPosition uint64
}

// NewGormStore returns a store backed by the checkpoints table. initialPosition is
// reported until the first window is committed.
func NewGormStore(grm *gorm.DB, initialPosition uint64, l *zap.Logger) *GormStore {
	return &GormStore{
		db:              grm,
		logger:          l,
		initialPosition: initialPosition,
	}
}

func (s *GormStore) read(tx *gorm.DB) (uint64, error) {
	var cp storage.Checkpoint
	res := tx.Model(&storage.Checkpoint{}).Where("id = ?", checkpointRowId).Limit(1).Find(&cp)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return s.initialPosition, nil
	}
	return cp.LastPosition, nil
}

func (s *GormStore) Read(ctx context.Context) (uint64, error) {
	return s.read(s.db.WithContext(ctx))
}

func (s *GormStore) Advance(ctx context.Context, tx *gorm.DB, position uint64) error {
	_, err := helpers.WrapTxAndCommit(func(tx *gorm.DB) (interface{}, error) {
		current, err := s.read(tx)
		if err != nil {
			return nil, err
		}
		if position < current {
			return nil, &RegressionError{Current: current, Requested: position}
		}
		if position == current {
			return nil, nil
		}

		query := `
			insert into checkpoints (id, last_position, updated_at)
			values (@id, @position, current_timestamp)
			on conflict (id) do update set
				last_position = excluded.last_position,
				updated_at = excluded.updated_at
		`
		res := tx.Exec(query, sql.Named("id", checkpointRowId), sql.Named("position", position))
		if res.Error != nil {
			return nil, res.Error
		}
		s.logger.Sugar().Debugw("Advanced checkpoint",
			zap.Uint64("from", current),
			zap.Uint64("to", position),
		)
		return nil, nil
	}, s.db.WithContext(ctx), tx)
	return err
}

// MemoryStore is an in-process Store, used in tests.
type MemoryStore struct {
	mu       sync.Mutex
	position uint64
	history  []uint64
}

func NewMemoryStore(initialPosition uint64) *MemoryStore {
	return &MemoryStore{position: initialPosition}
}

func (s *MemoryStore) Read(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, nil
}

func (s *MemoryStore) Advance(ctx context.Context, tx *gorm.DB, position uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < s.position {
		return &RegressionError{Current: s.position, Requested: position}
	}
	s.position = position
	s.history = append(s.history, position)
	return nil
}

// History lists every position passed to a successful Advance.
func (s *MemoryStore) History() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.history))
	copy(out, s.history)
	return out
}
