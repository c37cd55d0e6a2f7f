package sessions

import (
	"database/sql"
	"fmt"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/aggregates"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/base"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/types"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MODEL_NAME = "SessionsModel"

type SessionsModel struct {
	base.BaseStateModel
	StateTransitions map[events.EventKind]func(tx *gorm.DB, fact events.Fact) (interface{}, error)
	stateManager     *stateManager.StateManager
	recalculator     *aggregates.Recalculator
	logger           *zap.Logger
	globalConfig     *config.Config
}

func NewSessionsModel(
	sm *stateManager.StateManager,
	recalculator *aggregates.Recalculator,
	logger *zap.Logger,
	globalConfig *config.Config,
) (*SessionsModel, error) {
	model := &SessionsModel{
		BaseStateModel: base.BaseStateModel{Logger: logger},
		stateManager:   sm,
		recalculator:   recalculator,
		logger:         logger,
		globalConfig:   globalConfig,
	}
	model.StateTransitions = model.getStateTransitions()

	sm.RegisterState(model, 0)
	return model, nil
}

func (s *SessionsModel) GetModelName() string {
	return MODEL_NAME
}

func (s *SessionsModel) getStateTransitions() map[events.EventKind]func(tx *gorm.DB, fact events.Fact) (interface{}, error) {
	return map[events.EventKind]func(tx *gorm.DB, fact events.Fact) (interface{}, error){
		events.EventKind_SessionOpened: func(tx *gorm.DB, fact events.Fact) (interface{}, error) {
			opened, ok := fact.(*events.SessionOpened)
			if !ok {
				return nil, fmt.Errorf("unexpected fact type %T for %s", fact, events.EventKind_SessionOpened)
			}
			return s.openSession(tx, opened)
		},
		events.EventKind_SessionClosed: func(tx *gorm.DB, fact events.Fact) (interface{}, error) {
			closed, ok := fact.(*events.SessionClosed)
			if !ok {
				return nil, fmt.Errorf("unexpected fact type %T for %s", fact, events.EventKind_SessionClosed)
			}
			return s.closeSession(tx, closed)
		},
	}
}

func (s *SessionsModel) getInterestingKinds() []events.EventKind {
	kinds := make([]events.EventKind, 0, len(s.StateTransitions))
	for k := range s.StateTransitions {
		kinds = append(kinds, k)
	}
	return kinds
}

func (s *SessionsModel) IsInterestingFact(fact events.Fact) bool {
	return s.BaseStateModel.IsInterestingFact(s.getInterestingKinds(), fact)
}

func (s *SessionsModel) HandleFact(tx *gorm.DB, fact events.Fact) (interface{}, error) {
	transition, ok := s.StateTransitions[fact.GetHeader().Kind]
	if !ok {
		return nil, nil
	}
	return transition(tx, fact)
}

// openSession creates the session if absent. A replayed open leaves the existing row untouched.
func (s *SessionsModel) openSession(tx *gorm.DB, fact *events.SessionOpened) (*storage.Session, error) {
	query := `
		insert into sessions (
			id, exerciser, exercise_type, target_reps, actual_reps, target_met, started_at,
			status, total_up_stake, total_down_stake, block_number, transaction_hash, log_index
		) values (
			@id, @exerciser, @exerciseType, @targetReps, 0, false, @startedAt,
			@status, '0', '0', @blockNumber, @transactionHash, @logIndex
		)
		on conflict (id) do nothing
	`
	res := tx.Exec(query,
		sql.Named("id", fact.SessionId),
		sql.Named("exerciser", fact.Exerciser),
		sql.Named("exerciseType", uint8(fact.ExerciseType)),
		sql.Named("targetReps", fact.TargetReps),
		sql.Named("startedAt", fact.StartedAt.UTC()),
		sql.Named("status", storage.SessionStatus_Active),
		sql.Named("blockNumber", fact.BlockNumber),
		sql.Named("transactionHash", fact.TransactionHash),
		sql.Named("logIndex", fact.LogIndex),
	)
	if res.Error != nil {
		s.logger.Sugar().Errorw("Failed to insert session", zap.Uint64("sessionId", fact.SessionId), zap.Error(res.Error))
		return nil, res.Error
	}

	// Stakes may have been recorded before the session row existed.
	if _, err := s.recalculator.RecalculateSessionTotals(tx, fact.SessionId); err != nil {
		return nil, err
	}

	return &storage.Session{
		Id:           fact.SessionId,
		Exerciser:    fact.Exerciser,
		ExerciseType: uint8(fact.ExerciseType),
		TargetReps:   fact.TargetReps,
		StartedAt:    fact.StartedAt,
		Status:       storage.SessionStatus_Active,
		BlockNumber:  fact.BlockNumber,
	}, nil
}

func (s *SessionsModel) closeSession(tx *gorm.DB, fact *events.SessionClosed) (*storage.Session, error) {
	query := `
		update sessions set
			actual_reps = @actualReps,
			target_met = @targetMet,
			status = @status
		where id = @id
	`
	res := tx.Exec(query,
		sql.Named("actualReps", fact.ActualReps),
		sql.Named("targetMet", fact.TargetMet),
		sql.Named("status", storage.SessionStatus_Resolved),
		sql.Named("id", fact.SessionId),
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &types.MissingEntityError{
			Entity: "session",
			Id:     fmt.Sprintf("%d", fact.SessionId),
			Kind:   fact.Kind,
		}
	}
	return &storage.Session{
		Id:         fact.SessionId,
		ActualReps: fact.ActualReps,
		TargetMet:  fact.TargetMet,
		Status:     storage.SessionStatus_Resolved,
	}, nil
}
