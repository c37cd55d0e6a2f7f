package stakes

import (
	"database/sql"
	"fmt"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/aggregates"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/base"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MODEL_NAME = "StakesModel"

type StakesModel struct {
	base.BaseStateModel
	stateManager *stateManager.StateManager
	recalculator *aggregates.Recalculator
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewStakesModel(
	sm *stateManager.StateManager,
	recalculator *aggregates.Recalculator,
	logger *zap.Logger,
	globalConfig *config.Config,
) (*StakesModel, error) {
	model := &StakesModel{
		BaseStateModel: base.BaseStateModel{Logger: logger},
		stateManager:   sm,
		recalculator:   recalculator,
		logger:         logger,
		globalConfig:   globalConfig,
	}

	sm.RegisterState(model, 1)
	return model, nil
}

func (s *StakesModel) GetModelName() string {
	return MODEL_NAME
}

func (s *StakesModel) IsInterestingFact(fact events.Fact) bool {
	return s.BaseStateModel.IsInterestingFact([]events.EventKind{events.EventKind_StakePlaced, events.EventKind_StakeClaimed}, fact)
}

func (s *StakesModel) HandleFact(tx *gorm.DB, fact events.Fact) (interface{}, error) {
	switch f := fact.(type) {
	case *events.StakePlaced:
		return s.placeStake(tx, f)
	case *events.StakeClaimed:
		return s.claimStake(tx, f)
	}
	return nil, fmt.Errorf("unexpected fact type %T for %s", fact, s.GetModelName())
}

// placeStake keeps one stake per (session, staker); the latest placement wins.
func (s *StakesModel) placeStake(tx *gorm.DB, fact *events.StakePlaced) (*storage.Stake, error) {
	query := `
		insert into stakes (session_id, staker, is_up, amount, claimed, payout, block_number)
		values (@sessionId, @staker, @isUp, @amount, false, '0', @blockNumber)
		on conflict (session_id, staker) do update set
			is_up = excluded.is_up,
			amount = excluded.amount,
			block_number = excluded.block_number
	`
	res := tx.Exec(query,
		sql.Named("sessionId", fact.SessionId),
		sql.Named("staker", fact.Staker),
		sql.Named("isUp", fact.IsUp),
		sql.Named("amount", fact.Amount.String()),
		sql.Named("blockNumber", fact.BlockNumber),
	)
	if res.Error != nil {
		s.logger.Sugar().Errorw("Failed to upsert stake",
			zap.Uint64("sessionId", fact.SessionId),
			zap.String("staker", fact.Staker),
			zap.Error(res.Error),
		)
		return nil, res.Error
	}

	if _, err := s.recalculator.RecalculateSessionTotals(tx, fact.SessionId); err != nil {
		return nil, err
	}

	return &storage.Stake{
		SessionId:   fact.SessionId,
		Staker:      fact.Staker,
		IsUp:        fact.IsUp,
		Amount:      fact.Amount,
		BlockNumber: fact.BlockNumber,
	}, nil
}

// claimStake marks the stake claimed. Claims for unknown stakes are ignored.
func (s *StakesModel) claimStake(tx *gorm.DB, fact *events.StakeClaimed) (*storage.Stake, error) {
	query := `
		update stakes set
			claimed = true,
			payout = @payout
		where session_id = @sessionId and staker = @staker
	`
	res := tx.Exec(query,
		sql.Named("payout", fact.Payout.String()),
		sql.Named("sessionId", fact.SessionId),
		sql.Named("staker", fact.Staker),
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s.logger.Sugar().Debugw("No stake to claim",
			zap.Uint64("sessionId", fact.SessionId),
			zap.String("staker", fact.Staker),
		)
		return nil, nil
	}
	return &storage.Stake{
		SessionId: fact.SessionId,
		Staker:    fact.Staker,
		Claimed:   true,
		Payout:    fact.Payout,
	}, nil
}
