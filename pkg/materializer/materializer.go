package materializer

import (
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/aggregates"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/challenges"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/fighters"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/sessions"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stakes"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"go.uber.org/zap"
)

func LoadStateModels(
	sm *stateManager.StateManager,
	l *zap.Logger,
	cfg *config.Config,
) error {
	recalculator := aggregates.NewRecalculator(l)

	if _, err := sessions.NewSessionsModel(sm, recalculator, l, cfg); err != nil {
		l.Sugar().Errorw("Failed to create SessionsModel", zap.Error(err))
		return err
	}
	if _, err := stakes.NewStakesModel(sm, recalculator, l, cfg); err != nil {
		l.Sugar().Errorw("Failed to create StakesModel", zap.Error(err))
		return err
	}
	if _, err := fighters.NewFightersModel(sm, l, cfg); err != nil {
		l.Sugar().Errorw("Failed to create FightersModel", zap.Error(err))
		return err
	}
	if _, err := challenges.NewChallengesModel(sm, l, cfg); err != nil {
		l.Sugar().Errorw("Failed to create ChallengesModel", zap.Error(err))
		return err
	}
	return nil
}

// NewLoadedStateManager returns a state manager with every model registered.
func NewLoadedStateManager(l *zap.Logger, cfg *config.Config) (*stateManager.StateManager, error) {
	sm := stateManager.NewStateManager(l)
	if err := LoadStateModels(sm, l, cfg); err != nil {
		return nil, err
	}
	return sm, nil
}
