package fighters

import (
	"database/sql"
	"fmt"
	"math"
	"math/bits"

	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/base"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/stateManager"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MODEL_NAME = "FightersModel"

type FightersModel struct {
	base.BaseStateModel
	stateManager *stateManager.StateManager
	logger       *zap.Logger
	globalConfig *config.Config
}

func NewFightersModel(
	sm *stateManager.StateManager,
	logger *zap.Logger,
	globalConfig *config.Config,
) (*FightersModel, error) {
	model := &FightersModel{
		BaseStateModel: base.BaseStateModel{Logger: logger},
		stateManager:   sm,
		logger:         logger,
		globalConfig:   globalConfig,
	}

	sm.RegisterState(model, 2)
	return model, nil
}

func (f *FightersModel) GetModelName() string {
	return MODEL_NAME
}

func (f *FightersModel) IsInterestingFact(fact events.Fact) bool {
	return f.BaseStateModel.IsInterestingFact([]events.EventKind{events.EventKind_FighterCreated, events.EventKind_StatsUpdated}, fact)
}

func (f *FightersModel) HandleFact(tx *gorm.DB, fact events.Fact) (interface{}, error) {
	switch ft := fact.(type) {
	case *events.FighterCreated:
		if err := EnsureFighter(tx, ft.Address, ft.BlockNumber); err != nil {
			return nil, err
		}
		return &storage.Fighter{Address: ft.Address, BlockNumber: ft.BlockNumber}, nil
	case *events.StatsUpdated:
		return f.updateStats(tx, ft)
	}
	return nil, fmt.Errorf("unexpected fact type %T for %s", fact, f.GetModelName())
}

// EnsureFighter inserts a zeroed fighter if one does not exist for the address.
func EnsureFighter(tx *gorm.DB, address string, blockNumber uint64) error {
	query := `
		insert into fighters (address, strength, agility, endurance, total_reps, level, wins, losses, block_number)
		values (@address, 0, 0, 0, 0, 0, 0, 0, @blockNumber)
		on conflict (address) do nothing
	`
	res := tx.Exec(query,
		sql.Named("address", address),
		sql.Named("blockNumber", blockNumber),
	)
	return res.Error
}

// TotalReps sums the three stats, failing when the total does not fit a bigint column.
func TotalReps(strength, agility, endurance uint64) (uint64, error) {
	sum, carry := bits.Add64(strength, agility, 0)
	if carry != 0 {
		return 0, fmt.Errorf("stat total overflows uint64")
	}
	sum, carry = bits.Add64(sum, endurance, 0)
	if carry != 0 {
		return 0, fmt.Errorf("stat total overflows uint64")
	}
	if sum > math.MaxInt64 {
		return 0, fmt.Errorf("stat total %d exceeds %d", sum, int64(math.MaxInt64))
	}
	return sum, nil
}

// updateStats overwrites the stats. Totals come from the new values only, never accumulated.
func (f *FightersModel) updateStats(tx *gorm.DB, fact *events.StatsUpdated) (*storage.Fighter, error) {
	totalReps, err := TotalReps(fact.Strength, fact.Agility, fact.Endurance)
	if err != nil {
		return nil, fmt.Errorf("fighter %s: %w", fact.Address, err)
	}
	level := storage.LevelForTotalReps(totalReps)

	query := `
		insert into fighters (address, strength, agility, endurance, total_reps, level, wins, losses, block_number)
		values (@address, @strength, @agility, @endurance, @totalReps, @level, 0, 0, @blockNumber)
		on conflict (address) do update set
			strength = excluded.strength,
			agility = excluded.agility,
			endurance = excluded.endurance,
			total_reps = excluded.total_reps,
			level = excluded.level,
			block_number = excluded.block_number
	`
	res := tx.Exec(query,
		sql.Named("address", fact.Address),
		sql.Named("strength", fact.Strength),
		sql.Named("agility", fact.Agility),
		sql.Named("endurance", fact.Endurance),
		sql.Named("totalReps", totalReps),
		sql.Named("level", level),
		sql.Named("blockNumber", fact.BlockNumber),
	)
	if res.Error != nil {
		f.logger.Sugar().Errorw("Failed to update fighter stats", zap.String("address", fact.Address), zap.Error(res.Error))
		return nil, res.Error
	}
	return &storage.Fighter{
		Address:     fact.Address,
		Strength:    fact.Strength,
		Agility:     fact.Agility,
		Endurance:   fact.Endurance,
		TotalReps:   totalReps,
		Level:       level,
		BlockNumber: fact.BlockNumber,
	}, nil
}
