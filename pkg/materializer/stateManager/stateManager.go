package stateManager

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/base"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/types"
	"github.com/mojo-fit/mojo-indexer/pkg/storage"
	"github.com/mojo-fit/mojo-indexer/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StateManager struct {
	base.BaseStateModel
	StateModels map[int]types.IStateModel
	logger      *zap.Logger
}

func NewStateManager(logger *zap.Logger) *StateManager {
	return &StateManager{
		BaseStateModel: base.BaseStateModel{Logger: logger},
		StateModels:    make(map[int]types.IStateModel),
		logger:         logger,
	}
}

// Allows a model to register itself with the state manager.
func (s *StateManager) RegisterState(model types.IStateModel, index int) {
	if m, ok := s.StateModels[index]; ok {
		s.logger.Sugar().Fatalf("Registering model at index %d which already exists and belongs to %s", index, m.GetModelName())
	}
	s.StateModels[index] = model
}

func (s *StateManager) GetSortedModelIndexes() []int {
	indexes := make([]int, 0, len(s.StateModels))
	for i := range s.StateModels {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)
	return indexes
}

// HandleFact gives every interested model the chance to apply the fact inside tx.
// Returns the number of models that applied it.
func (s *StateManager) HandleFact(tx *gorm.DB, fact events.Fact) (int, error) {
	header := fact.GetHeader()
	handled := 0
	for _, index := range s.GetSortedModelIndexes() {
		model := s.StateModels[index]
		if !model.IsInterestingFact(fact) {
			continue
		}
		s.logger.Sugar().Debugw("Handling fact for model",
			zap.String("model", model.GetModelName()),
			zap.String("kind", string(header.Kind)),
			zap.Uint64("blockNumber", header.BlockNumber),
			zap.Uint64("logIndex", header.LogIndex),
		)
		if _, err := model.HandleFact(tx, fact); err != nil {
			return handled, err
		}
		handled++
	}
	if handled == 0 {
		s.logger.Sugar().Warnw("No model handled fact",
			zap.String("kind", string(header.Kind)),
			zap.Uint64("blockNumber", header.BlockNumber),
		)
	}
	return handled, nil
}

// HandleFacts applies facts in order, stopping at the first failure.
func (s *StateManager) HandleFacts(tx *gorm.DB, facts []events.Fact) error {
	for _, fact := range facts {
		if _, err := s.HandleFact(tx, fact); err != nil {
			return err
		}
	}
	return nil
}

// GenerateWindowStateRoot merkleizes the facts of a window in ledger order.
func (s *StateManager) GenerateWindowStateRoot(fromPosition uint64, toPosition uint64, facts []events.Fact) (types.StateRoot, error) {
	inputs := make([]*base.MerkleTreeInput, 0, len(facts))
	for _, fact := range facts {
		value, err := events.EncodeFact(fact)
		if err != nil {
			return "", err
		}
		header := fact.GetHeader()
		inputs = append(inputs, &base.MerkleTreeInput{
			SlotID: base.NewSlotID(header.BlockNumber, header.LogIndex),
			Value:  value,
		})
	}

	tree, err := s.MerkleizeWindow(fromPosition, toPosition, inputs)
	if err != nil {
		return "", err
	}
	return types.StateRoot(utils.ConvertBytesToString(tree.Root())), nil
}

func (s *StateManager) WriteWindowStateRoot(
	tx *gorm.DB,
	fromPosition uint64,
	toPosition uint64,
	factCount int,
	root types.StateRoot,
) (*storage.WindowStateRoot, error) {
	query := `
		insert into window_state_roots (to_position, from_position, fact_count, state_root)
		values (@toPosition, @fromPosition, @factCount, @stateRoot)
		on conflict (to_position) do update set
			from_position = excluded.from_position,
			fact_count = excluded.fact_count,
			state_root = excluded.state_root
	`
	res := tx.Exec(query,
		sql.Named("toPosition", toPosition),
		sql.Named("fromPosition", fromPosition),
		sql.Named("factCount", factCount),
		sql.Named("stateRoot", string(root)),
	)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to write state root for window %d-%d: %w", fromPosition, toPosition, res.Error)
	}
	return &storage.WindowStateRoot{
		ToPosition:   toPosition,
		FromPosition: fromPosition,
		FactCount:    factCount,
		StateRoot:    string(root),
	}, nil
}

// GetLatestStateRoot returns nil when no window has been committed yet.
func (s *StateManager) GetLatestStateRoot(grm *gorm.DB) (*storage.WindowStateRoot, error) {
	root := &storage.WindowStateRoot{}
	result := grm.Model(&storage.WindowStateRoot{}).Order("to_position desc").First(&root)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return root, nil
}
