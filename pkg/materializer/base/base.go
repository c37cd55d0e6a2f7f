package base

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/mojo-fit/mojo-indexer/pkg/events"
	"github.com/mojo-fit/mojo-indexer/pkg/materializer/types"
	"github.com/wealdtech/go-merkletree/v2"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type BaseStateModel struct {
	Logger *zap.Logger
}

func (b *BaseStateModel) IsInterestingFact(kinds []events.EventKind, fact events.Fact) bool {
	if fact == nil {
		return false
	}
	return slices.Contains(kinds, fact.GetHeader().Kind)
}

func NewSlotID(blockNumber uint64, logIndex uint64) types.SlotID {
	return types.SlotID(fmt.Sprintf("%020d_%020d", blockNumber, logIndex))
}

type MerkleTreeInput struct {
	SlotID types.SlotID
	Value  []byte
}

// Include the window bounds as the first leaf so that an empty window still has a root
// and two windows with the same facts never share one.
func initializeMerkleTreeWithWindow(fromPosition uint64, toPosition uint64) [][]byte {
	bounds := binary.BigEndian.AppendUint64([]byte{}, fromPosition)
	bounds = binary.BigEndian.AppendUint64(bounds, toPosition)
	return [][]byte{
		append(slices.Clone(types.MerkleLeafPrefix_Window), bounds...),
	}
}

// MerkleizeWindow creates a merkle tree over the facts applied in a window.
//
// Inputs must be in ascending SlotID order with no duplicates.
func (b *BaseStateModel) MerkleizeWindow(fromPosition uint64, toPosition uint64, inputs []*MerkleTreeInput) (*merkletree.MerkleTree, error) {
	om := orderedmap.New[types.SlotID, []byte]()

	for _, input := range inputs {
		if _, found := om.Get(input.SlotID); found {
			return nil, fmt.Errorf("duplicate slotID %s", input.SlotID)
		}
		om.Set(input.SlotID, input.Value)

		prev := om.GetPair(input.SlotID).Prev()
		if prev != nil && prev.Key > input.SlotID {
			return nil, errors.New("slotIDs are not in order")
		}
	}

	leaves := initializeMerkleTreeWithWindow(fromPosition, toPosition)
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		leaves = append(leaves, encodeMerkleLeaf(pair.Key, pair.Value))
	}
	return merkletree.NewTree(
		merkletree.WithData(leaves),
		merkletree.WithHashType(keccak256.New()),
	)
}

func encodeMerkleLeaf(slotID types.SlotID, value []byte) []byte {
	leaf := slices.Clone(types.MerkleLeafPrefix_FactChange)
	leaf = append(leaf, []byte(slotID)...)
	return append(leaf, value...)
}
