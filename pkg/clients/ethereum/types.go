package ethereum

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

type (
	EthereumHexString string
	EthereumQuantity  uint64
)

type (
	// EthereumBlock carries only the header fields the indexer reads.
	EthereumBlock struct {
		Hash       EthereumHexString `json:"hash"`
		ParentHash EthereumHexString `json:"parentHash"`
		Number     EthereumQuantity  `json:"number"`
		Timestamp  EthereumQuantity  `json:"timestamp"`
	}

	EthereumEventLog struct {
		Removed          bool                `json:"removed"`
		LogIndex         EthereumQuantity    `json:"logIndex"`
		TransactionHash  EthereumHexString   `json:"transactionHash"`
		TransactionIndex EthereumQuantity    `json:"transactionIndex"`
		BlockHash        EthereumHexString   `json:"blockHash"`
		BlockNumber      EthereumQuantity    `json:"blockNumber"`
		Address          EthereumHexString   `json:"address"`
		Data             EthereumHexString   `json:"data"`
		Topics           []EthereumHexString `json:"topics"`
	}

	// LogFilter is the params object of eth_getLogs.
	LogFilter struct {
		FromBlock string     `json:"fromBlock"`
		ToBlock   string     `json:"toBlock"`
		Address   string     `json:"address"`
		Topics    [][]string `json:"topics,omitempty"`
	}
)

func (v EthereumHexString) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf(`"%s"`, v)
	return []byte(s), nil
}

func (v *EthereumHexString) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return errors.Wrap(err, "failed to unmarshal EthereumHexString")
	}
	*v = EthereumHexString(strings.ToLower(s))
	return nil
}

func (v EthereumHexString) Value() string {
	return string(v)
}

func (v EthereumQuantity) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf(`"%s"`, hexutil.EncodeUint64(uint64(v)))
	return []byte(s), nil
}

func (v *EthereumQuantity) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] != '"' {
		var i uint64
		if err := json.Unmarshal(input, &i); err != nil {
			return errors.Wrap(err, "failed to unmarshal EthereumQuantity into uint64")
		}
		*v = EthereumQuantity(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return errors.Wrap(err, "failed to unmarshal EthereumQuantity into string")
	}
	if s == "" {
		*v = 0
		return nil
	}

	i, err := hexutil.DecodeUint64(s)
	if err != nil {
		return errors.Wrapf(err, "failed to decode EthereumQuantity %v", s)
	}
	*v = EthereumQuantity(i)
	return nil
}

func (v EthereumQuantity) Value() uint64 {
	return uint64(v)
}
