package ethereum

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ResponseParserFunc[T any] func(res json.RawMessage) (T, error)

type RequestResponseHandler[T any] struct {
	RequestMethod  *RequestMethod
	ResponseParser ResponseParserFunc[T]
}

var (
	RPCMethod_GetBlock = &RequestResponseHandler[string]{
		RequestMethod: &RequestMethod{
			Name:    "eth_blockNumber",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (string, error) {
			return strings.ReplaceAll(string(res), "\"", ""), nil
		},
	}
	RPCMethod_getBlockByNumber = &RequestResponseHandler[*EthereumBlock]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getBlockByNumber",
			Timeout: time.Second * 5,
		},
		ResponseParser: func(res json.RawMessage) (*EthereumBlock, error) {
			if string(res) == "null" {
				return nil, nil
			}
			block := &EthereumBlock{}
			if err := json.Unmarshal(res, block); err != nil {
				return nil, err
			}
			return block, nil
		},
	}
	RPCMethod_getLogs = &RequestResponseHandler[[]*EthereumEventLog]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getLogs",
			Timeout: time.Second * 30,
		},
		ResponseParser: func(res json.RawMessage) ([]*EthereumEventLog, error) {
			logs := make([]*EthereumEventLog, 0)
			if err := json.Unmarshal(res, &logs); err != nil {
				return nil, err
			}
			return logs, nil
		},
	}
)

func GetBlockRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_GetBlock.RequestMethod.Name,
		ID:      id,
	}
}

// GetBlockByNumberRequest asks for the header only; transactions are never needed.
func GetBlockByNumberRequest(blockNumber uint64, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_getBlockByNumber.RequestMethod.Name,
		Params:  []interface{}{hexutil.EncodeUint64(blockNumber), false},
		ID:      id,
	}
}

func GetLogsRequest(address string, topic0 string, fromBlock uint64, toBlock uint64, id uint) *RPCRequest {
	filter := &LogFilter{
		FromBlock: hexutil.EncodeUint64(fromBlock),
		ToBlock:   hexutil.EncodeUint64(toBlock),
		Address:   strings.ToLower(address),
	}
	if topic0 != "" {
		filter.Topics = [][]string{{strings.ToLower(topic0)}}
	}
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_getLogs.RequestMethod.Name,
		Params:  []interface{}{filter},
		ID:      id,
	}
}
