package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mojo-fit/mojo-indexer/internal/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type RequestMethod struct {
	Name    string
	Timeout time.Duration
}

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint   `json:"id"`
}

type RPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint           `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

var jsonRPCVersion = "2.0"

var defaultRequestTimeout = time.Second * 10

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

type EthereumClientConfig struct {
	BaseUrl string
	// Retries is the number of extra attempts after a failed call. Zero means fail fast.
	Retries int
	// Backoff is the wait before the first retry, doubled for each further attempt.
	Backoff time.Duration
}

func ConvertGlobalConfigToEthereumConfig(cfg *config.EthereumRpcConfig) *EthereumClientConfig {
	return &EthereumClientConfig{
		BaseUrl: cfg.BaseUrl,
		Retries: cfg.Retries,
		Backoff: time.Second,
	}
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 30,
	}

	l.Sugar().Infow("Creating new Ethereum client",
		zap.String("baseUrl", cfg.BaseUrl),
		zap.Int("retries", cfg.Retries),
	)

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) GetBlockNumber(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, GetBlockRequest(1))
	if err != nil {
		return "", err
	}
	return RPCMethod_GetBlock.ResponseParser(res.Result)
}

// GetBlockNumberUint64 returns the current ledger tip.
func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	blockNumber, err := c.GetBlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	blockNumberUint64, err := hexutil.DecodeUint64(blockNumber)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to decode block number '%s'", blockNumber)
	}
	return blockNumberUint64, nil
}

func (c *Client) GetBlockByNumber(ctx context.Context, blockNumber uint64) (*EthereumBlock, error) {
	res, err := c.Call(ctx, GetBlockByNumberRequest(blockNumber, 1))
	if err != nil {
		return nil, err
	}
	ethBlock, err := RPCMethod_getBlockByNumber.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse block",
			zap.Error(err),
			zap.String("raw response", string(res.Result)),
		)
		return nil, err
	}
	if ethBlock == nil {
		return nil, fmt.Errorf("block %d not found", blockNumber)
	}
	return ethBlock, nil
}

// GetLogs returns the logs emitted by address with the given topic0 in [fromBlock, toBlock].
func (c *Client) GetLogs(ctx context.Context, address string, topic0 string, fromBlock uint64, toBlock uint64) ([]*EthereumEventLog, error) {
	res, err := c.Call(ctx, GetLogsRequest(address, topic0, fromBlock, toBlock, 1))
	if err != nil {
		return nil, err
	}
	logs, err := RPCMethod_getLogs.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse logs",
			zap.Error(err),
			zap.String("address", address),
			zap.Uint64("fromBlock", fromBlock),
			zap.Uint64("toBlock", toBlock),
		)
		return nil, err
	}
	return logs, nil
}

func (c *Client) call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, err
	}
	c.Logger.Sugar().Debugw("Request body", zap.String("requestBody", string(requestBody)))

	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(rpcRequest.Method))
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to make request")
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read body")
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	if destination.Error != nil {
		return nil, destination.Error
	}
	return destination, nil
}

func (c *Client) timeoutFor(method string) time.Duration {
	switch method {
	case RPCMethod_GetBlock.RequestMethod.Name:
		return RPCMethod_GetBlock.RequestMethod.Timeout
	case RPCMethod_getBlockByNumber.RequestMethod.Name:
		return RPCMethod_getBlockByNumber.RequestMethod.Timeout
	case RPCMethod_getLogs.RequestMethod.Name:
		return RPCMethod_getLogs.RequestMethod.Timeout
	}
	return defaultRequestTimeout
}

// Call performs the request, retrying up to the configured number of times with exponential backoff.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	backoff := c.clientConfig.Backoff
	var lastErr error

	for attempt := 0; attempt <= c.clientConfig.Retries; attempt++ {
		if attempt > 0 {
			c.Logger.Sugar().Warnw("Retrying call",
				zap.String("method", rpcRequest.Method),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		res, err := c.call(ctx, rpcRequest)
		if err == nil {
			return res, nil
		}
		lastErr = err
		c.Logger.Sugar().Errorw("Failed to call",
			zap.Error(err),
			zap.String("method", rpcRequest.Method),
			zap.Int("attempt", attempt),
		)
	}
	return nil, errors.Wrapf(lastErr, "%s failed after %d attempt(s)", rpcRequest.Method, c.clientConfig.Retries+1)
}
