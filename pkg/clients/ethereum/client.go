package ethereum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/yieldshift/sidecar/internal/config"
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
	Data    any    `json:"data,omitempty"`
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

type Client struct {
	Logger       *zap.Logger
	httpClient   *http.Client
	clientConfig *EthereumClientConfig
}

type EthereumClientConfig struct {
	BaseUrl              string
	WsUrl                string
	UseNativeBatchCall   bool // Send batches as a single JSON-RPC array payload
	NativeBatchCallSize  int  // Number of calls to put in a single batch payload
	ChunkedBatchCallSize int  // Number of calls to make in parallel
	LogPollInterval      time.Duration

	// Backoffs between attempts of a single call. Empty means one attempt.
	Backoffs []time.Duration
}

func ConvertGlobalConfigToEthereumConfig(cfg *config.EthereumRpcConfig) *EthereumClientConfig {
	return &EthereumClientConfig{
		BaseUrl:              cfg.BaseUrl,
		WsUrl:                cfg.WsUrl,
		UseNativeBatchCall:   cfg.UseNativeBatchCall,
		NativeBatchCallSize:  cfg.NativeBatchCallSize,
		ChunkedBatchCallSize: cfg.ChunkedBatchCallSize,
		LogPollInterval:      cfg.LogPollInterval,
	}
}

func DefaultNativeCallEthereumClientConfig() *EthereumClientConfig {
	return &EthereumClientConfig{
		UseNativeBatchCall:   true,
		NativeBatchCallSize:  100,
		ChunkedBatchCallSize: 10,
		LogPollInterval:      time.Second * 4,
	}
}

func DefaultChunkedCallEthereumClientConfig() *EthereumClientConfig {
	return &EthereumClientConfig{
		UseNativeBatchCall:   false,
		NativeBatchCallSize:  100,
		ChunkedBatchCallSize: 10,
		LogPollInterval:      time.Second * 4,
	}
}

func NewClient(cfg *EthereumClientConfig, l *zap.Logger) *Client {
	client := &http.Client{
		Timeout: time.Second * 10,
	}
	if cfg.NativeBatchCallSize <= 0 {
		cfg.NativeBatchCallSize = 100
	}
	if cfg.ChunkedBatchCallSize <= 0 {
		cfg.ChunkedBatchCallSize = 10
	}

	l.Sugar().Infow("Creating new Ethereum client", zap.Any("config", cfg))

	return &Client{
		httpClient:   client,
		Logger:       l,
		clientConfig: cfg,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) Config() *EthereumClientConfig {
	return c.clientConfig
}

func (c *Client) GetBlockNumber(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, GetBlockRequest(1))
	if err != nil {
		return "", err
	}
	return RPCMethod_GetBlock.ResponseParser(res.Result)
}

func (c *Client) GetBlockNumberUint64(ctx context.Context) (uint64, error) {
	blockNumber, err := c.GetBlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	blockNumberUint64, err := hexutil.DecodeUint64(blockNumber)
	if err != nil {
		return 0, err
	}

	return blockNumberUint64, nil
}

// EthCall executes a read-only call against the latest block and returns the raw return data.
func (c *Client) EthCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	res, err := c.Call(ctx, EthCallRequest(to, data, 1))
	if err != nil {
		return nil, err
	}
	returnData, err := RPCMethod_ethCall.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse eth_call result",
			zap.Error(err),
			zap.String("to", to.String()),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return returnData, nil
}

func (c *Client) GetLogs(ctx context.Context, filter *LogFilter) ([]types.Log, error) {
	res, err := c.Call(ctx, GetLogsRequest(filter, 1))
	if err != nil {
		return nil, err
	}
	logs, err := RPCMethod_getLogs.ResponseParser(res.Result)
	if err != nil {
		c.Logger.Sugar().Errorw("failed to parse logs",
			zap.Error(err),
			zap.Any("raw response", res.Result),
		)
		return nil, err
	}
	return logs, nil
}

func (c *Client) batchCall(ctx context.Context, requests []*RPCRequest) ([]*RPCResponse, error) {
	if len(requests) == 0 {
		return make([]*RPCResponse, 0), nil
	}
	requestBody, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("Failed to marshal requests: %s", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*20)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("Failed to make request: %s", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("Request failed %v", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read body %v", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := []*RPCResponse{}

	if strings.HasPrefix(strings.TrimSpace(string(responseBody)), "{") {
		errorResponse := RPCResponse{}
		if err := json.Unmarshal(responseBody, &errorResponse); err != nil {
			return nil, fmt.Errorf("failed to unmarshal error response: %s", err)
		}
		c.Logger.Sugar().Debugw("Error payload returned from batch call",
			zap.String("error", string(responseBody)),
		)
		return nil, fmt.Errorf("Error payload returned from batch call: %s", string(responseBody))
	}
	if err := json.Unmarshal(responseBody, &destination); err != nil {
		c.Logger.Sugar().Errorw("failed to unmarshal batch call response",
			zap.Error(err),
			zap.String("response", string(responseBody)),
		)
		return nil, fmt.Errorf("failed to unmarshal response: %s", err)
	}

	return destination, nil
}

// chunkBounds splits n items into [start, end) windows of at most size items.
func chunkBounds(n int, size int) [][2]int {
	bounds := make([][2]int, 0)
	if size <= 0 {
		size = n
	}
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}
	return bounds
}

// chunkedNativeBatchCall sends the requests as JSON-RPC batch payloads of NativeBatchCallSize.
// Responses are matched back to requests by ID; a failed payload leaves its slots nil.
func (c *Client) chunkedNativeBatchCall(ctx context.Context, requests []*RPCRequest) ([]*RPCResponse, error) {
	results := make([]*RPCResponse, len(requests))
	bounds := chunkBounds(len(requests), c.clientConfig.NativeBatchCallSize)

	c.Logger.Sugar().Debugw(fmt.Sprintf("Batching '%v' requests into '%v' batches", len(requests), len(bounds)))

	var mu sync.Mutex
	wg := sync.WaitGroup{}
	for i, b := range bounds {
		wg.Add(1)
		go func(i int, batch []*RPCRequest) {
			defer wg.Done()

			res, err := c.batchCall(ctx, batch)
			if err != nil {
				c.Logger.Sugar().Errorw("failed to batch call",
					zap.Int("batch", i),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, r := range res {
				if r == nil || r.ID == nil || int(*r.ID) >= len(results) {
					continue
				}
				results[*r.ID] = r
			}
		}(i, requests[b[0]:b[1]])
	}
	wg.Wait()

	return results, nil
}

type IndexedRpcRequestResponse struct {
	Index    int
	Request  *RPCRequest
	Response *RPCResponse
}

type BatchedResponse struct {
	Index    int
	Response *RPCResponse
}

// chunkedBatchCall splits the requests into chunks of ChunkedBatchCallSize and sends them in parallel
// by calling the regular client.call method rather than relying on the batch call method.
//
// A request that fails leaves a nil response in its slot.
func (c *Client) chunkedBatchCall(ctx context.Context, requests []*RPCRequest) ([]*RPCResponse, error) {
	orderedRequestResponses := make([]*IndexedRpcRequestResponse, 0, len(requests))
	for i, req := range requests {
		orderedRequestResponses = append(orderedRequestResponses, &IndexedRpcRequestResponse{
			Index:   i,
			Request: req,
		})
	}

	bounds := chunkBounds(len(orderedRequestResponses), c.clientConfig.ChunkedBatchCallSize)
	c.Logger.Sugar().Debugw(fmt.Sprintf("Batching '%v' requests into '%v' batches", len(requests), len(bounds)))

	for i, b := range bounds {
		batch := orderedRequestResponses[b[0]:b[1]]
		var wg sync.WaitGroup
		responses := make(chan BatchedResponse, len(batch))

		for j, req := range batch {
			wg.Add(1)
			go func(j int, currentReq *IndexedRpcRequestResponse) {
				defer wg.Done()

				res, err := c.call(ctx, currentReq.Request)
				if err != nil {
					c.Logger.Sugar().Debugw(fmt.Sprintf("[%d][%d] failed to batch call", i, j),
						zap.Error(err),
						zap.Any("request", currentReq.Request),
					)
					if rpcErr, ok := err.(*RPCError); ok {
						id := currentReq.Request.ID
						responses <- BatchedResponse{
							Index:    currentReq.Index,
							Response: &RPCResponse{JSONRPC: jsonRPCVersion, ID: &id, Error: rpcErr},
						}
					}
					return
				}
				responses <- BatchedResponse{
					Index:    currentReq.Index,
					Response: res,
				}
			}(j, req)
		}
		wg.Wait()
		close(responses)

		for response := range responses {
			orderedRequestResponses[response.Index].Response = response.Response
		}
	}

	allResults := make([]*RPCResponse, 0, len(requests))
	for _, req := range orderedRequestResponses {
		allResults = append(allResults, req.Response)
	}
	return allResults, nil
}

// BatchCall sends all requests and returns responses positionally aligned with the input.
// Request IDs are rewritten to their index. A nil entry means the request got no response.
func (c *Client) BatchCall(ctx context.Context, requests []*RPCRequest) ([]*RPCResponse, error) {
	if len(requests) == 0 {
		return make([]*RPCResponse, 0), nil
	}
	for i, req := range requests {
		req.ID = uint(i)
	}
	if c.clientConfig.UseNativeBatchCall {
		return c.chunkedNativeBatchCall(ctx, requests)
	}
	return c.chunkedBatchCall(ctx, requests)
}

func (c *Client) call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	requestBody, err := json.Marshal(rpcRequest)
	if err != nil {
		return nil, err
	}
	c.Logger.Sugar().Debugw("Request body", zap.String("requestBody", string(requestBody)))

	ctx, cancel := context.WithTimeout(ctx, timeoutForMethod(rpcRequest.Method))
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.clientConfig.BaseUrl, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("Failed to make request %s", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("Request failed %s", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read body %s", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received http error code %+v", response.StatusCode)
	}

	destination := &RPCResponse{}
	if err := json.Unmarshal(responseBody, destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %s", err)
	}

	if destination.Error != nil {
		return nil, destination.Error
	}

	return destination, nil
}

// Call sends a single request, retrying transport failures with the configured backoffs.
// Errors reported by the node itself are returned immediately.
func (c *Client) Call(ctx context.Context, rpcRequest *RPCRequest) (*RPCResponse, error) {
	res, err := c.call(ctx, rpcRequest)
	if err == nil {
		return res, nil
	}
	if _, ok := err.(*RPCError); ok {
		return nil, err
	}

	for _, backoff := range c.clientConfig.Backoffs {
		c.Logger.Sugar().Warnw("Failed to call, retrying",
			zap.Error(err),
			zap.Duration("backoff", backoff),
			zap.String("method", rpcRequest.Method),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		res, err = c.call(ctx, rpcRequest)
		if err == nil {
			c.Logger.Sugar().Infow("Successfully called after backoff",
				zap.Duration("backoff", backoff),
				zap.String("method", rpcRequest.Method),
			)
			return res, nil
		}
		if _, ok := err.(*RPCError); ok {
			return nil, err
		}
	}
	return nil, err
}
