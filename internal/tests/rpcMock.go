package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jarcoal/httpmock"
)

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      uint              `json:"id"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      uint      `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type callResult struct {
	data []byte
	err  *rpcError
}

// RpcMock is a scripted JSON-RPC node served through httpmock.
type RpcMock struct {
	mu          sync.Mutex
	calls       map[string]callResult
	logs        []types.Log
	blockNumber uint64

	ethCalls atomic.Int64
	requests atomic.Int64
}

func NewRpcMock() *RpcMock {
	return &RpcMock{
		calls: make(map[string]callResult),
	}
}

func callKey(to common.Address, data []byte) string {
	return strings.ToLower(to.Hex()) + ":" + hexutil.Encode(data)
}

// Register installs the mock as the responder for url on the active httpmock transport.
func (m *RpcMock) Register(url string) {
	httpmock.RegisterResponder(http.MethodPost, url, m.respond)
}

// OnCall scripts the return data for a call whose calldata starts with prefix.
// A 4 byte selector matches every call to that function.
func (m *RpcMock) OnCall(to common.Address, prefix []byte, ret []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[callKey(to, prefix)] = callResult{data: ret}
}

// OnCallRevert makes matching calls fail with an execution reverted error.
func (m *RpcMock) OnCallRevert(to common.Address, prefix []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[callKey(to, prefix)] = callResult{err: &rpcError{Code: 3, Message: "execution reverted"}}
}

func (m *RpcMock) SetBlockNumber(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockNumber = n
}

// AddLogs appends logs and moves the head to the highest block seen.
func (m *RpcMock) AddLogs(logs ...types.Log) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range logs {
		m.logs = append(m.logs, l)
		if l.BlockNumber > m.blockNumber {
			m.blockNumber = l.BlockNumber
		}
	}
}

// EthCalls is the number of eth_call requests served, batched or not.
func (m *RpcMock) EthCalls() int {
	return int(m.ethCalls.Load())
}

// Requests is the number of JSON-RPC requests served.
func (m *RpcMock) Requests() int {
	return int(m.requests.Load())
}

func (m *RpcMock) respond(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var batch []rpcRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		responses := make([]rpcResponse, 0, len(batch))
		for _, r := range batch {
			responses = append(responses, m.handle(r))
		}
		return httpmock.NewJsonResponse(http.StatusOK, responses)
	}

	var single rpcRequest
	if err := json.Unmarshal(body, &single); err != nil {
		return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
	}
	return httpmock.NewJsonResponse(http.StatusOK, m.handle(single))
}

func (m *RpcMock) handle(r rpcRequest) rpcResponse {
	m.requests.Add(1)
	res := rpcResponse{JSONRPC: "2.0", ID: r.ID}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch r.Method {
	case "eth_blockNumber":
		res.Result = hexutil.EncodeUint64(m.blockNumber)
	case "eth_call":
		m.ethCalls.Add(1)
		data, callErr := m.handleCall(r.Params)
		if callErr != nil {
			res.Error = callErr
		} else {
			res.Result = hexutil.Encode(data)
		}
	case "eth_getLogs":
		res.Result = m.handleGetLogs(r.Params)
	default:
		res.Error = &rpcError{Code: -32601, Message: "method not found"}
	}
	return res
}

func (m *RpcMock) handleCall(params []json.RawMessage) ([]byte, *rpcError) {
	if len(params) == 0 {
		return nil, &rpcError{Code: -32602, Message: "missing call object"}
	}
	var call struct {
		To   common.Address `json:"to"`
		Data hexutil.Bytes  `json:"data"`
	}
	if err := json.Unmarshal(params[0], &call); err != nil {
		return nil, &rpcError{Code: -32602, Message: err.Error()}
	}

	if r, ok := m.calls[callKey(call.To, call.Data)]; ok {
		return r.data, r.err
	}
	if len(call.Data) >= 4 {
		if r, ok := m.calls[callKey(call.To, call.Data[:4])]; ok {
			return r.data, r.err
		}
	}
	// An address without code returns empty data.
	return []byte{}, nil
}

func (m *RpcMock) handleGetLogs(params []json.RawMessage) []types.Log {
	result := make([]types.Log, 0)
	if len(params) == 0 {
		return result
	}
	var filter struct {
		FromBlock string `json:"fromBlock"`
		ToBlock   string `json:"toBlock"`
	}
	_ = json.Unmarshal(params[0], &filter)

	from := uint64(0)
	to := m.blockNumber
	if v, err := hexutil.DecodeUint64(filter.FromBlock); err == nil {
		from = v
	}
	if v, err := hexutil.DecodeUint64(filter.ToBlock); err == nil {
		to = v
	}
	for _, l := range m.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			result = append(result, l)
		}
	}
	return result
}
