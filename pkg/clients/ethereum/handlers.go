package ethereum

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
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
	RPCMethod_ethCall = &RequestResponseHandler[[]byte]{
		RequestMethod: &RequestMethod{
			Name:    "eth_call",
			Timeout: time.Second * 10,
		},
		ResponseParser: func(res json.RawMessage) ([]byte, error) {
			var encoded hexutil.Bytes
			if err := json.Unmarshal(res, &encoded); err != nil {
				return nil, err
			}
			return encoded, nil
		},
	}
	RPCMethod_getLogs = &RequestResponseHandler[[]types.Log]{
		RequestMethod: &RequestMethod{
			Name:    "eth_getLogs",
			Timeout: time.Second * 15,
		},
		ResponseParser: func(res json.RawMessage) ([]types.Log, error) {
			logs := make([]types.Log, 0)
			if err := json.Unmarshal(res, &logs); err != nil {
				return nil, err
			}
			return logs, nil
		},
	}
)

var methodTimeouts = map[string]time.Duration{
	RPCMethod_GetBlock.RequestMethod.Name: RPCMethod_GetBlock.RequestMethod.Timeout,
	RPCMethod_ethCall.RequestMethod.Name:  RPCMethod_ethCall.RequestMethod.Timeout,
	RPCMethod_getLogs.RequestMethod.Name:  RPCMethod_getLogs.RequestMethod.Timeout,
}

func timeoutForMethod(method string) time.Duration {
	if t, ok := methodTimeouts[method]; ok {
		return t
	}
	return time.Second * 5
}

func GetBlockRequest(id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_GetBlock.RequestMethod.Name,
		ID:      id,
	}
}

type callObject struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// EthCallRequest builds an eth_call against the latest block.
func EthCallRequest(to common.Address, data []byte, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_ethCall.RequestMethod.Name,
		Params:  []interface{}{callObject{To: to, Data: data}, "latest"},
		ID:      id,
	}
}

type LogFilter struct {
	Addresses []common.Address
	Topics    [][]common.Hash
	FromBlock *big.Int
	ToBlock   *big.Int
}

type logFilterParams struct {
	Address   []common.Address `json:"address,omitempty"`
	Topics    [][]common.Hash  `json:"topics,omitempty"`
	FromBlock string           `json:"fromBlock"`
	ToBlock   string           `json:"toBlock"`
}

func blockArg(n *big.Int) string {
	if n == nil {
		return "latest"
	}
	return hexutil.EncodeBig(n)
}

func GetLogsRequest(filter *LogFilter, id uint) *RPCRequest {
	return &RPCRequest{
		JSONRPC: jsonRPCVersion,
		Method:  RPCMethod_getLogs.RequestMethod.Name,
		Params: []interface{}{logFilterParams{
			Address:   filter.Addresses,
			Topics:    filter.Topics,
			FromBlock: blockArg(filter.FromBlock),
			ToBlock:   blockArg(filter.ToBlock),
		}},
		ID: id,
	}
}

func newBig(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}
