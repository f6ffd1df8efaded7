package contractReader

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"github.com/yieldshift/sidecar/pkg/clients/ethereum"
	"go.uber.org/zap"
)

var (
	// ErrUnconfiguredAddress is returned for reads against the zero address. No call is issued.
	ErrUnconfiguredAddress = errors.New("contract address is not configured")
	ErrExecutionReverted   = errors.New("execution reverted")
	ErrEmptyResult         = errors.New("call returned no data")
)

var executionRevertedRegex = regexp.MustCompile(`execution reverted`)

func isExecutionRevertedError(err error) bool {
	return executionRevertedRegex.MatchString(err.Error())
}

type ReadRequest struct {
	Contract common.Address
	Abi      *abi.ABI
	Method   string
	Args     []interface{}
}

type ReadResult struct {
	Request *ReadRequest
	Values  []interface{}
	Err     error
}

type IContractReader interface {
	Read(ctx context.Context, req *ReadRequest) ([]interface{}, error)
	ReadBatch(ctx context.Context, reqs []*ReadRequest) []*ReadResult
}

type ContractReaderConfig struct {
	// CacheTTL of zero disables the read cache.
	CacheTTL time.Duration
}

type ContractReader struct {
	client  *ethereum.Client
	config  *ContractReaderConfig
	cache   *ristretto.Cache
	metrics *metrics.MetricsSink
	logger  *zap.Logger
}

func NewContractReader(
	client *ethereum.Client,
	cfg *ContractReaderConfig,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) (*ContractReader, error) {
	cr := &ContractReader{
		client:  client,
		config:  cfg,
		metrics: ms,
		logger:  l,
	}
	if cfg.CacheTTL > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: 10_000,
			MaxCost:     1_000,
			BufferItems: 64,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create read cache")
		}
		cr.cache = cache
	}
	return cr, nil
}

func cacheKey(contract common.Address, calldata []byte) string {
	return contract.Hex() + hexutil.Encode(calldata)
}

func (cr *ContractReader) cached(contract common.Address, calldata []byte) ([]byte, bool) {
	if cr.cache == nil {
		return nil, false
	}
	v, ok := cr.cache.Get(cacheKey(contract, calldata))
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (cr *ContractReader) store(contract common.Address, calldata []byte, data []byte) {
	if cr.cache == nil {
		return
	}
	cr.cache.SetWithTTL(cacheKey(contract, calldata), data, 1, cr.config.CacheTTL)
}

// Close releases the read cache.
func (cr *ContractReader) Close() {
	if cr.cache != nil {
		cr.cache.Close()
	}
}

func (cr *ContractReader) recordRead(method string, err error) {
	labels := []metricsTypes.MetricsLabel{{Name: metricsTypes.Label_Method, Value: method}}
	_ = cr.metrics.Incr(metricsTypes.Metric_Incr_ContractRead, labels, 1)
	if err != nil {
		_ = cr.metrics.Incr(metricsTypes.Metric_Incr_ContractReadFailed, labels, 1)
	}
}

func (cr *ContractReader) pack(req *ReadRequest) ([]byte, error) {
	if req.Contract == (common.Address{}) {
		return nil, errors.Wrapf(ErrUnconfiguredAddress, "%s", req.Method)
	}
	calldata, err := req.Abi.Pack(req.Method, req.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", req.Method)
	}
	return calldata, nil
}

func (cr *ContractReader) unpack(req *ReadRequest, data []byte) ([]interface{}, error) {
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrEmptyResult, "%s at %s", req.Method, req.Contract.Hex())
	}
	values, err := req.Abi.Unpack(req.Method, data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", req.Method)
	}
	return values, nil
}

func mapCallError(req *ReadRequest, err error) error {
	if isExecutionRevertedError(err) {
		return errors.Wrapf(ErrExecutionReverted, "%s at %s: %s", req.Method, req.Contract.Hex(), err.Error())
	}
	return errors.Wrapf(err, "%s at %s", req.Method, req.Contract.Hex())
}

// Read performs a single read-only call against the latest block and returns the decoded outputs.
func (cr *ContractReader) Read(ctx context.Context, req *ReadRequest) ([]interface{}, error) {
	calldata, err := cr.pack(req)
	if err != nil {
		return nil, err
	}

	data, ok := cr.cached(req.Contract, calldata)
	if !ok {
		data, err = cr.client.EthCall(ctx, req.Contract, calldata)
		if err != nil {
			err = mapCallError(req, err)
			cr.recordRead(req.Method, err)
			cr.logger.Sugar().Debugw("Contract read failed",
				zap.String("contract", req.Contract.Hex()),
				zap.String("method", req.Method),
				zap.Error(err),
			)
			return nil, err
		}
		if len(data) > 0 {
			cr.store(req.Contract, calldata, data)
		}
	}

	values, err := cr.unpack(req, data)
	cr.recordRead(req.Method, err)
	return values, err
}

// ReadBatch issues every request in one JSON-RPC batch. Results are aligned with reqs
// and carry their own error; one failed read never fails the others.
func (cr *ContractReader) ReadBatch(ctx context.Context, reqs []*ReadRequest) []*ReadResult {
	results := make([]*ReadResult, len(reqs))
	calldatas := make([][]byte, len(reqs))

	rpcRequests := make([]*ethereum.RPCRequest, 0)
	rpcIndexes := make([]int, 0)

	for i, req := range reqs {
		results[i] = &ReadResult{Request: req}

		calldata, err := cr.pack(req)
		if err != nil {
			results[i].Err = err
			continue
		}
		calldatas[i] = calldata

		if data, ok := cr.cached(req.Contract, calldata); ok {
			results[i].Values, results[i].Err = cr.unpack(req, data)
			continue
		}
		rpcRequests = append(rpcRequests, ethereum.EthCallRequest(req.Contract, calldata, 0))
		rpcIndexes = append(rpcIndexes, i)
	}

	if len(rpcRequests) > 0 {
		responses, err := cr.client.BatchCall(ctx, rpcRequests)
		if err != nil {
			cr.logger.Sugar().Errorw("Batch read failed", zap.Error(err))
		}
		for j, idx := range rpcIndexes {
			req := reqs[idx]
			var res *ethereum.RPCResponse
			if err == nil && j < len(responses) {
				res = responses[j]
			}
			results[idx].Values, results[idx].Err = cr.decodeResponse(req, calldatas[idx], res)
			cr.recordRead(req.Method, results[idx].Err)
		}
	}

	return results
}

func (cr *ContractReader) decodeResponse(req *ReadRequest, calldata []byte, res *ethereum.RPCResponse) ([]interface{}, error) {
	if res == nil {
		return nil, errors.Errorf("no response for %s at %s", req.Method, req.Contract.Hex())
	}
	if res.Error != nil {
		return nil, mapCallError(req, res.Error)
	}
	data, err := ethereum.RPCMethod_ethCall.ResponseParser(res.Result)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s result %s", req.Method, string(res.Result))
	}
	if len(data) > 0 {
		cr.store(req.Contract, calldata, data)
	}
	return cr.unpack(req, data)
}

// FirstValue returns the single output of a read or an error if the output count is unexpected.
func FirstValue(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("expected at least one output value")
	}
	return values[0], nil
}
