// Package yieldContracts exposes typed reads of the YieldOracle, YieldRouter and YieldShiftHook contracts.
package yieldContracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/pkg/contractAbi"
	"github.com/yieldshift/sidecar/pkg/contractReader"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

// ErrUnconfiguredPool is returned for hook reads with the zero pool id. No call is issued.
var ErrUnconfiguredPool = errors.New("pool id is not configured")

// ErrNoVaultStats is returned when not a single total of a stats batch could be read.
var ErrNoVaultStats = errors.New("no vault totals could be read")

type YieldContracts struct {
	reader    contractReader.IContractReader
	addresses config.ContractAddresses
	logger    *zap.Logger
}

func NewYieldContracts(reader contractReader.IContractReader, addresses config.ContractAddresses, l *zap.Logger) *YieldContracts {
	return &YieldContracts{
		reader:    reader,
		addresses: addresses,
		logger:    l,
	}
}

func (yc *YieldContracts) Addresses() config.ContractAddresses {
	return yc.addresses
}

func (yc *YieldContracts) oracleRequest(method string, args ...interface{}) *contractReader.ReadRequest {
	return &contractReader.ReadRequest{
		Contract: yc.addresses.YieldOracle,
		Abi:      contractAbi.YieldOracle(),
		Method:   method,
		Args:     args,
	}
}

func (yc *YieldContracts) routerRequest(method string, args ...interface{}) *contractReader.ReadRequest {
	return &contractReader.ReadRequest{
		Contract: yc.addresses.YieldRouter,
		Abi:      contractAbi.YieldRouter(),
		Method:   method,
		Args:     args,
	}
}

func (yc *YieldContracts) hookRequest(method string, args ...interface{}) *contractReader.ReadRequest {
	return &contractReader.ReadRequest{
		Contract: yc.addresses.YieldShiftHook,
		Abi:      contractAbi.YieldShiftHook(),
		Method:   method,
		Args:     args,
	}
}

func (yc *YieldContracts) readUint(ctx context.Context, req *contractReader.ReadRequest) (*big.Int, error) {
	values, err := yc.reader.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	v, err := contractReader.FirstValue(values)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", req.Method)
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, errors.Errorf("%s returned %T, expected uint256", req.Method, v)
	}
	return n, nil
}

// GetAPY returns the vault's APY in basis points.
func (yc *YieldContracts) GetAPY(ctx context.Context, vault common.Address) (*big.Int, error) {
	return yc.readUint(ctx, yc.oracleRequest(contractAbi.Method_GetAPY, vault))
}

// GetBestYield returns the highest-APY vault allowed at the given risk tolerance.
func (yc *YieldContracts) GetBestYield(ctx context.Context, riskTolerance uint64) (viewModel.BestYield, error) {
	values, err := yc.reader.Read(ctx, yc.oracleRequest(contractAbi.Method_GetBestYield, new(big.Int).SetUint64(riskTolerance)))
	if err != nil {
		return viewModel.BestYield{}, err
	}
	return viewModel.ParseBestYield(values, riskTolerance), nil
}

func (yc *YieldContracts) GetAllAPYs(ctx context.Context) (viewModel.VaultAPYs, error) {
	values, err := yc.reader.Read(ctx, yc.oracleRequest(contractAbi.Method_GetAllAPYs))
	if err != nil {
		return viewModel.VaultAPYs{}, err
	}
	apys := viewModel.ParseVaultAPYs(values)
	if len(apys.Vaults) != len(apys.APYs) {
		yc.logger.Sugar().Warnw("getAllAPYs returned arrays of different length",
			zap.Int("vaults", len(apys.Vaults)),
			zap.Int("apys", len(apys.APYs)),
		)
	}
	return apys, nil
}

func (yc *YieldContracts) GetActiveVaultsCount(ctx context.Context) (uint64, error) {
	n, err := yc.readUint(ctx, yc.oracleRequest(contractAbi.Method_GetActiveVaultsCount))
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, errors.Errorf("active vault count %s overflows uint64", n.String())
	}
	return n.Uint64(), nil
}

func (yc *YieldContracts) GetVaultConfig(ctx context.Context, vault common.Address) (viewModel.VaultConfig, error) {
	values, err := yc.reader.Read(ctx, yc.oracleRequest(contractAbi.Method_GetVaultConfig, vault))
	if err != nil {
		return viewModel.VaultConfig{}, err
	}
	raw, err := contractReader.FirstValue(values)
	if err != nil {
		return viewModel.VaultConfig{}, errors.Wrap(err, contractAbi.Method_GetVaultConfig)
	}
	return viewModel.ParseVaultConfig(raw), nil
}

func (yc *YieldContracts) TotalDeposited(ctx context.Context, vault common.Address) (*big.Int, error) {
	return yc.readUint(ctx, yc.routerRequest(contractAbi.Method_TotalDeposited, vault))
}

func (yc *YieldContracts) TotalHarvested(ctx context.Context, vault common.Address) (*big.Int, error) {
	return yc.readUint(ctx, yc.routerRequest(contractAbi.Method_TotalHarvested, vault))
}

func (yc *YieldContracts) GetAllVaults(ctx context.Context) ([]common.Address, error) {
	values, err := yc.reader.Read(ctx, yc.routerRequest(contractAbi.Method_GetAllVaults))
	if err != nil {
		return nil, err
	}
	v, err := contractReader.FirstValue(values)
	if err != nil {
		return nil, errors.Wrap(err, contractAbi.Method_GetAllVaults)
	}
	vaults, ok := v.([]common.Address)
	if !ok {
		return nil, errors.Errorf("getAllVaults returned %T, expected address[]", v)
	}
	return vaults, nil
}

// GetVaultStats reads deposit and harvest totals for every vault in a single batch.
// A failed read leaves that total at zero; a batch where every read failed is an error.
func (yc *YieldContracts) GetVaultStats(ctx context.Context, vaults []common.Address) ([]viewModel.VaultStats, error) {
	if len(vaults) == 0 {
		return []viewModel.VaultStats{}, nil
	}
	reqs := make([]*contractReader.ReadRequest, 0, 2*len(vaults))
	for _, v := range vaults {
		reqs = append(reqs,
			yc.routerRequest(contractAbi.Method_TotalDeposited, v),
			yc.routerRequest(contractAbi.Method_TotalHarvested, v),
		)
	}
	results := yc.reader.ReadBatch(ctx, reqs)

	var firstErr error
	failed := len(reqs) - len(results)
	uintAt := func(i int) *big.Int {
		if i >= len(results) {
			return new(big.Int)
		}
		err := results[i].Err
		if err == nil {
			var v interface{}
			if v, err = contractReader.FirstValue(results[i].Values); err == nil {
				if n, ok := v.(*big.Int); ok {
					return n
				}
				err = errors.Errorf("%s returned %T, expected uint256", reqs[i].Method, v)
			}
		}
		failed++
		if firstErr == nil {
			firstErr = err
		}
		return new(big.Int)
	}

	stats := make([]viewModel.VaultStats, 0, len(vaults))
	for i, v := range vaults {
		stats = append(stats, viewModel.VaultStats{
			Address:        v,
			TotalDeposited: uintAt(2 * i),
			TotalHarvested: uintAt(2*i + 1),
		})
	}
	if failed >= len(reqs) {
		if firstErr == nil {
			return nil, ErrNoVaultStats
		}
		return nil, errors.Wrap(ErrNoVaultStats, firstErr.Error())
	}
	if failed > 0 {
		yc.logger.Sugar().Warnw("Some vault totals could not be read",
			zap.Int("failed", failed),
			zap.Int("reads", len(reqs)),
			zap.Error(firstErr),
		)
	}
	return stats, nil
}

func (yc *YieldContracts) GetPoolState(ctx context.Context, poolId common.Hash) (*viewModel.PoolState, error) {
	if poolId == (common.Hash{}) {
		return nil, ErrUnconfiguredPool
	}
	values, err := yc.reader.Read(ctx, yc.hookRequest(contractAbi.Method_GetPoolState, [32]byte(poolId)))
	if err != nil {
		return nil, err
	}
	return viewModel.ParsePoolState(poolId, values), nil
}

func (yc *YieldContracts) GetPoolConfig(ctx context.Context, poolId common.Hash) (viewModel.PoolConfig, error) {
	if poolId == (common.Hash{}) {
		return viewModel.PoolConfig{}, ErrUnconfiguredPool
	}
	values, err := yc.reader.Read(ctx, yc.hookRequest(contractAbi.Method_PoolConfigs, [32]byte(poolId)))
	if err != nil {
		return viewModel.PoolConfig{}, err
	}
	raw, err := contractReader.FirstValue(values)
	if err != nil {
		return viewModel.PoolConfig{}, errors.Wrap(err, contractAbi.Method_PoolConfigs)
	}
	return viewModel.ParsePoolConfig(raw), nil
}
