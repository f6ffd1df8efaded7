package live

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/batchReader"
	"github.com/yieldshift/sidecar/pkg/contractAbi"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/yieldContracts"
	"go.uber.org/zap"
)

const Name = "live"

type LiveDataSourceConfig struct {
	// Concurrency caps the per-vault config reads in flight at once.
	Concurrency int
}

// LiveDataSource reads everything from the deployed contracts.
type LiveDataSource struct {
	contracts *yieldContracts.YieldContracts
	logSource *activityFeed.LogSource
	config    *LiveDataSourceConfig
	closers   []func()
	logger    *zap.Logger
}

func NewLiveDataSource(
	contracts *yieldContracts.YieldContracts,
	subscriber activityFeed.LogSubscriber,
	cfg *LiveDataSourceConfig,
	l *zap.Logger,
) *LiveDataSource {
	return &LiveDataSource{
		contracts: contracts,
		logSource: activityFeed.NewLogSource(subscriber, contracts.Addresses().YieldShiftHook, contractAbi.YieldShiftHook(), l),
		config:    cfg,
		logger:    l,
	}
}

// OnClose registers a func run by Close, used to release the reader and subscriber.
func (lds *LiveDataSource) OnClose(f func()) {
	lds.closers = append(lds.closers, f)
}

func (lds *LiveDataSource) Name() string {
	return Name
}

func (lds *LiveDataSource) VaultsReady() bool {
	return lds.contracts.Addresses().YieldOracle != (common.Address{})
}

func (lds *LiveDataSource) StatsReady() bool {
	return lds.contracts.Addresses().YieldRouter != (common.Address{})
}

func (lds *LiveDataSource) PoolReady(poolId common.Hash) bool {
	return lds.contracts.Addresses().YieldShiftHook != (common.Address{}) && poolId != (common.Hash{})
}

// VaultSummaries reads the APY list, then every vault's config concurrently.
// A vault whose config read fails is shown with the default config.
func (lds *LiveDataSource) VaultSummaries(ctx context.Context) ([]viewModel.VaultSummary, error) {
	apys, err := lds.contracts.GetAllAPYs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read vault APYs")
	}

	batch := batchReader.Start[viewModel.VaultConfig](ctx, apys.Vaults, lds.contracts.GetVaultConfig, viewModel.DefaultVaultConfig, &batchReader.Options{
		Concurrency: lds.config.Concurrency,
		Name:        contractAbi.Method_GetVaultConfig,
		Logger:      lds.logger,
	})
	configs, err := batch.WaitContext(ctx)
	if err != nil {
		return nil, err
	}
	if failures := batch.Failures(); failures > 0 {
		lds.logger.Sugar().Warnw("Some vault configs could not be read",
			zap.Int("failures", failures),
			zap.Int("vaults", len(apys.Vaults)),
		)
	}
	return viewModel.BuildVaultSummaries(apys, configs), nil
}

// VaultAPY reads a single vault's APY in basis points from the oracle.
func (lds *LiveDataSource) VaultAPY(ctx context.Context, vault common.Address) (*big.Int, error) {
	return lds.contracts.GetAPY(ctx, vault)
}

// StatsVaults is the router's vault list, the set the deposit and harvest totals are read for.
func (lds *LiveDataSource) StatsVaults(ctx context.Context) ([]common.Address, error) {
	return lds.contracts.GetAllVaults(ctx)
}

func (lds *LiveDataSource) VaultStats(ctx context.Context, vaults []common.Address) ([]viewModel.VaultStats, error) {
	return lds.contracts.GetVaultStats(ctx, vaults)
}

func (lds *LiveDataSource) BestYield(ctx context.Context, riskTolerance uint64) (viewModel.BestYield, error) {
	return lds.contracts.GetBestYield(ctx, riskTolerance)
}

func (lds *LiveDataSource) ActiveVaultsCount(ctx context.Context) (uint64, error) {
	return lds.contracts.GetActiveVaultsCount(ctx)
}

func (lds *LiveDataSource) PoolState(ctx context.Context, poolId common.Hash) (*viewModel.PoolState, error) {
	return lds.contracts.GetPoolState(ctx, poolId)
}

func (lds *LiveDataSource) PoolConfig(ctx context.Context, poolId common.Hash) (viewModel.PoolConfig, error) {
	return lds.contracts.GetPoolConfig(ctx, poolId)
}

func (lds *LiveDataSource) SubscribeActivity(ctx context.Context, sink activityFeed.Sink) (*activityFeed.Subscription, error) {
	return lds.logSource.SubscribeActivity(ctx, sink)
}

func (lds *LiveDataSource) Close() {
	for _, f := range lds.closers {
		f()
	}
	lds.closers = nil
}
