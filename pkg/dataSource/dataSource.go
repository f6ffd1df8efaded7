// Package dataSource defines what the dashboard reads from: vault summaries, pool state,
// pool config and an activity stream. The live implementation reads the contracts;
// the mock implementation serves embedded demo fixtures.
package dataSource

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/viewModel"
)

type DataSource interface {
	activityFeed.Source

	Name() string

	// VaultsReady gates the oracle reads: vault summaries, best yield and the active vault count.
	VaultsReady() bool
	// StatsReady gates the router reads: the router's vault list and its totals.
	StatsReady() bool
	// PoolReady gates the hook reads for one pool.
	PoolReady(poolId common.Hash) bool

	VaultSummaries(ctx context.Context) ([]viewModel.VaultSummary, error)
	VaultAPY(ctx context.Context, vault common.Address) (*big.Int, error)
	StatsVaults(ctx context.Context) ([]common.Address, error)
	VaultStats(ctx context.Context, vaults []common.Address) ([]viewModel.VaultStats, error)
	BestYield(ctx context.Context, riskTolerance uint64) (viewModel.BestYield, error)
	ActiveVaultsCount(ctx context.Context) (uint64, error)
	PoolState(ctx context.Context, poolId common.Hash) (*viewModel.PoolState, error)
	PoolConfig(ctx context.Context, poolId common.Hash) (viewModel.PoolConfig, error)

	Close()
}
