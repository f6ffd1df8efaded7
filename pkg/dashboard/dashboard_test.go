package dashboard

import (
	"context"
	"math/big"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/tests"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/dataSource"
	"github.com/yieldshift/sidecar/pkg/dataSource/mock"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/wallet"
)

var (
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	poolA  = config.PoolDefinition{Name: "eth-usdc", Id: common.HexToHash("0x01")}
	poolB  = config.PoolDefinition{Name: "wbtc-usdc"}
	aave   = common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5")
	morpho = common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb")
)

func newDashboard(t *testing.T, source dataSource.DataSource) *Dashboard {
	l := tests.GetLogger()
	feed := activityFeed.NewFeed(&activityFeed.FeedConfig{Live: true}, nil, metrics.NewNoopMetricsSink(), l)
	d, err := NewDashboard(&DashboardConfig{
		Pools:         []config.PoolDefinition{poolA, poolB},
		RiskTolerance: 10,
		TokenDecimals: 6,
		Now:           func() time.Time { return now },
	}, source, feed, wallet.NewSession(nil, l), metrics.NewNoopMetricsSink(), l)
	require.NoError(t, err)
	return d
}

func newMockSource(t *testing.T) *mock.MockDataSource {
	mds, err := mock.NewMockDataSource(&mock.MockDataSourceConfig{
		TokenDecimals: 6,
		Rand:          rand.New(rand.NewSource(1)),
		Now:           func() time.Time { return now },
	}, tests.GetLogger())
	require.NoError(t, err)
	return mds
}

// gatedSource is a live-like source with nothing configured except what the test enables.
type gatedSource struct {
	oracle      bool
	router      bool
	reads       atomic.Int64
	oracleReads atomic.Int64
	fail        atomic.Bool
	active      []common.Address
}

func (g *gatedSource) Name() string                      { return "gated" }
func (g *gatedSource) VaultsReady() bool                 { return g.oracle }
func (g *gatedSource) StatsReady() bool                  { return g.router }
func (g *gatedSource) PoolReady(poolId common.Hash) bool { return poolId != (common.Hash{}) }
func (g *gatedSource) Close()                            {}

func (g *gatedSource) VaultSummaries(ctx context.Context) ([]viewModel.VaultSummary, error) {
	g.reads.Add(1)
	g.oracleReads.Add(1)
	if g.fail.Load() {
		return nil, errors.New("rpc unavailable")
	}
	return viewModel.BuildVaultSummaries(viewModel.VaultAPYs{
		Vaults: []common.Address{aave},
		APYs:   []*big.Int{big.NewInt(450)},
	}, nil), nil
}

func (g *gatedSource) VaultAPY(ctx context.Context, vault common.Address) (*big.Int, error) {
	g.reads.Add(1)
	g.oracleReads.Add(1)
	return big.NewInt(450), nil
}

func (g *gatedSource) StatsVaults(ctx context.Context) ([]common.Address, error) {
	g.reads.Add(1)
	return []common.Address{aave, morpho}, nil
}

func (g *gatedSource) VaultStats(ctx context.Context, vaults []common.Address) ([]viewModel.VaultStats, error) {
	g.reads.Add(1)
	stats := make([]viewModel.VaultStats, 0, len(vaults))
	for i, v := range vaults {
		stats = append(stats, viewModel.VaultStats{
			Address:        v,
			TotalDeposited: big.NewInt(int64(i+1) * 1_000_000),
			TotalHarvested: new(big.Int),
		})
	}
	return stats, nil
}

func (g *gatedSource) BestYield(ctx context.Context, riskTolerance uint64) (viewModel.BestYield, error) {
	g.reads.Add(1)
	g.oracleReads.Add(1)
	return viewModel.BestYield{}, nil
}

func (g *gatedSource) ActiveVaultsCount(ctx context.Context) (uint64, error) {
	g.reads.Add(1)
	g.oracleReads.Add(1)
	return 1, nil
}

func (g *gatedSource) PoolState(ctx context.Context, poolId common.Hash) (*viewModel.PoolState, error) {
	g.reads.Add(1)
	return viewModel.ParsePoolState(poolId, []interface{}{nil, nil, big.NewInt(2), nil, g.active}), nil
}

func (g *gatedSource) PoolConfig(ctx context.Context, poolId common.Hash) (viewModel.PoolConfig, error) {
	g.reads.Add(1)
	return viewModel.PoolConfig{HarvestFrequency: 10, RiskTolerance: 2}, nil
}

func (g *gatedSource) SubscribeActivity(ctx context.Context, sink activityFeed.Sink) (*activityFeed.Subscription, error) {
	return nil, activityFeed.ErrHookNotConfigured
}

func Test_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Overview is loading before the first refresh", func(t *testing.T) {
		d := newDashboard(t, newMockSource(t))
		o := d.Overview()
		assert.True(t, o.Vaults.Loading)
		assert.True(t, o.Pool.State.Loading)
		assert.Equal(t, "eth-usdc", o.SelectedPool)
		assert.Nil(t, o.Pool.State.Value)
	})
	t.Run("Refresh populates every section", func(t *testing.T) {
		d := newDashboard(t, newMockSource(t))
		d.Refresh(ctx)

		o := d.Overview()
		require.False(t, o.Vaults.Loading)
		require.Len(t, o.Vaults.Value.Vaults, 4)
		assert.Equal(t, "45,230.00", o.Vaults.Value.Vaults[0].Deposited)
		assert.Equal(t, 3, o.Vaults.Value.Counts[viewModel.VaultStatus_Active])
		assert.Equal(t, uint64(3), o.ActiveVaultsCount.Value)
		assert.Equal(t, morpho, o.BestYield.Value.Vault)

		require.NotNil(t, o.Pool.State.Value)
		assert.Equal(t, "47/10", o.Pool.State.Value.HarvestProgress)
		assert.Equal(t, "2h ago", o.Pool.State.Value.LastHarvest)
		require.NotNil(t, o.Pool.Config.Value)
		assert.Equal(t, viewModel.RiskProfile_Aggressive, o.Pool.Config.Value.RiskProfile)
		assert.Equal(t, now, o.GeneratedAt)
	})
	t.Run("Unconfigured contracts and pools issue no reads", func(t *testing.T) {
		src := &gatedSource{}
		d := newDashboard(t, src)
		d.Refresh(ctx)

		o := d.Overview()
		assert.False(t, o.Vaults.Enabled)
		assert.True(t, o.Vaults.Loading)
		assert.True(t, o.Pool.State.Enabled)

		// only the configured pool's state and config are read
		assert.Equal(t, int64(2), src.reads.Load())

		view, err := d.Pool(poolB.Name)
		require.NoError(t, err)
		assert.False(t, view.State.Enabled)
	})
	t.Run("Vault stats read the router list without the oracle", func(t *testing.T) {
		src := &gatedSource{router: true}
		d := newDashboard(t, src)
		d.Refresh(ctx)

		assert.Equal(t, int64(0), src.oracleReads.Load())
		assert.False(t, d.Vaults().Enabled)

		stats := d.vaultStats.Snapshot()
		require.True(t, stats.HasValue)
		assert.Nil(t, stats.LastError)
		require.Len(t, stats.Value, 2)
		assert.Equal(t, morpho, stats.Value[1].Address)
		assert.Equal(t, int64(2_000_000), stats.Value[1].TotalDeposited.Int64())

		_, err := d.VaultAPY(ctx, aave)
		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Equal(t, int64(0), src.oracleReads.Load())
	})
	t.Run("Vault APY is read on demand", func(t *testing.T) {
		src := &gatedSource{oracle: true}
		d := newDashboard(t, src)

		view, err := d.VaultAPY(ctx, aave)
		require.NoError(t, err)
		assert.Equal(t, aave, view.Vault)
		assert.Equal(t, "4.50", view.APY)
		assert.Equal(t, int64(1), src.oracleReads.Load())
	})
	t.Run("Failed refresh keeps the previous value", func(t *testing.T) {
		src := &gatedSource{oracle: true}
		d := newDashboard(t, src)
		d.Refresh(ctx)
		require.Len(t, d.Vaults().Value.Vaults, 1)

		src.fail.Store(true)
		d.Refresh(ctx)
		vaults := d.Vaults()
		assert.Len(t, vaults.Value.Vaults, 1)
		assert.False(t, vaults.Loading)
		assert.Equal(t, "rpc unavailable", vaults.Error)
	})
	t.Run("Pool state keeps only known vaults", func(t *testing.T) {
		unknown := common.HexToAddress("0x0000000000000000000000000000000000000bad")
		src := &gatedSource{oracle: true, active: []common.Address{aave, unknown}}
		d := newDashboard(t, src)
		d.Refresh(ctx)

		view, err := d.Pool(poolA.Name)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{aave}, view.State.Value.ActiveVaults)
	})
	t.Run("Pool selection", func(t *testing.T) {
		d := newDashboard(t, newMockSource(t))
		require.NoError(t, d.SelectPool(poolB.Name))
		assert.Equal(t, poolB.Name, d.SelectedPool())

		err := d.SelectPool("missing")
		assert.ErrorIs(t, err, ErrUnknownPool)
		assert.Equal(t, poolB.Name, d.SelectedPool())

		pools := d.Pools()
		require.Len(t, pools, 2)
		assert.False(t, pools[0].Selected)
		assert.True(t, pools[1].Selected)
	})
	t.Run("Unknown selected pool is rejected", func(t *testing.T) {
		l := tests.GetLogger()
		feed := activityFeed.NewFeed(&activityFeed.FeedConfig{}, nil, nil, l)
		_, err := NewDashboard(&DashboardConfig{
			Pools:        []config.PoolDefinition{poolA},
			SelectedPool: "missing",
		}, newMockSource(t), feed, wallet.NewSession(nil, l), nil, l)
		assert.ErrorIs(t, err, ErrUnknownPool)
	})
	t.Run("Config submissions are validated and logged locally", func(t *testing.T) {
		d := newDashboard(t, newMockSource(t))
		_, err := d.Session().Connect("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")
		require.NoError(t, err)

		form, err := d.ConfigForm(poolA.Name)
		require.NoError(t, err)
		assert.Equal(t, viewModel.DefaultPoolConfigForm(), form)

		form.ShiftPercentage = 60
		form.RiskTolerance = 0
		_, err = d.SubmitConfig(poolA.Name, form)
		var verr *viewModel.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Violations, 2)
		assert.Empty(t, d.Submissions())

		submission, err := d.SubmitConfig(poolA.Name, viewModel.DefaultPoolConfigForm())
		require.NoError(t, err)
		assert.Equal(t, viewModel.RiskProfile_Aggressive, submission.RiskProfile)
		assert.Equal(t, common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F"), submission.Account)
		assert.Len(t, d.Submissions(), 1)

		_, err = d.SubmitConfig("missing", viewModel.DefaultPoolConfigForm())
		assert.ErrorIs(t, err, ErrUnknownPool)
	})
	t.Run("Start streams activity and Stop waits", func(t *testing.T) {
		d := newDashboard(t, newMockSource(t))
		require.NoError(t, d.Start(ctx))

		assert.Eventually(t, func() bool {
			return !d.Vaults().Loading && len(d.Activity("").Events) == 5
		}, 2*time.Second, 10*time.Millisecond)

		paused := d.SetLive(false)
		assert.False(t, paused.Live)
		assert.Len(t, d.Activity(viewModel.ActivityEventType_Harvest).Events, 2)

		d.Stop()
	})
	t.Run("Start tolerates a source without activity", func(t *testing.T) {
		d := newDashboard(t, &gatedSource{})
		require.NoError(t, d.Start(ctx))
		d.Stop()
		assert.Empty(t, d.Activity("").Events)
	})
}
