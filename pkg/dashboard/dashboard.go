// Package dashboard keeps every view the dashboard renders fresh: one poll per data
// category, the activity feed and the wallet session.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/dataSource"
	"github.com/yieldshift/sidecar/pkg/poller"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/wallet"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownPool   = errors.New("unknown pool")
	ErrNotConfigured = errors.New("contract is not configured")
)

const (
	Poll_Vaults            = "vaults"
	Poll_VaultStats        = "vaultStats"
	Poll_BestYield         = "bestYield"
	Poll_ActiveVaultsCount = "activeVaultsCount"
	Poll_PoolState         = "poolState"
	Poll_PoolConfig        = "poolConfig"
)

type poolPolls struct {
	name   string
	id     common.Hash
	state  *poller.Poll[*viewModel.PoolState]
	config *poller.Poll[viewModel.PoolConfig]
}

type Dashboard struct {
	config *DashboardConfig
	source dataSource.DataSource

	vaults      *poller.Poll[[]viewModel.VaultSummary]
	vaultStats  *poller.Poll[[]viewModel.VaultStats]
	bestYield   *poller.Poll[viewModel.BestYield]
	activeCount *poller.Poll[uint64]
	pools       []*poolPolls

	scheduler *poller.Scheduler
	feed      *activityFeed.Feed
	session   *wallet.Session

	mu          sync.RWMutex
	selected    string
	submissions []ConfigSubmission
	activity    *activityFeed.Subscription

	metrics *metrics.MetricsSink
	logger  *zap.Logger
}

func NewDashboard(
	cfg *DashboardConfig,
	source dataSource.DataSource,
	feed *activityFeed.Feed,
	session *wallet.Session,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) (*Dashboard, error) {
	cfg.setDefaults()

	d := &Dashboard{
		config:    cfg,
		source:    source,
		scheduler: poller.NewScheduler(l),
		feed:      feed,
		session:   session,
		metrics:   ms,
		logger:    l,
	}

	d.vaults = poller.NewPoll(&poller.PollConfig[[]viewModel.VaultSummary]{
		Name:     Poll_Vaults,
		Interval: cfg.VaultDataInterval,
		Enabled:  source.VaultsReady,
		Fetch:    d.fetchVaults,
		Now:      cfg.Now,
	}, ms, l)

	d.vaultStats = poller.NewPoll(&poller.PollConfig[[]viewModel.VaultStats]{
		Name:     Poll_VaultStats,
		Interval: cfg.VaultDataInterval,
		Enabled:  source.StatsReady,
		Fetch:    d.fetchVaultStats,
		Now:      cfg.Now,
	}, ms, l)

	d.bestYield = poller.NewPoll(&poller.PollConfig[viewModel.BestYield]{
		Name:     Poll_BestYield,
		Interval: cfg.VaultDataInterval,
		Enabled:  source.VaultsReady,
		Fetch: func(ctx context.Context) (viewModel.BestYield, error) {
			return source.BestYield(ctx, cfg.RiskTolerance)
		},
		Now: cfg.Now,
	}, ms, l)

	d.activeCount = poller.NewPoll(&poller.PollConfig[uint64]{
		Name:     Poll_ActiveVaultsCount,
		Interval: cfg.AggregateInterval,
		Enabled:  source.VaultsReady,
		Fetch:    source.ActiveVaultsCount,
		Now:      cfg.Now,
	}, ms, l)

	for _, p := range cfg.Pools {
		d.pools = append(d.pools, d.newPoolPolls(p.Name, p.Id))
	}
	if _, ok := d.pool(cfg.SelectedPool); !ok {
		return nil, errors.Wrapf(ErrUnknownPool, "selected pool '%s'", cfg.SelectedPool)
	}
	d.selected = cfg.SelectedPool

	return d, nil
}

func (d *Dashboard) newPoolPolls(name string, id common.Hash) *poolPolls {
	ready := func() bool { return d.source.PoolReady(id) }
	return &poolPolls{
		name: name,
		id:   id,
		state: poller.NewPoll(&poller.PollConfig[*viewModel.PoolState]{
			Name:     fmt.Sprintf("%s:%s", Poll_PoolState, name),
			Category: Poll_PoolState,
			Interval: d.config.PoolStateInterval,
			Enabled:  ready,
			Fetch: func(ctx context.Context) (*viewModel.PoolState, error) {
				return d.fetchPoolState(ctx, name, id)
			},
			Now: d.config.Now,
		}, d.metrics, d.logger),
		config: poller.NewPoll(&poller.PollConfig[viewModel.PoolConfig]{
			Name:     fmt.Sprintf("%s:%s", Poll_PoolConfig, name),
			Category: Poll_PoolConfig,
			Interval: d.config.VaultDataInterval,
			Enabled:  ready,
			Fetch: func(ctx context.Context) (viewModel.PoolConfig, error) {
				return d.source.PoolConfig(ctx, id)
			},
			Now: d.config.Now,
		}, d.metrics, d.logger),
	}
}

func (d *Dashboard) pool(name string) (*poolPolls, bool) {
	for _, p := range d.pools {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

func (d *Dashboard) fetchVaults(ctx context.Context) ([]viewModel.VaultSummary, error) {
	summaries, err := d.source.VaultSummaries(ctx)
	if err != nil {
		return nil, err
	}
	counts := viewModel.CountByStatus(summaries)
	_ = d.metrics.Gauge(metricsTypes.Metric_Gauge_ActiveVaultsCount, float64(counts[viewModel.VaultStatus_Active]), nil)
	return summaries, nil
}

// knownVaults returns the addresses of the last published vault list.
func (d *Dashboard) knownVaults() ([]common.Address, bool) {
	snap := d.vaults.Snapshot()
	if !snap.HasValue {
		return nil, false
	}
	addresses := make([]common.Address, 0, len(snap.Value))
	for _, v := range snap.Value {
		addresses = append(addresses, v.Address)
	}
	return addresses, true
}

// fetchVaultStats reads the router's vault list, then the totals of every vault on it.
func (d *Dashboard) fetchVaultStats(ctx context.Context) ([]viewModel.VaultStats, error) {
	vaults, err := d.source.StatsVaults(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read router vault list")
	}
	if len(vaults) == 0 {
		return []viewModel.VaultStats{}, nil
	}
	return d.source.VaultStats(ctx, vaults)
}

// fetchPoolState reads the pool and drops active vaults that are not in the known vault list.
func (d *Dashboard) fetchPoolState(ctx context.Context, name string, id common.Hash) (*viewModel.PoolState, error) {
	state, err := d.source.PoolState(ctx, id)
	if err != nil {
		return nil, err
	}
	known, ok := d.knownVaults()
	if !ok {
		return state, nil
	}
	restricted, dropped := state.RestrictTo(known)
	if len(dropped) > 0 {
		d.logger.Sugar().Warnw("Pool reports active vaults that are not known vaults",
			zap.String("pool", name),
			zap.Int("dropped", len(dropped)),
		)
	}
	return restricted, nil
}

func (d *Dashboard) jobs() []poller.Job {
	jobs := []poller.Job{d.vaults, d.vaultStats, d.bestYield, d.activeCount}
	for _, p := range d.pools {
		jobs = append(jobs, p.state, p.config)
	}
	return jobs
}

// Start registers every poll, starts the scheduler and subscribes the activity feed.
// A data source that cannot stream activity leaves the feed empty without failing Start.
func (d *Dashboard) Start(ctx context.Context) error {
	for _, job := range d.jobs() {
		if err := d.scheduler.Register(job); err != nil {
			return err
		}
	}
	d.scheduler.Start()

	sub, err := d.feed.Subscribe(ctx, d.source)
	if err != nil {
		d.logger.Sugar().Warnw("Activity feed unavailable", zap.Error(err))
		return nil
	}
	d.mu.Lock()
	d.activity = sub
	d.mu.Unlock()

	d.logger.Sugar().Infow("Dashboard started",
		zap.String("dataSource", d.source.Name()),
		zap.Int("pools", len(d.pools)),
	)
	return nil
}

// Stop closes the activity subscription and waits for in-flight polls.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	sub := d.activity
	d.activity = nil
	d.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	d.scheduler.Stop()
	d.logger.Sugar().Infow("Dashboard stopped")
}

// Refresh ticks every poll once and waits for the results. The vault list is read first
// since the pool polls restrict active vaults to it.
func (d *Dashboard) Refresh(ctx context.Context) {
	d.vaults.Tick(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range d.jobs()[1:] {
		g.Go(func() error {
			job.Tick(gctx)
			return nil
		})
	}
	_ = g.Wait()
}

// VaultAPY reads one vault's current APY straight from the oracle, bypassing the polls.
func (d *Dashboard) VaultAPY(ctx context.Context, vault common.Address) (VaultAPYView, error) {
	if !d.source.VaultsReady() {
		return VaultAPYView{}, errors.Wrap(ErrNotConfigured, "yield oracle")
	}
	apy, err := d.source.VaultAPY(ctx, vault)
	if err != nil {
		return VaultAPYView{}, errors.Wrapf(err, "failed to read APY of %s", vault.Hex())
	}
	return VaultAPYView{
		Vault:          vault,
		APY:            viewModel.FormatBasisPoints(apy),
		APYBasisPoints: apy.String(),
	}, nil
}

func (d *Dashboard) Feed() *activityFeed.Feed {
	return d.feed
}

func (d *Dashboard) Session() *wallet.Session {
	return d.session
}
