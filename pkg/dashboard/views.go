package dashboard

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/yieldshift/sidecar/pkg/poller"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/wallet"
)

// Section wraps one polled value with the flags a view needs to render it.
// Loading is true until the first successful read; Enabled is false while
// the value cannot be read because its contract or pool is not configured.
type Section[T any] struct {
	Value     T         `json:"value"`
	Loading   bool      `json:"loading"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func sectionOf[T any, V any](p *poller.Poll[T], render func(T) V) Section[V] {
	snap := p.Snapshot()
	s := Section[V]{
		Loading:   !snap.HasValue,
		Enabled:   p.Enabled(),
		UpdatedAt: snap.UpdatedAt,
	}
	if snap.HasValue {
		s.Value = render(snap.Value)
	}
	if snap.LastError != nil {
		s.Error = snap.LastError.Error()
	}
	return s
}

func identity[T any](v T) T {
	return v
}

type VaultsView struct {
	Vaults []viewModel.VaultSummary      `json:"vaults"`
	Counts map[viewModel.VaultStatus]int `json:"counts"`
}

type PoolView struct {
	Name   string                             `json:"name"`
	PoolId common.Hash                        `json:"poolId"`
	State  Section[*viewModel.PoolStateView]  `json:"state"`
	Config Section[*viewModel.PoolConfigView] `json:"config"`
}

type PoolListing struct {
	Name     string      `json:"name"`
	PoolId   common.Hash `json:"poolId"`
	Selected bool        `json:"selected"`
	Ready    bool        `json:"ready"`
}

type VaultAPYView struct {
	Vault          common.Address `json:"vault"`
	APY            string         `json:"apy"`
	APYBasisPoints string         `json:"apyBasisPoints"`
}

type ActivityView struct {
	Live   bool                          `json:"live"`
	Events []viewModel.ActivityEventView `json:"events"`
}

type Overview struct {
	Vaults            Section[VaultsView]          `json:"vaults"`
	ActiveVaultsCount Section[uint64]              `json:"activeVaultsCount"`
	BestYield         Section[viewModel.BestYield] `json:"bestYield"`
	SelectedPool      string                       `json:"selectedPool"`
	Pool              PoolView                     `json:"pool"`
	Activity          ActivityView                 `json:"activity"`
	Session           wallet.SessionState          `json:"session"`
	GeneratedAt       time.Time                    `json:"generatedAt"`
}

// Vaults returns the vault list with router totals merged in once they are available.
func (d *Dashboard) Vaults() Section[VaultsView] {
	stats := d.vaultStats.Snapshot()
	return sectionOf(d.vaults, func(summaries []viewModel.VaultSummary) VaultsView {
		if stats.HasValue {
			summaries = viewModel.WithStats(summaries, stats.Value, d.config.TokenDecimals)
		}
		return VaultsView{
			Vaults: summaries,
			Counts: viewModel.CountByStatus(summaries),
		}
	})
}

func (d *Dashboard) BestYield() Section[viewModel.BestYield] {
	return sectionOf(d.bestYield, identity[viewModel.BestYield])
}

func (d *Dashboard) ActiveVaultsCount() Section[uint64] {
	return sectionOf(d.activeCount, identity[uint64])
}

func (d *Dashboard) poolView(p *poolPolls) PoolView {
	now := d.config.Now()
	cfg := p.config.Snapshot()

	harvestFrequency := uint64(0)
	if cfg.HasValue {
		harvestFrequency = cfg.Value.HarvestFrequency
	}
	return PoolView{
		Name:   p.name,
		PoolId: p.id,
		State: sectionOf(p.state, func(s *viewModel.PoolState) *viewModel.PoolStateView {
			v := s.View(harvestFrequency, d.config.TokenDecimals, now)
			return &v
		}),
		Config: sectionOf(p.config, func(c viewModel.PoolConfig) *viewModel.PoolConfigView {
			v := c.View()
			return &v
		}),
	}
}

// Pool returns the state and config of the named pool.
func (d *Dashboard) Pool(name string) (PoolView, error) {
	p, ok := d.pool(name)
	if !ok {
		return PoolView{}, ErrUnknownPool
	}
	return d.poolView(p), nil
}

func (d *Dashboard) Pools() []PoolListing {
	selected := d.SelectedPool()
	listings := make([]PoolListing, 0, len(d.pools))
	for _, p := range d.pools {
		listings = append(listings, PoolListing{
			Name:     p.name,
			PoolId:   p.id,
			Selected: p.name == selected,
			Ready:    d.source.PoolReady(p.id),
		})
	}
	return listings
}

// Activity renders the combined feed, or the buffer of a single event type when one is given.
func (d *Dashboard) Activity(eventType viewModel.ActivityEventType) ActivityView {
	var events []viewModel.ActivityEvent
	if eventType == "" {
		events = d.feed.Combined()
	} else {
		events = d.feed.Events(eventType)
	}
	now := d.config.Now()
	views := make([]viewModel.ActivityEventView, 0, len(events))
	for _, e := range events {
		views = append(views, e.View(d.config.TokenDecimals, now))
	}
	return ActivityView{
		Live:   d.feed.Live(),
		Events: views,
	}
}

func (d *Dashboard) SetLive(live bool) ActivityView {
	d.feed.SetLive(live)
	return d.Activity("")
}

func (d *Dashboard) Overview() Overview {
	selected := d.SelectedPool()
	p, _ := d.pool(selected)
	return Overview{
		Vaults:            d.Vaults(),
		ActiveVaultsCount: d.ActiveVaultsCount(),
		BestYield:         d.BestYield(),
		SelectedPool:      selected,
		Pool:              d.poolView(p),
		Activity:          d.Activity(""),
		Session:           d.session.State(),
		GeneratedAt:       d.config.Now(),
	}
}
