package dashboard

import (
	"time"

	"github.com/yieldshift/sidecar/internal/config"
)

type DashboardConfig struct {
	Pools         []config.PoolDefinition
	SelectedPool  string
	RiskTolerance uint64
	TokenDecimals int

	PoolStateInterval time.Duration
	VaultDataInterval time.Duration
	AggregateInterval time.Duration

	// MaxSubmissions bounds the local log of config form submissions.
	MaxSubmissions int

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewDashboardConfig(cfg *config.Config) *DashboardConfig {
	return &DashboardConfig{
		Pools:             cfg.Pools,
		SelectedPool:      cfg.SelectedPool,
		RiskTolerance:     cfg.RiskTolerance,
		TokenDecimals:     cfg.TokenDecimals,
		PoolStateInterval: cfg.PollingConfig.PoolStateInterval,
		VaultDataInterval: cfg.PollingConfig.VaultDataInterval,
		AggregateInterval: cfg.PollingConfig.AggregateInterval,
	}
}

func (dc *DashboardConfig) setDefaults() {
	if dc.PoolStateInterval <= 0 {
		dc.PoolStateInterval = config.DefaultPoolStateInterval
	}
	if dc.VaultDataInterval <= 0 {
		dc.VaultDataInterval = config.DefaultVaultDataInterval
	}
	if dc.AggregateInterval <= 0 {
		dc.AggregateInterval = config.DefaultAggregateInterval
	}
	if dc.TokenDecimals <= 0 {
		dc.TokenDecimals = config.DefaultTokenDecimals
	}
	if dc.RiskTolerance == 0 {
		dc.RiskTolerance = config.DefaultRiskTolerance
	}
	if dc.MaxSubmissions <= 0 {
		dc.MaxSubmissions = 20
	}
	if len(dc.Pools) == 0 {
		dc.Pools = []config.PoolDefinition{{Name: config.DefaultPoolName}}
	}
	if dc.SelectedPool == "" {
		dc.SelectedPool = dc.Pools[0].Name
	}
	if dc.Now == nil {
		dc.Now = time.Now
	}
}
