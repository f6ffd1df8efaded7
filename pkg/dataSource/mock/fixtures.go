package mock

import (
	_ "embed"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type VaultFixture struct {
	Name           string `yaml:"name"`
	Address        string `yaml:"address"`
	APYBasisPoints int64  `yaml:"apyBasisPoints"`
	Deposited      string `yaml:"deposited"`
	Harvested      string `yaml:"harvested"`
	RiskScore      uint64 `yaml:"riskScore"`
	Status         string `yaml:"status"`
}

type PoolFixture struct {
	TotalShifted          string   `yaml:"totalShifted"`
	TotalHarvested        string   `yaml:"totalHarvested"`
	SwapCount             int64    `yaml:"swapCount"`
	LastHarvestMinutesAgo int64    `yaml:"lastHarvestMinutesAgo"`
	ActiveVaults          []string `yaml:"activeVaults"`
}

type PoolConfigFixture struct {
	ShiftPercentage  uint64 `yaml:"shiftPercentage"`
	MinAPYThreshold  uint64 `yaml:"minAPYThreshold"`
	HarvestFrequency uint64 `yaml:"harvestFrequency"`
	RiskTolerance    uint64 `yaml:"riskTolerance"`
	IsPaused         bool   `yaml:"isPaused"`
	Admin            string `yaml:"admin"`
}

type ActivityFixture struct {
	Type       string `yaml:"type"`
	Message    string `yaml:"message"`
	Details    string `yaml:"details"`
	Amount     string `yaml:"amount"`
	MinutesAgo int64  `yaml:"minutesAgo"`
}

type Fixtures struct {
	Vaults     []VaultFixture    `yaml:"vaults"`
	Pool       PoolFixture       `yaml:"pool"`
	PoolConfig PoolConfigFixture `yaml:"poolConfig"`
	Activity   []ActivityFixture `yaml:"activity"`
}

// LoadFixtures parses fixtures from YAML. Nil or empty input loads the embedded defaults.
func LoadFixtures(raw []byte) (*Fixtures, error) {
	if len(raw) == 0 {
		raw = defaultFixtures
	}
	f := &Fixtures{}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, errors.Wrap(err, "failed to parse mock fixtures")
	}
	for _, v := range f.Vaults {
		if !common.IsHexAddress(v.Address) {
			return nil, errors.Errorf("mock vault '%s' has an invalid address '%s'", v.Name, v.Address)
		}
	}
	return f, nil
}

func parseAmount(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

func (vf VaultFixture) summary() viewModel.VaultSummary {
	address := common.HexToAddress(vf.Address)
	s := viewModel.NewVaultSummary(address, big.NewInt(vf.APYBasisPoints), viewModel.VaultConfig{
		VaultAddress:  address,
		RiskScore:     vf.RiskScore,
		IsWhitelisted: vf.Status == string(viewModel.VaultStatus_Active),
	})
	if vf.Name != "" {
		s.Name = vf.Name
	}
	if vf.Status != "" {
		s.Status = viewModel.VaultStatus(vf.Status)
	}
	return s
}

func (vf VaultFixture) stats() viewModel.VaultStats {
	return viewModel.VaultStats{
		Address:        common.HexToAddress(vf.Address),
		TotalDeposited: parseAmount(vf.Deposited),
		TotalHarvested: parseAmount(vf.Harvested),
	}
}

func (pf PoolFixture) state(poolId common.Hash, now time.Time) *viewModel.PoolState {
	active := make([]common.Address, 0, len(pf.ActiveVaults))
	for _, a := range pf.ActiveVaults {
		active = append(active, common.HexToAddress(a))
	}

	lastHarvest := new(big.Int)
	if pf.LastHarvestMinutesAgo > 0 {
		lastHarvest.SetInt64(now.Add(-time.Duration(pf.LastHarvestMinutesAgo) * time.Minute).Unix())
	}
	return viewModel.ParsePoolState(poolId, []interface{}{
		parseAmount(pf.TotalShifted),
		parseAmount(pf.TotalHarvested),
		big.NewInt(pf.SwapCount),
		lastHarvest,
		active,
	})
}

func (pcf PoolConfigFixture) config() viewModel.PoolConfig {
	return viewModel.PoolConfig{
		ShiftPercentage:  pcf.ShiftPercentage,
		MinAPYThreshold:  pcf.MinAPYThreshold,
		HarvestFrequency: pcf.HarvestFrequency,
		RiskTolerance:    pcf.RiskTolerance,
		IsPaused:         pcf.IsPaused,
		Admin:            common.HexToAddress(pcf.Admin),
	}
}

// seedEvents returns the fixture activity oldest first.
func (f *Fixtures) seedEvents(now time.Time) []viewModel.ActivityEvent {
	activity := append([]ActivityFixture(nil), f.Activity...)
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].MinutesAgo > activity[j].MinutesAgo
	})
	events := make([]viewModel.ActivityEvent, 0, len(activity))
	for _, a := range activity {
		events = append(events, viewModel.ActivityEvent{
			Id:        newEventId(),
			Type:      viewModel.ActivityEventType(a.Type),
			Amount:    parseAmount(a.Amount),
			Message:   a.Message,
			Details:   a.Details,
			Timestamp: now.Add(-time.Duration(a.MinutesAgo) * time.Minute),
		})
	}
	return events
}
