package viewModel

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type PoolState struct {
	PoolId          common.Hash
	TotalShifted    *big.Int
	TotalHarvested  *big.Int
	SwapCount       *big.Int
	LastHarvestTime *big.Int
	ActiveVaults    *orderedmap.OrderedMap[common.Address, struct{}]
}

func newAddressSet(addresses []common.Address) *orderedmap.OrderedMap[common.Address, struct{}] {
	set := orderedmap.New[common.Address, struct{}]()
	for _, a := range addresses {
		set.Set(a, struct{}{})
	}
	return set
}

// ParsePoolState reads the getPoolState outputs, defaulting every missing field to zero.
func ParsePoolState(poolId common.Hash, values []interface{}) *PoolState {
	return &PoolState{
		PoolId:          poolId,
		TotalShifted:    toBig(valueAt(values, 0)),
		TotalHarvested:  toBig(valueAt(values, 1)),
		SwapCount:       toBig(valueAt(values, 2)),
		LastHarvestTime: toBig(valueAt(values, 3)),
		ActiveVaults:    newAddressSet(toAddresses(valueAt(values, 4))),
	}
}

// ActiveVaultList returns the active vaults in contract order.
func (ps *PoolState) ActiveVaultList() []common.Address {
	list := make([]common.Address, 0, ps.ActiveVaults.Len())
	for pair := ps.ActiveVaults.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Key)
	}
	return list
}

// HarvestDue reports whether enough swaps have happened since the last harvest.
func (ps *PoolState) HarvestDue(harvestFrequency uint64) bool {
	if harvestFrequency == 0 {
		return false
	}
	return ps.SwapCount.Cmp(new(big.Int).SetUint64(harvestFrequency)) >= 0
}

// RestrictTo returns a copy whose active vaults are limited to known vaults,
// along with the addresses that were dropped.
func (ps *PoolState) RestrictTo(known []common.Address) (*PoolState, []common.Address) {
	knownSet := make(map[common.Address]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}
	kept := make([]common.Address, 0)
	dropped := make([]common.Address, 0)
	for _, a := range ps.ActiveVaultList() {
		if _, ok := knownSet[a]; ok {
			kept = append(kept, a)
		} else {
			dropped = append(dropped, a)
		}
	}
	restricted := *ps
	restricted.ActiveVaults = newAddressSet(kept)
	return &restricted, dropped
}

type PoolStateView struct {
	PoolId           common.Hash      `json:"poolId"`
	TotalShifted     string           `json:"totalShifted"`
	TotalHarvested   string           `json:"totalHarvested"`
	TotalShiftedUsd  string           `json:"totalShiftedCompact"`
	SwapCount        uint64           `json:"swapCount"`
	HarvestProgress  string           `json:"harvestProgress"`
	HarvestDue       bool             `json:"harvestDue"`
	LastHarvestTime  uint64           `json:"lastHarvestTime"`
	LastHarvest      string           `json:"lastHarvest"`
	ActiveVaults     []common.Address `json:"activeVaults"`
	ActiveVaultNames []string         `json:"activeVaultNames"`
}

// View renders the pool state for display.
func (ps *PoolState) View(harvestFrequency uint64, decimals int, now time.Time) PoolStateView {
	lastHarvest := "never"
	if ps.LastHarvestTime.Sign() > 0 {
		seconds := int64(math.MaxInt64)
		if ps.LastHarvestTime.IsInt64() {
			seconds = ps.LastHarvestTime.Int64()
		}
		lastHarvest = FormatRelativeUnix(seconds, now)
	}
	active := ps.ActiveVaultList()
	names := make([]string, 0, len(active))
	for _, a := range active {
		names = append(names, VaultName(a))
	}
	swapCount := toUint64(ps.SwapCount)
	return PoolStateView{
		PoolId:           ps.PoolId,
		TotalShifted:     FormatTokenAmount(ps.TotalShifted, decimals),
		TotalHarvested:   FormatTokenAmount(ps.TotalHarvested, decimals),
		TotalShiftedUsd:  FormatCompact(ps.TotalShifted, decimals),
		SwapCount:        swapCount,
		HarvestProgress:  fmt.Sprintf("%d/%d", swapCount, harvestFrequency),
		HarvestDue:       ps.HarvestDue(harvestFrequency),
		LastHarvestTime:  toUint64(ps.LastHarvestTime),
		LastHarvest:      lastHarvest,
		ActiveVaults:     active,
		ActiveVaultNames: names,
	}
}

type PoolConfig struct {
	ShiftPercentage  uint64         `json:"shiftPercentage"`
	MinAPYThreshold  uint64         `json:"minAPYThreshold"`
	HarvestFrequency uint64         `json:"harvestFrequency"`
	RiskTolerance    uint64         `json:"riskTolerance"`
	IsPaused         bool           `json:"isPaused"`
	Admin            common.Address `json:"admin"`
}

// ParsePoolConfig reads the poolConfigs tuple, defaulting every missing field to zero.
func ParsePoolConfig(raw interface{}) PoolConfig {
	return PoolConfig{
		ShiftPercentage:  toUint64(field(raw, "ShiftPercentage")),
		MinAPYThreshold:  toUint64(field(raw, "MinAPYThreshold")),
		HarvestFrequency: toUint64(field(raw, "HarvestFrequency")),
		RiskTolerance:    toUint64(field(raw, "RiskTolerance")),
		IsPaused:         toBool(field(raw, "IsPaused")),
		Admin:            toAddress(field(raw, "Admin")),
	}
}

func (pc PoolConfig) RiskProfile() RiskProfile {
	return RiskProfileForTolerance(pc.RiskTolerance)
}

// Form returns the editable subset of the config.
func (pc PoolConfig) Form() PoolConfigForm {
	return PoolConfigForm{
		ShiftPercentage:  pc.ShiftPercentage,
		MinAPYThreshold:  pc.MinAPYThreshold,
		HarvestFrequency: pc.HarvestFrequency,
		RiskTolerance:    pc.RiskTolerance,
	}
}

type PoolConfigView struct {
	PoolConfig
	RiskProfile RiskProfile `json:"riskProfile"`
	Status      string      `json:"status"`
}

func (pc PoolConfig) View() PoolConfigView {
	status := "active"
	if pc.IsPaused {
		status = "paused"
	}
	return PoolConfigView{
		PoolConfig:  pc,
		RiskProfile: pc.RiskProfile(),
		Status:      status,
	}
}
