package viewModel

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var (
	aave    = common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5")
	morpho  = common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb")
	unknown = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func Test_RiskTables(t *testing.T) {
	t.Run("Five band", func(t *testing.T) {
		expected := []string{"Very Low", "Very Low", "Very Low", "Low", "Medium", "Medium", "Medium-High", "Medium-High", "High", "High", "High"}
		for score, label := range expected {
			assert.Equal(t, label, RiskTable_FiveBand.Label(uint64(score)), "score %d", score)
		}
	})
	t.Run("Three band", func(t *testing.T) {
		assert.Equal(t, "Low Risk", RiskTable_ThreeBand.Label(3))
		assert.Equal(t, "Medium Risk", RiskTable_ThreeBand.Label(4))
		assert.Equal(t, "Medium Risk", RiskTable_ThreeBand.Label(6))
		assert.Equal(t, "High Risk", RiskTable_ThreeBand.Label(7))
	})
	t.Run("Default table is five band", func(t *testing.T) {
		assert.Equal(t, "Medium-High", GetRiskLabel(7))
	})
	t.Run("Risk profile", func(t *testing.T) {
		assert.Equal(t, RiskProfile_Conservative, RiskProfileForTolerance(3))
		assert.Equal(t, RiskProfile_Moderate, RiskProfileForTolerance(6))
		assert.Equal(t, RiskProfile_Aggressive, RiskProfileForTolerance(7))
	})
}

type rawVaultConfig struct {
	VaultAddress  common.Address
	PriceOracle   common.Address
	RiskScore     *big.Int
	IsWhitelisted bool
}

type rawPoolConfig struct {
	ShiftPercentage  uint8
	MinAPYThreshold  uint16
	HarvestFrequency uint8
	RiskTolerance    uint8
	IsPaused         bool
	Admin            common.Address
}

func Test_Vaults(t *testing.T) {
	t.Run("Parses vault config tuples", func(t *testing.T) {
		cfg := ParseVaultConfig(rawVaultConfig{VaultAddress: aave, RiskScore: big.NewInt(3), IsWhitelisted: true})
		assert.Equal(t, aave, cfg.VaultAddress)
		assert.Equal(t, uint64(3), cfg.RiskScore)
		assert.True(t, cfg.IsWhitelisted)
	})
	t.Run("Malformed vault config defaults to zero", func(t *testing.T) {
		cfg := ParseVaultConfig("garbage")
		assert.Equal(t, VaultConfig{}, cfg)
		assert.Equal(t, VaultConfig{}, ParseVaultConfig(nil))
	})
	t.Run("Builds summaries positionally", func(t *testing.T) {
		apys := ParseVaultAPYs([]interface{}{
			[]common.Address{aave, morpho, unknown},
			[]*big.Int{big.NewInt(610), big.NewInt(1120)},
		})
		summaries := BuildVaultSummaries(apys, []VaultConfig{
			{VaultAddress: aave, RiskScore: 3, IsWhitelisted: true},
			DefaultVaultConfig(morpho),
		})

		assert.Len(t, summaries, 3)
		assert.Equal(t, "Aave v3 (USDC)", summaries[0].Name)
		assert.Equal(t, "6.10", summaries[0].APY)
		assert.Equal(t, VaultStatus_Active, summaries[0].Status)
		assert.Equal(t, "Low", summaries[0].RiskLabel)

		assert.Equal(t, VaultStatus_Available, summaries[1].Status)
		assert.Equal(t, uint64(0), summaries[1].RiskScore)

		assert.Equal(t, "0.00", summaries[2].APY)
		assert.Equal(t, unknown, summaries[2].Address)
	})
	t.Run("Merges stats without mutating the input", func(t *testing.T) {
		summaries := []VaultSummary{NewVaultSummary(aave, big.NewInt(500), DefaultVaultConfig(aave))}
		merged := WithStats(summaries, []VaultStats{{
			Address:        aave,
			TotalDeposited: big.NewInt(45_230_000_000),
			TotalHarvested: big.NewInt(124_000_000),
		}}, 6)

		assert.Equal(t, "45,230.00", merged[0].Deposited)
		assert.Equal(t, "124.00", merged[0].Harvested)
		assert.Nil(t, summaries[0].TotalDeposited)
	})
	t.Run("Best yield", func(t *testing.T) {
		best := ParseBestYield([]interface{}{morpho, big.NewInt(1120)}, 10)
		assert.Equal(t, "Morpho Blue", best.Name)
		assert.Equal(t, "11.20", best.APY)

		empty := ParseBestYield(nil, 10)
		assert.Equal(t, common.Address{}, empty.Vault)
		assert.Equal(t, "0.00", empty.APY)
	})
}

func Test_PoolState(t *testing.T) {
	poolId := common.HexToHash("0x01")

	t.Run("Parses and preserves vault order", func(t *testing.T) {
		ps := ParsePoolState(poolId, []interface{}{
			big.NewInt(125_430_000_000),
			big.NewInt(2_341_000_000),
			big.NewInt(47),
			big.NewInt(1_700_000_000),
			[]common.Address{morpho, aave},
		})
		assert.Equal(t, []common.Address{morpho, aave}, ps.ActiveVaultList())
		assert.True(t, ps.HarvestDue(10))
		assert.False(t, ps.HarvestDue(50))

		view := ps.View(10, 6, time.Unix(1_700_007_200, 0))
		assert.Equal(t, "125,430.00", view.TotalShifted)
		assert.Equal(t, "$125.43K", view.TotalShiftedUsd)
		assert.Equal(t, "47/10", view.HarvestProgress)
		assert.Equal(t, "2h ago", view.LastHarvest)
		assert.Equal(t, []string{"Morpho Blue", "Aave v3 (USDC)"}, view.ActiveVaultNames)
	})
	t.Run("Missing fields default to zero", func(t *testing.T) {
		ps := ParsePoolState(poolId, []interface{}{big.NewInt(5)})
		assert.Equal(t, "5", ps.TotalShifted.String())
		assert.Equal(t, "0", ps.SwapCount.String())
		assert.Equal(t, 0, ps.ActiveVaults.Len())
		assert.Equal(t, "never", ps.View(10, 6, time.Now()).LastHarvest)
	})
	t.Run("Harvest time beyond int64 reads as just now", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 64)
		ps := ParsePoolState(poolId, []interface{}{nil, nil, nil, huge, nil})
		assert.Equal(t, "0s ago", ps.View(10, 6, time.Unix(1_700_000_000, 0)).LastHarvest)
	})
	t.Run("Restricts active vaults to known vaults", func(t *testing.T) {
		ps := ParsePoolState(poolId, []interface{}{nil, nil, nil, nil, []common.Address{aave, unknown, morpho}})
		restricted, dropped := ps.RestrictTo([]common.Address{aave, morpho})

		assert.Equal(t, []common.Address{aave, morpho}, restricted.ActiveVaultList())
		assert.Equal(t, []common.Address{unknown}, dropped)
		assert.Equal(t, 3, ps.ActiveVaults.Len())
	})
}

func Test_PoolConfig(t *testing.T) {
	t.Run("Parses the tuple", func(t *testing.T) {
		admin := common.HexToAddress("0x00000000000000000000000000000000000000ad")
		cfg := ParsePoolConfig(rawPoolConfig{
			ShiftPercentage:  30,
			MinAPYThreshold:  500,
			HarvestFrequency: 10,
			RiskTolerance:    7,
			IsPaused:         true,
			Admin:            admin,
		})
		assert.Equal(t, uint64(30), cfg.ShiftPercentage)
		assert.Equal(t, uint64(500), cfg.MinAPYThreshold)
		assert.Equal(t, RiskProfile_Aggressive, cfg.RiskProfile())
		assert.Equal(t, "paused", cfg.View().Status)
		assert.Equal(t, admin, cfg.Admin)
	})
	t.Run("Missing payload defaults", func(t *testing.T) {
		cfg := ParsePoolConfig(nil)
		assert.Equal(t, PoolConfig{}, cfg)
		assert.Equal(t, "active", cfg.View().Status)
	})
}

func Test_PoolConfigForm(t *testing.T) {
	t.Run("Defaults are valid", func(t *testing.T) {
		assert.Nil(t, DefaultPoolConfigForm().Validate())
	})
	t.Run("Reports every violated range", func(t *testing.T) {
		err := PoolConfigForm{ShiftPercentage: 60, MinAPYThreshold: 1, HarvestFrequency: 12, RiskTolerance: 0}.Validate()
		assert.NotNil(t, err)

		verr, ok := err.(*ValidationError)
		assert.True(t, ok)
		fields := make([]string, 0)
		for _, v := range verr.Violations {
			fields = append(fields, v.Field)
		}
		assert.Equal(t, []string{"shiftPercentage", "minAPYThreshold", "harvestFrequency", "riskTolerance"}, fields)
	})
	t.Run("Bounds are inclusive", func(t *testing.T) {
		assert.Nil(t, PoolConfigForm{ShiftPercentage: 10, MinAPYThreshold: 20, HarvestFrequency: 50, RiskTolerance: 1}.Validate())
		assert.Nil(t, PoolConfigForm{ShiftPercentage: 50, MinAPYThreshold: 2, HarvestFrequency: 5, RiskTolerance: 10}.Validate())
	})
}

func Test_ActivityEventView(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tx := common.HexToHash("0xabc")

	v := ActivityEvent{
		Id:        "1",
		Type:      ActivityEventType_YieldShifted,
		Vault:     morpho,
		Amount:    big.NewInt(5_000_000_000),
		APY:       big.NewInt(1120),
		Timestamp: now.Add(-2 * time.Minute),
		TxHash:    &tx,
	}.View(6, now)

	assert.Equal(t, "Shifted $5.00K to Morpho Blue", v.Message)
	assert.Equal(t, "APY: 11.20%", v.Details)
	assert.Equal(t, "2m ago", v.TimeAgo)
	assert.Equal(t, "5,000.00", v.Amount)
	assert.NotEmpty(t, v.TxHash)

	h := ActivityEvent{Type: ActivityEventType_RewardsHarvested, Amount: big.NewInt(124_000_000), Timestamp: now}.View(6, now)
	assert.Equal(t, "Harvested $124.00 in rewards", h.Message)
	assert.Equal(t, "", h.APY)
}
