package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePoolDefinitions(t *testing.T) {
	t.Run("Named pools with ids", func(t *testing.T) {
		pools, err := ParsePoolDefinitions([]string{
			"eth-usdc=0x00000000000000000000000000000000000000000000000000000000000000aa",
			" wbtc-usdc ",
		})
		require.NoError(t, err)
		require.Len(t, pools, 2)
		assert.Equal(t, "eth-usdc", pools[0].Name)
		assert.Equal(t, common.HexToHash("0xaa"), pools[0].Id)
		assert.Equal(t, "wbtc-usdc", pools[1].Name)
		assert.Equal(t, common.Hash{}, pools[1].Id)
	})
	t.Run("Empty input falls back to the default pool", func(t *testing.T) {
		pools, err := ParsePoolDefinitions(nil)
		require.NoError(t, err)
		assert.Equal(t, []PoolDefinition{{Name: DefaultPoolName}}, pools)
	})
	t.Run("Invalid definitions", func(t *testing.T) {
		_, err := ParsePoolDefinitions([]string{"=0x01"})
		assert.Error(t, err)

		_, err = ParsePoolDefinitions([]string{"a", "a"})
		assert.ErrorContains(t, err, "duplicate")

		_, err = ParsePoolDefinitions([]string{"a=0x1234"})
		assert.ErrorContains(t, err, "invalid id")
	})
}

func Test_ParseChainAndDataSource(t *testing.T) {
	c, err := ParseChain("base-sepolia")
	require.NoError(t, err)
	id, err := GetChainId(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(84532), id)

	_, err = ParseChain("mainnet")
	assert.Error(t, err)

	ds, err := ParseDataSourceKind("")
	require.NoError(t, err)
	assert.Equal(t, DataSource_Live, ds)

	_, err = ParseDataSourceKind("replay")
	assert.Error(t, err)
}

func Test_NewConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Run("Defaults", func(t *testing.T) {
		viper.Reset()
		cfg := NewConfig()

		assert.Equal(t, Chain_BaseSepolia, cfg.Chain)
		assert.Equal(t, DataSource_Live, cfg.DataSource)
		assert.Equal(t, DefaultPoolStateInterval, cfg.PollingConfig.PoolStateInterval)
		assert.Equal(t, DefaultVaultDataInterval, cfg.PollingConfig.VaultDataInterval)
		assert.Equal(t, DefaultAggregateInterval, cfg.PollingConfig.AggregateInterval)
		assert.Equal(t, DefaultPerTypeCapacity, cfg.FeedConfig.PerTypeCapacity)
		assert.Equal(t, DefaultTokenDecimals, cfg.TokenDecimals)
		assert.Equal(t, uint64(DefaultRiskTolerance), cfg.RiskTolerance)
		assert.Equal(t, DefaultPoolName, cfg.SelectedPool)
		assert.Equal(t, chainDefinitions[Chain_BaseSepolia].Contracts, cfg.Contracts)
	})
	t.Run("Overrides", func(t *testing.T) {
		viper.Reset()
		hook := "0x0000000000000000000000000000000000001234"
		viper.Set(normalizeFlagName(ChainName), "local")
		viper.Set(normalizeFlagName(DataSource), "mock")
		viper.Set(normalizeFlagName(ContractsYieldShiftHook), hook)
		viper.Set(normalizeFlagName(ContractsYieldOracle), "not-an-address")
		viper.Set(normalizeFlagName(Pools), "eth-usdc, wbtc-usdc")
		viper.Set(normalizeFlagName(SelectedPool), "wbtc-usdc")
		viper.Set(normalizeFlagName(PollingPoolStateInterval), "3s")
		viper.Set(normalizeFlagName(RpcAllowedOrigins), "http://a.test, http://b.test")

		cfg := NewConfig()
		assert.Equal(t, Chain_Local, cfg.Chain)
		assert.Equal(t, uint64(31337), cfg.ChainId)
		assert.Equal(t, DataSource_Mock, cfg.DataSource)
		assert.Equal(t, common.HexToAddress(hook), cfg.Contracts.YieldShiftHook)
		assert.Equal(t, common.Address{}, cfg.Contracts.YieldOracle)
		assert.Equal(t, []string{"eth-usdc", "wbtc-usdc"}, cfg.PoolNames())
		assert.Equal(t, "wbtc-usdc", cfg.SelectedPool)
		assert.Equal(t, 3*time.Second, cfg.PollingConfig.PoolStateInterval)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.RpcConfig.AllowedOrigins)

		_, ok := cfg.GetPool("missing")
		assert.False(t, ok)
	})
}
