package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yieldshift/sidecar/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "yieldshift",
	Short: "The YieldShift sidecar keeps vault, pool and activity data from the YieldShift contracts fresh",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().StringP(config.ChainName, "c", config.Chain_BaseSepolia.String(), "The chain to use (base-sepolia, local)")
	rootCmd.PersistentFlags().String(config.DataSource, string(config.DataSource_Live), `Where dashboard data comes from ("live" or "mock")`)
	rootCmd.PersistentFlags().Int(config.TokenDecimals, config.DefaultTokenDecimals, `Decimals of the pool's deposit token`)
	rootCmd.PersistentFlags().Uint64(config.RiskTolerance, config.DefaultRiskTolerance, `Risk tolerance used for the best yield lookup (1-10)`)

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "", `e.g. "https://sepolia.base.org"`)
	rootCmd.PersistentFlags().String(config.EthereumWsUrl, "", `Websocket url for log subscriptions; logs are polled over http when empty`)
	rootCmd.PersistentFlags().Bool(config.EthereumRpcUseNativeBatchCall, true, `Send batched reads as a single JSON-RPC array`)
	rootCmd.PersistentFlags().Int(config.EthereumRpcNativeBatchCallSize, 500, `The number of calls to put in a single JSON-RPC array`)
	rootCmd.PersistentFlags().Int(config.EthereumRpcChunkedBatchCallSize, 10, `The number of calls to make in parallel when native batching is off`)
	rootCmd.PersistentFlags().Duration(config.EthereumRpcLogPollInterval, 5*time.Second, `How often logs are polled when no websocket url is set`)

	rootCmd.PersistentFlags().String(config.ContractsYieldOracle, "", `Override the chain's YieldOracle address`)
	rootCmd.PersistentFlags().String(config.ContractsYieldRouter, "", `Override the chain's YieldRouter address`)
	rootCmd.PersistentFlags().String(config.ContractsYieldCompound, "", `Override the chain's YieldCompound address`)
	rootCmd.PersistentFlags().String(config.ContractsYieldShiftHook, "", `Override the chain's YieldShiftHook address`)
	rootCmd.PersistentFlags().String(config.ContractsYieldShiftFactory, "", `Override the chain's YieldShiftFactory address`)

	rootCmd.PersistentFlags().String(config.Pools, "", `Comma separated "name=0x<pool id>" pairs`)
	rootCmd.PersistentFlags().String(config.SelectedPool, "", `Pool shown by default (defaults to the first pool)`)

	rootCmd.PersistentFlags().Duration(config.PollingPoolStateInterval, config.DefaultPoolStateInterval, `Pool state refresh interval`)
	rootCmd.PersistentFlags().Duration(config.PollingVaultDataInterval, config.DefaultVaultDataInterval, `Vault data refresh interval`)
	rootCmd.PersistentFlags().Duration(config.PollingAggregateInterval, config.DefaultAggregateInterval, `Aggregate counters refresh interval`)
	rootCmd.PersistentFlags().Duration(config.PollingReadCacheTtl, 0, `Cache identical contract reads for this long (0 disables the cache)`)

	rootCmd.PersistentFlags().Int(config.FeedPerTypeCapacity, config.DefaultPerTypeCapacity, `Events kept per activity type`)
	rootCmd.PersistentFlags().Int(config.FeedCombinedCapacity, config.DefaultCombinedCapacity, `Events kept in the combined feed`)
	rootCmd.PersistentFlags().Bool(config.FeedLive, true, `Accept new activity events at startup`)

	rootCmd.PersistentFlags().Bool(config.MockActivityEnabled, true, `Generate simulated activity with the mock data source`)

	rootCmd.PersistentFlags().Int(config.RpcHttpPort, 7101, `http rpc port`)
	rootCmd.PersistentFlags().String(config.RpcAllowedOrigins, "", `Comma separated CORS origins (all origins when empty)`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(vaultsCmd)
	rootCmd.AddCommand(runVersionCmd)

	// bind any subcommand flags
	vaultsCmd.Flags().String(vaultsFormat, vaultsFormat_Table, `Output format ("table" or "csv")`)
	vaultsCmd.Flags().Duration(vaultsTimeout, 30*time.Second, `Give up reading after this long`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
