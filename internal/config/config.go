package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "YIELDSHIFT"

type Chain string

const (
	Chain_BaseSepolia Chain = "base-sepolia"
	Chain_Local       Chain = "local"
)

func (c Chain) String() string {
	return string(c)
}

type DataSourceKind string

const (
	DataSource_Live DataSourceKind = "live"
	DataSource_Mock DataSourceKind = "mock"
)

// viper / flag keys
const (
	Debug     = "debug"
	ChainName = "chain"

	EthereumRpcUrl                  = "ethereum.rpc-url"
	EthereumWsUrl                   = "ethereum.ws-url"
	EthereumRpcUseNativeBatchCall   = "ethereum.native-batch-call"
	EthereumRpcNativeBatchCallSize  = "ethereum.native-batch-call-size"
	EthereumRpcChunkedBatchCallSize = "ethereum.chunked-batch-call-size"
	EthereumRpcLogPollInterval      = "ethereum.log-poll-interval"

	ContractsYieldOracle       = "contracts.yield-oracle"
	ContractsYieldRouter       = "contracts.yield-router"
	ContractsYieldCompound     = "contracts.yield-compound"
	ContractsYieldShiftHook    = "contracts.yield-shift-hook"
	ContractsYieldShiftFactory = "contracts.yield-shift-factory"

	Pools        = "pools"
	SelectedPool = "selected-pool"

	PollingPoolStateInterval = "polling.pool-state-interval"
	PollingVaultDataInterval = "polling.vault-data-interval"
	PollingAggregateInterval = "polling.aggregate-interval"
	PollingReadCacheTtl      = "polling.read-cache-ttl"

	FeedPerTypeCapacity  = "feed.per-type-capacity"
	FeedCombinedCapacity = "feed.combined-capacity"
	FeedLive             = "feed.live"

	DataSource          = "data-source"
	TokenDecimals       = "token-decimals"
	RiskTolerance       = "risk-tolerance"
	MockActivityEnabled = "mock.activity-enabled"

	RpcHttpPort       = "rpc.http-port"
	RpcAllowedOrigins = "rpc.allowed-origins"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample-rate"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

const (
	DefaultPoolStateInterval = 15 * time.Second
	DefaultVaultDataInterval = 30 * time.Second
	DefaultAggregateInterval = 60 * time.Second

	DefaultPerTypeCapacity  = 50
	DefaultCombinedCapacity = 20

	DefaultTokenDecimals = 6
	DefaultRiskTolerance = 10

	DefaultPoolName = "eth-usdc"
)

type Config struct {
	Debug             bool
	Chain             Chain
	ChainId           uint64
	DataSource        DataSourceKind
	TokenDecimals     int
	RiskTolerance     uint64
	EthereumRpcConfig EthereumRpcConfig
	Contracts         ContractAddresses
	Pools             []PoolDefinition
	SelectedPool      string
	PollingConfig     PollingConfig
	FeedConfig        FeedConfig
	MockConfig        MockConfig
	RpcConfig         RpcConfig
	DataDogConfig     DataDogConfig
	PrometheusConfig  PrometheusConfig
}

type EthereumRpcConfig struct {
	BaseUrl              string
	WsUrl                string
	UseNativeBatchCall   bool
	NativeBatchCallSize  int
	ChunkedBatchCallSize int
	LogPollInterval      time.Duration
}

type ContractAddresses struct {
	YieldOracle       common.Address
	YieldRouter       common.Address
	YieldCompound     common.Address
	YieldShiftHook    common.Address
	YieldShiftFactory common.Address
}

// PoolDefinition names a hook-managed pool by its 32 byte pool id.
type PoolDefinition struct {
	Name string
	Id   common.Hash
}

type PollingConfig struct {
	PoolStateInterval time.Duration
	VaultDataInterval time.Duration
	AggregateInterval time.Duration
	ReadCacheTtl      time.Duration
}

type FeedConfig struct {
	PerTypeCapacity  int
	CombinedCapacity int
	Live             bool
}

type MockConfig struct {
	ActivityEnabled bool
}

type RpcConfig struct {
	HttpPort       int
	AllowedOrigins []string
}

type DataDogConfig struct {
	StatsdConfig StatsdConfig
}

type StatsdConfig struct {
	Enabled    bool
	Url        string
	SampleRate float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type chainDefinition struct {
	ChainId   uint64
	Contracts ContractAddresses
}

var chainDefinitions = map[Chain]chainDefinition{
	Chain_BaseSepolia: {
		ChainId: 84532,
		Contracts: ContractAddresses{
			YieldOracle:       common.HexToAddress("0xCB5d6d80535a5F50f33C457eEf4ca2E9F712E864"),
			YieldRouter:       common.HexToAddress("0x99907915Ef1836a00ce88061B75B2cfC4537B5A6"),
			YieldCompound:     common.HexToAddress("0x35b95450Eaab790de5a8067064B9ce75a57d4d8f"),
			YieldShiftHook:    common.HexToAddress("0xE0122CF1AbC59977a8F1DC1A02B36c678d5F40C0"),
			YieldShiftFactory: common.HexToAddress("0x3a07Ba4489d9aB8BFdc750C0cf0e41cD1f9baf46"),
		},
	},
	Chain_Local: {
		ChainId:   31337,
		Contracts: ContractAddresses{},
	},
}

func ParseChain(name string) (Chain, error) {
	c := Chain(name)
	if _, ok := chainDefinitions[c]; !ok {
		return "", fmt.Errorf("unsupported chain '%s'", name)
	}
	return c, nil
}

func GetChainId(c Chain) (uint64, error) {
	def, ok := chainDefinitions[c]
	if !ok {
		return 0, fmt.Errorf("unsupported chain '%s'", c)
	}
	return def.ChainId, nil
}

func ParseDataSourceKind(s string) (DataSourceKind, error) {
	switch DataSourceKind(s) {
	case DataSource_Live, DataSource_Mock:
		return DataSourceKind(s), nil
	case "":
		return DataSource_Live, nil
	default:
		return "", fmt.Errorf("unsupported data source '%s'", s)
	}
}

// ParsePoolDefinitions parses "name=0x<pool id>" pairs. A bare name gets the
// zero pool id, which leaves its reads disabled until a real id is set.
func ParsePoolDefinitions(values []string) ([]PoolDefinition, error) {
	pools := make([]PoolDefinition, 0, len(values))
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		name, id, hasId := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("pool definition '%s' is missing a name", v)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate pool '%s'", name)
		}
		seen[name] = true

		pool := PoolDefinition{Name: name}
		if hasId {
			id = strings.TrimSpace(id)
			if !isHexHash(id) {
				return nil, fmt.Errorf("pool '%s' has an invalid id '%s'", name, id)
			}
			pool.Id = common.HexToHash(id)
		}
		pools = append(pools, pool)
	}
	if len(pools) == 0 {
		pools = append(pools, PoolDefinition{Name: DefaultPoolName})
	}
	return pools, nil
}

func isHexHash(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*common.HashLength {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func parseStringAsList(s string) []string {
	if s == "" {
		return []string{}
	}
	stringList := strings.Split(s, ",")

	l := make([]string, 0)
	for _, s := range stringList {
		s = strings.TrimSpace(s)
		if s != "" {
			l = append(l, s)
		}
	}
	return l
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}

func durationOrDefault(d time.Duration, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func intOrDefault(i int, def int) int {
	if i <= 0 {
		return def
	}
	return i
}

// overrideAddress returns the flag-provided address when set, otherwise the
// chain default.
func overrideAddress(key string, def common.Address) common.Address {
	v := viper.GetString(normalizeFlagName(key))
	if v == "" || !common.IsHexAddress(v) {
		return def
	}
	return common.HexToAddress(v)
}

func NewConfig() *Config {
	chain, err := ParseChain(viper.GetString(normalizeFlagName(ChainName)))
	if err != nil {
		chain = Chain_BaseSepolia
	}
	def := chainDefinitions[chain]

	dataSource, err := ParseDataSourceKind(viper.GetString(normalizeFlagName(DataSource)))
	if err != nil {
		dataSource = DataSource_Live
	}

	pools, err := ParsePoolDefinitions(parseStringAsList(viper.GetString(normalizeFlagName(Pools))))
	if err != nil {
		pools = []PoolDefinition{{Name: DefaultPoolName}}
	}

	selected := viper.GetString(normalizeFlagName(SelectedPool))
	if selected == "" {
		selected = pools[0].Name
	}

	riskTolerance := viper.GetUint64(normalizeFlagName(RiskTolerance))
	if riskTolerance == 0 {
		riskTolerance = DefaultRiskTolerance
	}

	return &Config{
		Debug:         viper.GetBool(normalizeFlagName(Debug)),
		Chain:         chain,
		ChainId:       def.ChainId,
		DataSource:    dataSource,
		TokenDecimals: intOrDefault(viper.GetInt(normalizeFlagName(TokenDecimals)), DefaultTokenDecimals),
		RiskTolerance: riskTolerance,

		EthereumRpcConfig: EthereumRpcConfig{
			BaseUrl:              viper.GetString(normalizeFlagName(EthereumRpcUrl)),
			WsUrl:                viper.GetString(normalizeFlagName(EthereumWsUrl)),
			UseNativeBatchCall:   viper.GetBool(normalizeFlagName(EthereumRpcUseNativeBatchCall)),
			NativeBatchCallSize:  intOrDefault(viper.GetInt(normalizeFlagName(EthereumRpcNativeBatchCallSize)), 500),
			ChunkedBatchCallSize: intOrDefault(viper.GetInt(normalizeFlagName(EthereumRpcChunkedBatchCallSize)), 10),
			LogPollInterval:      durationOrDefault(viper.GetDuration(normalizeFlagName(EthereumRpcLogPollInterval)), 5*time.Second),
		},

		Contracts: ContractAddresses{
			YieldOracle:       overrideAddress(ContractsYieldOracle, def.Contracts.YieldOracle),
			YieldRouter:       overrideAddress(ContractsYieldRouter, def.Contracts.YieldRouter),
			YieldCompound:     overrideAddress(ContractsYieldCompound, def.Contracts.YieldCompound),
			YieldShiftHook:    overrideAddress(ContractsYieldShiftHook, def.Contracts.YieldShiftHook),
			YieldShiftFactory: overrideAddress(ContractsYieldShiftFactory, def.Contracts.YieldShiftFactory),
		},

		Pools:        pools,
		SelectedPool: selected,

		PollingConfig: PollingConfig{
			PoolStateInterval: durationOrDefault(viper.GetDuration(normalizeFlagName(PollingPoolStateInterval)), DefaultPoolStateInterval),
			VaultDataInterval: durationOrDefault(viper.GetDuration(normalizeFlagName(PollingVaultDataInterval)), DefaultVaultDataInterval),
			AggregateInterval: durationOrDefault(viper.GetDuration(normalizeFlagName(PollingAggregateInterval)), DefaultAggregateInterval),
			ReadCacheTtl:      viper.GetDuration(normalizeFlagName(PollingReadCacheTtl)),
		},

		FeedConfig: FeedConfig{
			PerTypeCapacity:  intOrDefault(viper.GetInt(normalizeFlagName(FeedPerTypeCapacity)), DefaultPerTypeCapacity),
			CombinedCapacity: intOrDefault(viper.GetInt(normalizeFlagName(FeedCombinedCapacity)), DefaultCombinedCapacity),
			Live:             viper.GetBool(normalizeFlagName(FeedLive)),
		},

		MockConfig: MockConfig{
			ActivityEnabled: viper.GetBool(normalizeFlagName(MockActivityEnabled)),
		},

		RpcConfig: RpcConfig{
			HttpPort:       viper.GetInt(normalizeFlagName(RpcHttpPort)),
			AllowedOrigins: parseStringAsList(viper.GetString(normalizeFlagName(RpcAllowedOrigins))),
		},

		DataDogConfig: DataDogConfig{
			StatsdConfig: StatsdConfig{
				Enabled:    viper.GetBool(normalizeFlagName(DataDogStatsdEnabled)),
				Url:        viper.GetString(normalizeFlagName(DataDogStatsdUrl)),
				SampleRate: viper.GetFloat64(normalizeFlagName(DataDogStatsdSampleRate)),
			},
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},
	}
}

// NewDefaultConfig returns a config with every default applied, independent
// of flags and environment. Used by tests and the mock data source.
func NewDefaultConfig() *Config {
	def := chainDefinitions[Chain_BaseSepolia]
	return &Config{
		Chain:         Chain_BaseSepolia,
		ChainId:       def.ChainId,
		DataSource:    DataSource_Live,
		TokenDecimals: DefaultTokenDecimals,
		RiskTolerance: DefaultRiskTolerance,
		EthereumRpcConfig: EthereumRpcConfig{
			UseNativeBatchCall:   true,
			NativeBatchCallSize:  500,
			ChunkedBatchCallSize: 10,
			LogPollInterval:      5 * time.Second,
		},
		Contracts:    def.Contracts,
		Pools:        []PoolDefinition{{Name: DefaultPoolName}},
		SelectedPool: DefaultPoolName,
		PollingConfig: PollingConfig{
			PoolStateInterval: DefaultPoolStateInterval,
			VaultDataInterval: DefaultVaultDataInterval,
			AggregateInterval: DefaultAggregateInterval,
		},
		FeedConfig: FeedConfig{
			PerTypeCapacity:  DefaultPerTypeCapacity,
			CombinedCapacity: DefaultCombinedCapacity,
			Live:             true,
		},
		RpcConfig: RpcConfig{
			HttpPort: 7101,
		},
	}
}

func (c *Config) GetPool(name string) (PoolDefinition, bool) {
	for _, p := range c.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return PoolDefinition{}, false
}

func (c *Config) PoolNames() []string {
	names := make([]string, 0, len(c.Pools))
	for _, p := range c.Pools {
		names = append(names, p.Name)
	}
	return names
}
