package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/clients/ethereum"
	"github.com/yieldshift/sidecar/pkg/contractReader"
	"github.com/yieldshift/sidecar/pkg/dashboard"
	"github.com/yieldshift/sidecar/pkg/dataSource"
	"github.com/yieldshift/sidecar/pkg/dataSource/live"
	"github.com/yieldshift/sidecar/pkg/dataSource/mock"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/yieldshift/sidecar/pkg/wallet"
	"github.com/yieldshift/sidecar/pkg/yieldContracts"
	"go.uber.org/zap"
)

func newMetricsSink(cfg *config.Config, l *zap.Logger) (*metrics.MetricsSink, error) {
	clients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to setup metrics clients")
	}
	return metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, clients)
}

// newDataSource builds the source selected by --data-source.
func newDataSource(ctx context.Context, cfg *config.Config, ms *metrics.MetricsSink, l *zap.Logger) (dataSource.DataSource, error) {
	if cfg.DataSource == config.DataSource_Mock {
		mds, err := mock.NewMockDataSource(&mock.MockDataSourceConfig{
			ActivityEnabled: cfg.MockConfig.ActivityEnabled,
			TokenDecimals:   cfg.TokenDecimals,
		}, l)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load mock fixtures")
		}
		return mds, nil
	}

	if cfg.EthereumRpcConfig.BaseUrl == "" {
		return nil, errors.New("ethereum.rpc-url is required for the live data source")
	}
	client := ethereum.NewClient(ethereum.ConvertGlobalConfigToEthereumConfig(&cfg.EthereumRpcConfig), l)

	reader, err := contractReader.NewContractReader(client, &contractReader.ContractReaderConfig{
		CacheTTL: cfg.PollingConfig.ReadCacheTtl,
	}, ms, l)
	if err != nil {
		return nil, err
	}

	subscriber, err := ethereum.NewLogSubscriber(ctx, client, l)
	if err != nil {
		reader.Close()
		return nil, errors.Wrap(err, "failed to create log subscriber")
	}

	contracts := yieldContracts.NewYieldContracts(reader, cfg.Contracts, l)
	lds := live.NewLiveDataSource(contracts, subscriber, &live.LiveDataSourceConfig{
		Concurrency: cfg.EthereumRpcConfig.ChunkedBatchCallSize,
	}, l)
	lds.OnClose(reader.Close)
	if c, ok := subscriber.(interface{ Close() }); ok {
		lds.OnClose(c.Close)
	}
	return lds, nil
}

func newDashboard(
	cfg *config.Config,
	source dataSource.DataSource,
	bus eventBusTypes.IEventBus,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) (*dashboard.Dashboard, error) {
	feed := activityFeed.NewFeed(&activityFeed.FeedConfig{
		PerTypeCapacity:  cfg.FeedConfig.PerTypeCapacity,
		CombinedCapacity: cfg.FeedConfig.CombinedCapacity,
		Live:             cfg.FeedConfig.Live,
	}, bus, ms, l)

	return dashboard.NewDashboard(
		dashboard.NewDashboardConfig(cfg),
		source,
		feed,
		wallet.NewSession(bus, l),
		ms,
		l,
	)
}
