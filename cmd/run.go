package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/logger"
	"github.com/yieldshift/sidecar/internal/metrics/prometheus"
	"github.com/yieldshift/sidecar/internal/shutdown"
	"github.com/yieldshift/sidecar/internal/version"
	"github.com/yieldshift/sidecar/pkg/eventBus"
	"github.com/yieldshift/sidecar/pkg/rpcServer"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the YieldShift contracts and serve the dashboard API",
	Run: func(cmd *cobra.Command, args []string) {
		initRunCmd(cmd)
		cfg := config.NewConfig()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
		l.Sugar().Infow("Starting yieldshift sidecar",
			zap.String("version", version.GetVersion()),
			zap.String("chain", cfg.Chain.String()),
			zap.String("dataSource", string(cfg.DataSource)),
		)

		ms, err := newMetricsSink(cfg, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
		}

		bus := eventBus.NewEventBus(l)

		source, err := newDataSource(ctx, cfg, ms, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to create data source", zap.Error(err))
		}

		d, err := newDashboard(cfg, source, bus, ms, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to create dashboard", zap.Error(err))
		}
		if err := d.Start(ctx); err != nil {
			l.Sugar().Fatalw("Failed to start dashboard", zap.Error(err))
		}

		rpc := rpcServer.NewRpcServer(&rpcServer.RpcServerConfig{
			HttpPort:       cfg.RpcConfig.HttpPort,
			AllowedOrigins: cfg.RpcConfig.AllowedOrigins,
		}, d, bus, cfg, ms, l)
		if err := rpc.Start(ctx); err != nil {
			l.Sugar().Fatalw("Failed to start rpc server", zap.Error(err))
		}

		if cfg.PrometheusConfig.Enabled {
			ps := prometheus.NewPrometheusServer(&prometheus.PrometheusServerConfig{
				Port: cfg.PrometheusConfig.Port,
			}, l)
			if err := ps.Start(ctx); err != nil {
				l.Sugar().Fatalw("Failed to start prometheus server", zap.Error(err))
			}
		}

		l.Sugar().Infow("Started yieldshift sidecar")

		drained := make(chan struct{})
		gracefulShutdown := shutdown.CreateGracefulShutdownChannel()
		shutdown.ListenForShutdown(gracefulShutdown, drained, func() {
			l.Sugar().Info("Shutting down...")
			go func() {
				defer close(drained)
				d.Stop()
				source.Close()
				cancel()
			}()
		}, time.Second*5, l)
	},
}

func initRunCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
