package rpcServer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"github.com/yieldshift/sidecar/pkg/dashboard"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"go.uber.org/zap"
)

type RpcServerConfig struct {
	HttpPort       int
	AllowedOrigins []string
	// HeartbeatInterval is how often an idle activity stream gets a heartbeat event.
	HeartbeatInterval time.Duration
}

type RpcServer struct {
	config       *RpcServerConfig
	dashboard    *dashboard.Dashboard
	eventBus     eventBusTypes.IEventBus
	globalConfig *config.Config
	metrics      *metrics.MetricsSink
	Logger       *zap.Logger
}

func NewRpcServer(
	cfg *RpcServerConfig,
	d *dashboard.Dashboard,
	eb eventBusTypes.IEventBus,
	gc *config.Config,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *RpcServer {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	return &RpcServer{
		config:       cfg,
		dashboard:    d,
		eventBus:     eb,
		globalConfig: gc,
		metrics:      ms,
		Logger:       l,
	}
}

// Handler returns the full route table wrapped with CORS and request metrics.
func (rpc *RpcServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", rpc.HealthCheck)
	mux.HandleFunc("GET /v1/ready", rpc.ReadyCheck)
	mux.HandleFunc("GET /v1/about", rpc.About)

	mux.HandleFunc("GET /v1/overview", rpc.GetOverview)
	mux.HandleFunc("POST /v1/refresh", rpc.Refresh)

	mux.HandleFunc("GET /v1/vaults", rpc.ListVaults)
	mux.HandleFunc("GET /v1/vaults/best", rpc.GetBestYield)
	mux.HandleFunc("GET /v1/vaults/active-count", rpc.GetActiveVaultsCount)
	mux.HandleFunc("GET /v1/vaults/{address}/apy", rpc.GetVaultAPY)

	mux.HandleFunc("GET /v1/pools", rpc.ListPools)
	mux.HandleFunc("POST /v1/pools/select", rpc.SelectPool)
	mux.HandleFunc("GET /v1/pools/{name}", rpc.GetPool)
	mux.HandleFunc("GET /v1/pools/{name}/state", rpc.GetPoolState)
	mux.HandleFunc("GET /v1/pools/{name}/config", rpc.GetPoolConfig)
	mux.HandleFunc("GET /v1/pools/{name}/form", rpc.GetPoolConfigForm)
	mux.HandleFunc("POST /v1/pools/{name}/config", rpc.SubmitPoolConfig)
	mux.HandleFunc("GET /v1/submissions", rpc.ListSubmissions)

	mux.HandleFunc("GET /v1/activity", rpc.ListActivity)
	mux.HandleFunc("POST /v1/activity/live", rpc.SetActivityLive)
	mux.HandleFunc("GET /v1/activity/stream", rpc.StreamActivity)

	mux.HandleFunc("GET /v1/session", rpc.GetSession)
	mux.HandleFunc("POST /v1/session/connect", rpc.ConnectSession)
	mux.HandleFunc("POST /v1/session/disconnect", rpc.DisconnectSession)

	c := cors.New(cors.Options{
		AllowedOrigins: rpc.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(rpc.instrument(mux))
}

// Start serves the HTTP API until ctx is cancelled.
func (rpc *RpcServer) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", rpc.config.HttpPort),
		Handler:           rpc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		rpc.Logger.Sugar().Info("Shutting down rpc server")
		if err := httpServer.Shutdown(context.Background()); err != nil {
			rpc.Logger.Sugar().Errorw("Failed to shutdown rpc server", zap.Error(err))
		}
	}()
	go func() {
		rpc.Logger.Sugar().Infow("Starting rpc server", zap.Int("port", rpc.config.HttpPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rpc.Logger.Sugar().Errorw("Rpc server stopped", zap.Error(err))
		}
	}()
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rpc *RpcServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// the mux fills in the matched pattern; unmatched requests share one label
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		labels := []metricsTypes.MetricsLabel{{Name: metricsTypes.Label_Path, Value: path}}
		_ = rpc.metrics.Incr(metricsTypes.Metric_Incr_HttpRequest, labels, 1)
		_ = rpc.metrics.Timing(metricsTypes.Metric_Timing_HttpDuration, time.Since(start), labels)

		rpc.Logger.Sugar().Debugw("Handled request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
