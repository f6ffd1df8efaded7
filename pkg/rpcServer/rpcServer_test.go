package rpcServer

import (
	"bufio"
	"context"
	"encoding/json"
	"math/big"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldshift/sidecar/internal/config"
	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/tests"
	"github.com/yieldshift/sidecar/pkg/activityFeed"
	"github.com/yieldshift/sidecar/pkg/dashboard"
	"github.com/yieldshift/sidecar/pkg/dataSource/mock"
	"github.com/yieldshift/sidecar/pkg/eventBus"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/wallet"
)

var (
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	morpho = common.HexToAddress("0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb")
)

func setup(t *testing.T) (*RpcServer, *dashboard.Dashboard) {
	l := tests.GetLogger()
	cfg := tests.GetConfig()
	bus := eventBus.NewEventBus(l)
	ms := metrics.NewNoopMetricsSink()

	source, err := mock.NewMockDataSource(&mock.MockDataSourceConfig{
		TokenDecimals: 6,
		Rand:          rand.New(rand.NewSource(1)),
		Now:           func() time.Time { return now },
	}, l)
	require.NoError(t, err)

	feed := activityFeed.NewFeed(&activityFeed.FeedConfig{Live: true}, bus, ms, l)
	d, err := dashboard.NewDashboard(&dashboard.DashboardConfig{
		Pools: []config.PoolDefinition{
			{Name: "eth-usdc", Id: common.HexToHash("0x01")},
			{Name: "wbtc-usdc", Id: common.HexToHash("0x02")},
		},
		RiskTolerance: 10,
		TokenDecimals: 6,
		Now:           func() time.Time { return now },
	}, source, feed, wallet.NewSession(bus, l), ms, l)
	require.NoError(t, err)

	rpc := NewRpcServer(&RpcServerConfig{
		AllowedOrigins:    []string{"http://localhost:3000"},
		HeartbeatInterval: time.Hour,
	}, d, bus, cfg, ms, l)
	return rpc, d
}

func do(t *testing.T, h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func Test_RpcServer(t *testing.T) {
	t.Run("Health and about", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodGet, "/v1/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "SERVING", decode[HealthCheckResponse](t, rec).Status)

		rec = do(t, h, http.MethodGet, "/v1/about", "")
		about := decode[AboutResponse](t, rec)
		assert.Equal(t, "base-sepolia", about.Chain)
		assert.Equal(t, uint64(84532), about.ChainId)
	})
	t.Run("Ready once vaults are loaded", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodGet, "/v1/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		do(t, h, http.MethodPost, "/v1/refresh", "")
		rec = do(t, h, http.MethodGet, "/v1/ready", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[ReadyResponse](t, rec).Ready)
	})
	t.Run("Overview after refresh", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodGet, "/v1/overview", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[dashboard.Overview](t, rec).Vaults.Loading)

		rec = do(t, h, http.MethodPost, "/v1/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
		o := decode[dashboard.Overview](t, rec)
		assert.False(t, o.Vaults.Loading)
		assert.Len(t, o.Vaults.Value.Vaults, 4)
		assert.Equal(t, morpho, o.BestYield.Value.Vault)
		assert.Equal(t, "eth-usdc", o.SelectedPool)
		require.NotNil(t, o.Pool.State.Value)
		assert.Equal(t, "2h ago", o.Pool.State.Value.LastHarvest)
	})
	t.Run("Vault endpoints", func(t *testing.T) {
		rpc, d := setup(t)
		h := rpc.Handler()
		d.Refresh(context.Background())

		rec := do(t, h, http.MethodGet, "/v1/vaults", "")
		vaults := decode[dashboard.Section[dashboard.VaultsView]](t, rec)
		require.Len(t, vaults.Value.Vaults, 4)
		assert.Equal(t, "45,230.00", vaults.Value.Vaults[0].Deposited)

		rec = do(t, h, http.MethodGet, "/v1/vaults/best", "")
		best := decode[dashboard.Section[viewModel.BestYield]](t, rec)
		assert.Equal(t, "11.20", best.Value.APY)

		rec = do(t, h, http.MethodGet, "/v1/vaults/active-count", "")
		assert.Equal(t, uint64(3), decode[dashboard.Section[uint64]](t, rec).Value)

		rec = do(t, h, http.MethodGet, "/v1/vaults/"+morpho.Hex()+"/apy", "")
		require.Equal(t, http.StatusOK, rec.Code)
		apy := decode[dashboard.VaultAPYView](t, rec)
		assert.Equal(t, morpho, apy.Vault)
		assert.Equal(t, "11.20", apy.APY)
		assert.Equal(t, "1120", apy.APYBasisPoints)

		rec = do(t, h, http.MethodGet, "/v1/vaults/not-an-address/apy", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("Pool selection", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodPost, "/v1/pools/select", `{"name":"wbtc-usdc"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		pools := decode[ListPoolsResponse](t, rec)
		assert.Equal(t, "wbtc-usdc", pools.Selected)
		require.Len(t, pools.Pools, 2)
		assert.True(t, pools.Pools[1].Selected)

		rec = do(t, h, http.MethodPost, "/v1/pools/select", `{"name":"missing"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, h, http.MethodPost, "/v1/pools/select", `{"pool":"eth-usdc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodGet, "/v1/pools/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("Pool state and config sections", func(t *testing.T) {
		rpc, d := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodGet, "/v1/pools/eth-usdc/state", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[dashboard.Section[*viewModel.PoolStateView]](t, rec).Loading)

		d.Refresh(context.Background())
		rec = do(t, h, http.MethodGet, "/v1/pools/eth-usdc/state", "")
		state := decode[dashboard.Section[*viewModel.PoolStateView]](t, rec)
		require.NotNil(t, state.Value)
		assert.Equal(t, "47/10", state.Value.HarvestProgress)

		rec = do(t, h, http.MethodGet, "/v1/pools/wbtc-usdc/config", "")
		cfg := decode[dashboard.Section[*viewModel.PoolConfigView]](t, rec)
		require.NotNil(t, cfg.Value)
		assert.Equal(t, viewModel.RiskProfile_Aggressive, cfg.Value.RiskProfile)

		rec = do(t, h, http.MethodGet, "/v1/pools/missing/config", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("Pool config form and submission", func(t *testing.T) {
		rpc, d := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodGet, "/v1/pools/eth-usdc/form", "")
		form := decode[PoolConfigFormResponse](t, rec)
		assert.Equal(t, viewModel.DefaultPoolConfigForm(), form.Form)

		rec = do(t, h, http.MethodPost, "/v1/pools/eth-usdc/config",
			`{"shiftPercentage":60,"minAPYThreshold":5,"harvestFrequency":12,"riskTolerance":7}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, decode[errorResponse](t, rec).Violations, 2)

		rec = do(t, h, http.MethodPost, "/v1/pools/eth-usdc/config",
			`{"shiftPercentage":20,"minAPYThreshold":5,"harvestFrequency":15,"riskTolerance":3}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		submission := decode[dashboard.ConfigSubmission](t, rec)
		assert.Equal(t, "eth-usdc", submission.Pool)
		assert.Equal(t, viewModel.RiskProfile_Conservative, submission.RiskProfile)

		assert.Len(t, d.Submissions(), 1)
		rec = do(t, h, http.MethodGet, "/v1/submissions", "")
		assert.Len(t, decode[[]dashboard.ConfigSubmission](t, rec), 1)
	})
	t.Run("Session connect and disconnect", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodPost, "/v1/session/connect", `{"address":"not-an-address"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodPost, "/v1/session/connect", `{"address":"`+morpho.Hex()+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		state := decode[wallet.SessionState](t, rec)
		assert.True(t, state.Connected)
		assert.Equal(t, morpho, state.Address)

		rec = do(t, h, http.MethodPost, "/v1/session/disconnect", "")
		assert.False(t, decode[wallet.SessionState](t, rec).Connected)

		rec = do(t, h, http.MethodGet, "/v1/session", "")
		assert.False(t, decode[wallet.SessionState](t, rec).Connected)
	})
	t.Run("Activity live toggle", func(t *testing.T) {
		rpc, d := setup(t)
		h := rpc.Handler()

		rec := do(t, h, http.MethodPost, "/v1/activity/live", `{"live":false}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[dashboard.ActivityView](t, rec).Live)

		d.Feed().Ingest([]viewModel.ActivityEvent{{Id: "a", Type: viewModel.ActivityEventType_Shift, Amount: big.NewInt(1)}})
		rec = do(t, h, http.MethodGet, "/v1/activity", "")
		assert.Empty(t, decode[dashboard.ActivityView](t, rec).Events)
	})
	t.Run("Routing and CORS", func(t *testing.T) {
		rpc, _ := setup(t)
		h := rpc.Handler()

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/unknown", "").Code)
		assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/v1/session", "").Code)

		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	var e sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return e
		case strings.HasPrefix(line, "event: "):
			e.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			e.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func Test_StreamActivity(t *testing.T) {
	rpc, d := setup(t)
	server := httptest.NewServer(rpc.Handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/activity/stream?type=shift", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	assert.Equal(t, SSEEvent_Connected, readEvent(t, reader).name)

	d.Feed().Ingest([]viewModel.ActivityEvent{
		{Id: "h1", Type: viewModel.ActivityEventType_Harvest, Amount: big.NewInt(1_000_000), Message: "Harvested $1.00"},
		{Id: "s1", Type: viewModel.ActivityEventType_Shift, Amount: big.NewInt(5_000_000_000), Message: "Shifted $5,000 USDC"},
	})

	e := readEvent(t, reader)
	require.Equal(t, SSEEvent_Activity, e.name)
	var batch ActivityStreamData
	require.NoError(t, json.Unmarshal([]byte(e.data), &batch))
	assert.Equal(t, viewModel.ActivityEventType_Shift, batch.Type)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, "s1", batch.Events[0].Id)

	_, err = d.Session().Connect(morpho.Hex())
	require.NoError(t, err)
	e = readEvent(t, reader)
	assert.Equal(t, SSEEvent_SessionChanged, e.name)
	assert.Contains(t, e.data, `"connected":true`)
}
