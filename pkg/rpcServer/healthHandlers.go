package rpcServer

import (
	"net/http"

	"github.com/yieldshift/sidecar/internal/version"
)

type HealthCheckResponse struct {
	Status string `json:"status"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

type AboutResponse struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	Chain      string `json:"chain"`
	ChainId    uint64 `json:"chainId"`
	DataSource string `json:"dataSource"`
}

func (rpc *RpcServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, HealthCheckResponse{Status: "SERVING"})
}

// ReadyCheck reports ready once every enabled vault section has completed its first read.
func (rpc *RpcServer) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	vaults := rpc.dashboard.Vaults()
	bestYield := rpc.dashboard.BestYield()
	ready := !(vaults.Enabled && vaults.Loading) && !(bestYield.Enabled && bestYield.Loading)

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	rpc.writeJSON(w, status, ReadyResponse{Ready: ready})
}

func (rpc *RpcServer) About(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, AboutResponse{
		Version:    version.GetVersion(),
		Commit:     version.GetCommit(),
		Chain:      rpc.globalConfig.Chain.String(),
		ChainId:    rpc.globalConfig.ChainId,
		DataSource: string(rpc.globalConfig.DataSource),
	})
}
