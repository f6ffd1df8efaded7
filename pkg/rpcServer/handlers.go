package rpcServer

import (
	"context"
	"net/http"
	"time"

	"github.com/yieldshift/sidecar/pkg/viewModel"
)

const refreshTimeout = 30 * time.Second

type SetLiveRequest struct {
	Live bool `json:"live"`
}

func (rpc *RpcServer) GetOverview(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Overview())
}

// Refresh runs every poll once, then returns the refreshed overview.
func (rpc *RpcServer) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	rpc.dashboard.Refresh(ctx)
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Overview())
}

// ListActivity returns the combined feed, or a single type's buffer when ?type= is given.
func (rpc *RpcServer) ListActivity(w http.ResponseWriter, r *http.Request) {
	eventType := viewModel.ActivityEventType(r.URL.Query().Get("type"))
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Activity(eventType))
}

func (rpc *RpcServer) SetActivityLive(w http.ResponseWriter, r *http.Request) {
	var req SetLiveRequest
	if err := decodeJSON(r, &req); err != nil {
		rpc.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.SetLive(req.Live))
}
