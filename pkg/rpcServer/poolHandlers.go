package rpcServer

import (
	"net/http"

	"github.com/yieldshift/sidecar/pkg/dashboard"
	"github.com/yieldshift/sidecar/pkg/viewModel"
)

type SelectPoolRequest struct {
	Name string `json:"name"`
}

type ListPoolsResponse struct {
	Selected string                  `json:"selected"`
	Pools    []dashboard.PoolListing `json:"pools"`
}

type PoolConfigFormResponse struct {
	Pool        string                   `json:"pool"`
	Form        viewModel.PoolConfigForm `json:"form"`
	RiskProfile viewModel.RiskProfile    `json:"riskProfile"`
}

func (rpc *RpcServer) ListPools(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, ListPoolsResponse{
		Selected: rpc.dashboard.SelectedPool(),
		Pools:    rpc.dashboard.Pools(),
	})
}

func (rpc *RpcServer) SelectPool(w http.ResponseWriter, r *http.Request) {
	var req SelectPoolRequest
	if err := decodeJSON(r, &req); err != nil {
		rpc.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rpc.dashboard.SelectPool(req.Name); err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.ListPools(w, r)
}

func (rpc *RpcServer) GetPool(w http.ResponseWriter, r *http.Request) {
	view, err := rpc.dashboard.Pool(r.PathValue("name"))
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, view)
}

func (rpc *RpcServer) GetPoolState(w http.ResponseWriter, r *http.Request) {
	view, err := rpc.dashboard.Pool(r.PathValue("name"))
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, view.State)
}

func (rpc *RpcServer) GetPoolConfig(w http.ResponseWriter, r *http.Request) {
	view, err := rpc.dashboard.Pool(r.PathValue("name"))
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, view.Config)
}

func (rpc *RpcServer) GetPoolConfigForm(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	form, err := rpc.dashboard.ConfigForm(name)
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, PoolConfigFormResponse{
		Pool:        name,
		Form:        form,
		RiskProfile: form.RiskProfile(),
	})
}

// SubmitPoolConfig validates a config form. Out of range fields come back as a 400 listing every violation.
func (rpc *RpcServer) SubmitPoolConfig(w http.ResponseWriter, r *http.Request) {
	var form viewModel.PoolConfigForm
	if err := decodeJSON(r, &form); err != nil {
		rpc.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	submission, err := rpc.dashboard.SubmitConfig(r.PathValue("name"), form)
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusAccepted, submission)
}

func (rpc *RpcServer) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Submissions())
}
