package rpcServer

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

func (rpc *RpcServer) ListVaults(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Vaults())
}

func (rpc *RpcServer) GetBestYield(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.BestYield())
}

func (rpc *RpcServer) GetActiveVaultsCount(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.ActiveVaultsCount())
}

// GetVaultAPY reads a single vault's APY on demand.
func (rpc *RpcServer) GetVaultAPY(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !common.IsHexAddress(address) {
		rpc.writeError(w, http.StatusBadRequest, "invalid vault address")
		return
	}
	view, err := rpc.dashboard.VaultAPY(r.Context(), common.HexToAddress(address))
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, view)
}
