package rpcServer

import (
	"net/http"
)

type ConnectSessionRequest struct {
	Address string `json:"address"`
}

func (rpc *RpcServer) GetSession(w http.ResponseWriter, r *http.Request) {
	rpc.writeJSON(w, http.StatusOK, rpc.dashboard.Session().State())
}

func (rpc *RpcServer) ConnectSession(w http.ResponseWriter, r *http.Request) {
	var req ConnectSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		rpc.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := rpc.dashboard.Session().Connect(req.Address)
	if err != nil {
		rpc.writeDomainError(w, err)
		return
	}
	rpc.writeJSON(w, http.StatusOK, state)
}

func (rpc *RpcServer) DisconnectSession(w http.ResponseWriter, r *http.Request) {
	session := rpc.dashboard.Session()
	session.Disconnect()
	rpc.writeJSON(w, http.StatusOK, session.State())
}
