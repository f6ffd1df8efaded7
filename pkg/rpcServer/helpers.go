package rpcServer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/dashboard"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"github.com/yieldshift/sidecar/pkg/wallet"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 16

type errorResponse struct {
	Error      string                     `json:"error"`
	Violations []viewModel.FieldViolation `json:"violations,omitempty"`
}

func (rpc *RpcServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rpc.Logger.Sugar().Warnw("Failed to write JSON response", zap.Error(err))
	}
}

func (rpc *RpcServer) writeError(w http.ResponseWriter, status int, message string) {
	rpc.writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps errors from the dashboard and session to a status code.
func (rpc *RpcServer) writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *viewModel.ValidationError
	switch {
	case errors.As(err, &validationErr):
		rpc.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:      err.Error(),
			Violations: validationErr.Violations,
		})
	case errors.Is(err, dashboard.ErrUnknownPool):
		rpc.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrNotConfigured):
		rpc.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, wallet.ErrInvalidAddress):
		rpc.writeError(w, http.StatusBadRequest, err.Error())
	default:
		rpc.Logger.Sugar().Errorw("Request failed", zap.Error(err))
		rpc.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
