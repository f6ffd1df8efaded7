// Package wallet tracks the connected account supplied by an external wallet provider.
// It never signs or sends transactions.
package wallet

import (
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

var ErrInvalidAddress = errors.New("invalid account address")

type SessionState struct {
	Connected   bool           `json:"connected"`
	Address     common.Address `json:"address"`
	Display     string         `json:"display"`
	SessionId   string         `json:"sessionId,omitempty"`
	ConnectedAt time.Time      `json:"connectedAt,omitempty"`
}

type Session struct {
	mu    sync.RWMutex
	state SessionState

	bus    eventBusTypes.IEventBus
	now    func() time.Time
	logger *zap.Logger
}

func NewSession(bus eventBusTypes.IEventBus, l *zap.Logger) *Session {
	return &Session{
		bus:    bus,
		now:    time.Now,
		logger: l,
	}
}

// Connect records address as the connected account, replacing any previous one.
func (s *Session) Connect(address string) (SessionState, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return SessionState{}, errors.Wrapf(ErrInvalidAddress, "'%s'", address)
	}
	account := common.HexToAddress(address)

	s.mu.Lock()
	s.state = SessionState{
		Connected:   true,
		Address:     account,
		Display:     viewModel.ShortenAddress(account),
		SessionId:   uuid.NewString(),
		ConnectedAt: s.now(),
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Sugar().Infow("Wallet connected", zap.String("address", account.Hex()))
	s.publish(state)
	return state, nil
}

// Disconnect clears the session. Disconnecting an empty session is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	wasConnected := s.state.Connected
	s.state = SessionState{}
	s.mu.Unlock()

	if !wasConnected {
		return
	}
	s.logger.Sugar().Infow("Wallet disconnected")
	s.publish(SessionState{})
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) publish(state SessionState) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(&eventBusTypes.Event{
		Name: eventBusTypes.Event_SessionChanged,
		Data: &eventBusTypes.SessionChangedData{
			Connected: state.Connected,
			Address:   state.Address,
		},
	})
}
