package rpcServer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

const (
	SSEEvent_Connected      = "connected"
	SSEEvent_Activity       = "activity"
	SSEEvent_SessionChanged = "session"
	SSEEvent_Heartbeat      = "heartbeat"

	streamBufferSize = 64
)

type ActivityStreamData struct {
	Type   viewModel.ActivityEventType   `json:"type"`
	Events []viewModel.ActivityEventView `json:"events"`
}

type streamCallbacks struct {
	// subscribed runs once the consumer is registered on the bus.
	subscribed func() error
	heartbeat  func() error
	event      func(*eventBusTypes.Event) error
}

// subscribeToEvents forwards every bus event to the callbacks until ctx is done or a callback fails.
func (rpc *RpcServer) subscribeToEvents(ctx context.Context, requestId string, cb streamCallbacks) error {
	consumer := &eventBusTypes.Consumer{
		Id:      eventBusTypes.ConsumerId(requestId),
		Context: ctx,
		Channel: make(chan *eventBusTypes.Event, streamBufferSize),
	}
	rpc.eventBus.Subscribe(consumer)
	defer rpc.eventBus.Unsubscribe(consumer)

	if err := cb.subscribed(); err != nil {
		return err
	}

	ticker := time.NewTicker(rpc.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := cb.heartbeat(); err != nil {
				return err
			}
		case event := <-consumer.Channel:
			if err := cb.event(event); err != nil {
				return err
			}
		}
	}
}

// StreamActivity pushes activity batches and session changes as server-sent events.
// Filter a single event type with ?type=.
func (rpc *RpcServer) StreamActivity(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		rpc.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	filter := viewModel.ActivityEventType(r.URL.Query().Get("type"))
	requestId := uuid.NewString()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var eventId uint64
	send := func(name string, data any) error {
		eventId++
		return writeSSEEvent(w, flusher, eventId, name, data)
	}

	rpc.Logger.Sugar().Infow("Activity stream opened", zap.String("requestId", requestId))

	err := rpc.subscribeToEvents(r.Context(), requestId, streamCallbacks{
		subscribed: func() error {
			return send(SSEEvent_Connected, map[string]string{"requestId": requestId})
		},
		heartbeat: func() error {
			return send(SSEEvent_Heartbeat, map[string]any{})
		},
		event: func(event *eventBusTypes.Event) error {
			switch event.Name {
			case eventBusTypes.Event_ActivityBatch:
				batch, ok := event.Data.(*eventBusTypes.ActivityBatchData)
				if !ok || (filter != "" && batch.Type != filter) {
					return nil
				}
				return send(SSEEvent_Activity, rpc.renderBatch(batch))
			case eventBusTypes.Event_SessionChanged:
				return send(SSEEvent_SessionChanged, rpc.dashboard.Session().State())
			}
			return nil
		},
	})
	if err != nil {
		rpc.Logger.Sugar().Debugw("Activity stream client went away", zap.String("requestId", requestId), zap.Error(err))
	}
	rpc.Logger.Sugar().Infow("Activity stream closed", zap.String("requestId", requestId))
}

func (rpc *RpcServer) renderBatch(batch *eventBusTypes.ActivityBatchData) ActivityStreamData {
	now := time.Now()
	views := make([]viewModel.ActivityEventView, 0, len(batch.Events))
	for _, e := range batch.Events {
		views = append(views, e.View(rpc.globalConfig.TokenDecimals, now))
	}
	return ActivityStreamData{Type: batch.Type, Events: views}
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, id uint64, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", name, id, payload); err != nil {
		return fmt.Errorf("write %s event: %w", name, err)
	}
	flusher.Flush()
	return nil
}
