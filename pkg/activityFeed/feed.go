package activityFeed

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"github.com/yieldshift/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

type FeedConfig struct {
	PerTypeCapacity  int
	CombinedCapacity int
	Live             bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Feed keeps one bounded buffer per event type and a merged view across them.
// Every retained event carries a distinct timestamp, so all views are strictly descending.
type Feed struct {
	config *FeedConfig

	mu        sync.Mutex
	buffers   map[viewModel.ActivityEventType]*Buffer
	combined  []viewModel.ActivityEvent
	live      bool
	lastStamp time.Time

	bus     eventBusTypes.IEventBus
	metrics *metrics.MetricsSink
	logger  *zap.Logger
}

func NewFeed(cfg *FeedConfig, bus eventBusTypes.IEventBus, ms *metrics.MetricsSink, l *zap.Logger) *Feed {
	if cfg.PerTypeCapacity <= 0 {
		cfg.PerTypeCapacity = 50
	}
	if cfg.CombinedCapacity <= 0 {
		cfg.CombinedCapacity = 20
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Feed{
		config:   cfg,
		buffers:  make(map[viewModel.ActivityEventType]*Buffer),
		combined: []viewModel.ActivityEvent{},
		live:     cfg.Live,
		bus:      bus,
		metrics:  ms,
		logger:   l,
	}
}

// stamp assigns a timestamp later than every previous one. Events that already carry
// a later timestamp keep it.
func (f *Feed) stamp(e *viewModel.ActivityEvent) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = f.config.Now()
	}
	if !ts.After(f.lastStamp) {
		ts = f.lastStamp.Add(time.Nanosecond)
	}
	e.Timestamp = ts
	f.lastStamp = ts
}

func (f *Feed) buffer(t viewModel.ActivityEventType) *Buffer {
	b, ok := f.buffers[t]
	if !ok {
		b = NewBuffer(f.config.PerTypeCapacity)
		f.buffers[t] = b
	}
	return b
}

func (f *Feed) recomputeCombined() {
	types := make([]viewModel.ActivityEventType, 0, len(f.buffers))
	for t := range f.buffers {
		types = append(types, t)
	}
	slices.Sort(types)

	combined := []viewModel.ActivityEvent{}
	for _, t := range types {
		combined = Merge(combined, f.buffers[t].Events(), f.config.CombinedCapacity)
	}
	f.combined = combined
}

// Ingest accepts a batch of events in arrival order. While the feed is paused the batch is dropped.
func (f *Feed) Ingest(events []viewModel.ActivityEvent) {
	if len(events) == 0 {
		return
	}

	f.mu.Lock()
	if !f.live {
		f.mu.Unlock()
		f.logger.Sugar().Debugw("Feed paused, dropping events", zap.Int("count", len(events)))
		return
	}

	byType := make(map[viewModel.ActivityEventType][]viewModel.ActivityEvent)
	order := make([]viewModel.ActivityEventType, 0)
	for _, e := range events {
		f.stamp(&e)
		if _, ok := byType[e.Type]; !ok {
			order = append(order, e.Type)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}
	sizes := make(map[viewModel.ActivityEventType]int, len(order))
	for _, t := range order {
		b := f.buffer(t)
		b.Push(byType[t]...)
		sizes[t] = b.Len()
	}
	f.recomputeCombined()
	f.mu.Unlock()

	for _, t := range order {
		labels := []metricsTypes.MetricsLabel{{Name: metricsTypes.Label_EventType, Value: string(t)}}
		_ = f.metrics.Incr(metricsTypes.Metric_Incr_ActivityEvent, labels, float64(len(byType[t])))
		_ = f.metrics.Gauge(metricsTypes.Metric_Gauge_ActivityBufferSize, float64(sizes[t]), labels)

		if f.bus != nil {
			f.bus.Publish(&eventBusTypes.Event{
				Name: eventBusTypes.Event_ActivityBatch,
				Data: &eventBusTypes.ActivityBatchData{Type: t, Events: byType[t]},
			})
		}
	}
}

// Events returns the buffer for one event type, newest first.
func (f *Feed) Events(t viewModel.ActivityEventType) []viewModel.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buffers[t]
	if !ok {
		return []viewModel.ActivityEvent{}
	}
	return b.Events()
}

// Combined returns the merged view across all types, newest first.
func (f *Feed) Combined() []viewModel.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]viewModel.ActivityEvent, len(f.combined))
	copy(out, f.combined)
	return out
}

func (f *Feed) SetLive(live bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = live
	f.logger.Sugar().Infow("Activity feed toggled", zap.Bool("live", live))
}

func (f *Feed) Live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

// Reset empties every buffer and forgets the last timestamp handed out.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.buffers {
		b.Reset()
	}
	f.combined = []viewModel.ActivityEvent{}
	f.lastStamp = time.Time{}
}

// Subscribe starts a fresh accumulation from src: the buffers are emptied first.
func (f *Feed) Subscribe(ctx context.Context, src Source) (*Subscription, error) {
	f.Reset()
	return src.SubscribeActivity(ctx, f.Ingest)
}
