package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yieldshift/sidecar/internal/metrics"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"go.uber.org/zap"
)

// Snapshot is the last published result of a poll. It is replaced wholesale on every tick.
type Snapshot[T any] struct {
	Value       T         `json:"value"`
	HasValue    bool      `json:"hasValue"`
	UpdatedAt   time.Time `json:"updatedAt"`
	LastAttempt time.Time `json:"lastAttempt"`
	LastError   error     `json:"-"`
}

type PollConfig[T any] struct {
	Name     string
	Category string
	Interval time.Duration

	// Enabled gates every tick. A nil gate is always enabled.
	Enabled func() bool
	Fetch   func(ctx context.Context) (T, error)

	// Now defaults to time.Now.
	Now func() time.Time
}

type Poll[T any] struct {
	config *PollConfig[T]
	// tickLock serialises ticks so a slow failing fetch cannot overwrite a newer result.
	tickLock sync.Mutex
	snapshot atomic.Pointer[Snapshot[T]]
	stopped  atomic.Bool
	ticks    atomic.Int64

	metrics *metrics.MetricsSink
	logger  *zap.Logger
}

func NewPoll[T any](cfg *PollConfig[T], ms *metrics.MetricsSink, l *zap.Logger) *Poll[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Category == "" {
		cfg.Category = cfg.Name
	}
	p := &Poll[T]{
		config:  cfg,
		metrics: ms,
		logger:  l,
	}
	p.snapshot.Store(&Snapshot[T]{})
	return p
}

func (p *Poll[T]) Name() string {
	return p.config.Name
}

func (p *Poll[T]) Interval() time.Duration {
	return p.config.Interval
}

func (p *Poll[T]) Enabled() bool {
	return p.config.Enabled == nil || p.config.Enabled()
}

func (p *Poll[T]) labels() []metricsTypes.MetricsLabel {
	return []metricsTypes.MetricsLabel{{Name: metricsTypes.Label_Category, Value: p.config.Category}}
}

// Tick runs one fetch. A disabled or stopped poll issues no read. A failed fetch keeps
// the previous value and records the error; a fetch that returns after Stop is discarded.
// Concurrent ticks of the same poll run one after the other.
func (p *Poll[T]) Tick(ctx context.Context) {
	p.tickLock.Lock()
	defer p.tickLock.Unlock()

	if p.stopped.Load() {
		return
	}
	if !p.Enabled() {
		_ = p.metrics.Incr(metricsTypes.Metric_Incr_PollSkipped, p.labels(), 1)
		p.logger.Sugar().Debugw("Poll disabled, skipping tick", zap.String("poll", p.config.Name))
		return
	}

	p.ticks.Add(1)
	start := p.config.Now()
	value, err := p.config.Fetch(ctx)
	_ = p.metrics.Timing(metricsTypes.Metric_Timing_PollDuration, p.config.Now().Sub(start), p.labels())

	if p.stopped.Load() {
		p.logger.Sugar().Debugw("Discarding result of stopped poll", zap.String("poll", p.config.Name))
		return
	}

	next := *p.snapshot.Load()
	next.LastAttempt = start
	if err != nil {
		next.LastError = err
		_ = p.metrics.Incr(metricsTypes.Metric_Incr_PollFailed, p.labels(), 1)
		p.logger.Sugar().Warnw("Poll failed, keeping previous value",
			zap.String("poll", p.config.Name),
			zap.Bool("hasValue", next.HasValue),
			zap.Error(err),
		)
	} else {
		next.Value = value
		next.HasValue = true
		next.UpdatedAt = p.config.Now()
		next.LastError = nil
		_ = p.metrics.Incr(metricsTypes.Metric_Incr_PollSucceeded, p.labels(), 1)
	}
	p.snapshot.Store(&next)
}

func (p *Poll[T]) Snapshot() Snapshot[T] {
	return *p.snapshot.Load()
}

// Loading is true until the first successful fetch.
func (p *Poll[T]) Loading() bool {
	return !p.snapshot.Load().HasValue
}

// Ticks counts fetches issued, excluding gated ticks.
func (p *Poll[T]) Ticks() int {
	return int(p.ticks.Load())
}

func (p *Poll[T]) Stop() {
	p.stopped.Store(true)
}

func (p *Poll[T]) Stopped() bool {
	return p.stopped.Load()
}
