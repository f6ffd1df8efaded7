package activityFeed

import (
	"context"
	"sync"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/yieldshift/sidecar/pkg/viewModel"
	"go.uber.org/zap"
)

var ErrHookNotConfigured = errors.New("hook address is not configured")

// Sink receives each batch of decoded events in arrival order.
type Sink func(events []viewModel.ActivityEvent)

// Source produces activity events until the returned subscription is closed.
type Source interface {
	SubscribeActivity(ctx context.Context, sink Sink) (*Subscription, error)
}

type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q goethereum.FilterQuery, ch chan<- types.Log) (goethereum.Subscription, error)
}

// Subscription owns the goroutine feeding a sink. Close releases the upstream
// resource and waits for the goroutine to exit.
type Subscription struct {
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	release func()

	mu  sync.Mutex
	err error
}

// RunSubscription starts run in a goroutine. release, if set, is called once on Close.
func RunSubscription(run func(quit <-chan struct{}) error, release func()) *Subscription {
	s := &Subscription{
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		release: release,
	}
	go func() {
		defer close(s.done)
		if err := run(s.quit); err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.quit)
		if s.release != nil {
			s.release()
		}
	})
	<-s.done
}

// Done is closed when the feeding goroutine exits, either from Close or an upstream error.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

const maxLogBatch = 256

// LogSource streams the hook's YieldShifted and RewardsHarvested logs.
type LogSource struct {
	subscriber LogSubscriber
	hook       common.Address
	hookAbi    *abi.ABI
	logger     *zap.Logger
}

func NewLogSource(subscriber LogSubscriber, hook common.Address, hookAbi *abi.ABI, l *zap.Logger) *LogSource {
	return &LogSource{
		subscriber: subscriber,
		hook:       hook,
		hookAbi:    hookAbi,
		logger:     l,
	}
}

func (ls *LogSource) SubscribeActivity(ctx context.Context, sink Sink) (*Subscription, error) {
	if ls.hook == (common.Address{}) {
		return nil, ErrHookNotConfigured
	}
	ch := make(chan types.Log, maxLogBatch)
	upstream, err := ls.subscriber.SubscribeFilterLogs(ctx, goethereum.FilterQuery{
		Addresses: []common.Address{ls.hook},
		Topics:    [][]common.Hash{EventTopics(ls.hookAbi)},
	}, ch)
	if err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to hook logs")
	}
	ls.logger.Sugar().Infow("Subscribed to hook events", zap.String("hook", ls.hook.Hex()))

	return RunSubscription(func(quit <-chan struct{}) error {
		for {
			select {
			case <-quit:
				return nil
			case err := <-upstream.Err():
				if err != nil {
					ls.logger.Sugar().Errorw("Hook log subscription failed", zap.Error(err))
				}
				return err
			case first := <-ch:
				batch := []types.Log{first}
				for len(ch) > 0 && len(batch) < maxLogBatch {
					batch = append(batch, <-ch)
				}
				sink(ls.decode(batch))
			}
		}
	}, upstream.Unsubscribe), nil
}

func (ls *LogSource) decode(logs []types.Log) []viewModel.ActivityEvent {
	events := make([]viewModel.ActivityEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		e, ok := DecodeLog(ls.hookAbi, l)
		if !ok {
			ls.logger.Sugar().Debugw("Ignoring unknown hook log",
				zap.String("txHash", l.TxHash.Hex()),
				zap.Uint("logIndex", l.Index),
			)
			continue
		}
		events = append(events, e)
	}
	return events
}
