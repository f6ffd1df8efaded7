package ethereum

import (
	"context"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// LogPoller provides log subscriptions over plain HTTP by polling eth_getLogs
// for each new range of blocks.
type LogPoller struct {
	client   *Client
	interval time.Duration
	logger   *zap.Logger
}

func NewLogPoller(client *Client, interval time.Duration, l *zap.Logger) *LogPoller {
	if interval <= 0 {
		interval = time.Second * 4
	}
	return &LogPoller{
		client:   client,
		interval: interval,
		logger:   l,
	}
}

func toLogFilter(q goethereum.FilterQuery) *LogFilter {
	return &LogFilter{
		Addresses: q.Addresses,
		Topics:    q.Topics,
		FromBlock: q.FromBlock,
		ToBlock:   q.ToBlock,
	}
}

func (lp *LogPoller) FilterLogs(ctx context.Context, q goethereum.FilterQuery) ([]types.Log, error) {
	return lp.client.GetLogs(ctx, toLogFilter(q))
}

// SubscribeFilterLogs delivers logs matching q from the block after the current head,
// or from q.FromBlock when set, until the subscription is unsubscribed.
func (lp *LogPoller) SubscribeFilterLogs(ctx context.Context, q goethereum.FilterQuery, ch chan<- types.Log) (goethereum.Subscription, error) {
	var next uint64
	if q.FromBlock != nil {
		next = q.FromBlock.Uint64()
	} else {
		head, err := lp.client.GetBlockNumberUint64(ctx)
		if err != nil {
			return nil, err
		}
		next = head + 1
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(lp.interval)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return nil
			case <-ticker.C:
			}

			pollCtx, cancel := context.WithTimeout(context.Background(), lp.interval*4)
			next = lp.pollRange(pollCtx, q, next, ch, quit)
			cancel()
		}
	}), nil
}

// pollRange fetches logs from next through the current head and returns the next block to poll.
func (lp *LogPoller) pollRange(ctx context.Context, q goethereum.FilterQuery, next uint64, ch chan<- types.Log, quit <-chan struct{}) uint64 {
	head, err := lp.client.GetBlockNumberUint64(ctx)
	if err != nil {
		lp.logger.Sugar().Warnw("Failed to get block number for log poll", zap.Error(err))
		return next
	}
	if head < next {
		return next
	}

	filter := toLogFilter(q)
	filter.FromBlock = newBig(next)
	filter.ToBlock = newBig(head)

	logs, err := lp.client.GetLogs(ctx, filter)
	if err != nil {
		lp.logger.Sugar().Warnw("Failed to get logs",
			zap.Error(err),
			zap.Uint64("fromBlock", next),
			zap.Uint64("toBlock", head),
		)
		return next
	}
	for _, l := range logs {
		select {
		case ch <- l:
		case <-quit:
			return next
		}
	}
	return head + 1
}

// NewLogSubscriber returns a websocket backed filterer when a websocket url is configured
// and falls back to polling over HTTP otherwise.
func NewLogSubscriber(ctx context.Context, client *Client, l *zap.Logger) (goethereum.LogFilterer, error) {
	cfg := client.Config()
	if cfg.WsUrl != "" {
		wsc, err := ethclient.DialContext(ctx, cfg.WsUrl)
		if err != nil {
			l.Sugar().Errorw("Failed to dial websocket endpoint", zap.Error(err))
			return nil, err
		}
		l.Sugar().Infow("Using websocket log subscriptions", zap.String("url", cfg.WsUrl))
		return wsc, nil
	}
	l.Sugar().Infow("Using polling log subscriptions", zap.Duration("interval", cfg.LogPollInterval))
	return NewLogPoller(client, cfg.LogPollInterval, l), nil
}
