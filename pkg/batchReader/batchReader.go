// Package batchReader fans one read out across a list of addresses and joins the results in input order.
package batchReader

import (
	"context"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ReadFunc[T any] func(ctx context.Context, address common.Address) (T, error)

// FallbackFunc produces the value stored in a slot whose read failed.
type FallbackFunc[T any] func(address common.Address) T

type Options struct {
	// Concurrency caps in-flight reads. Zero or less means one goroutine per address.
	Concurrency int
	Name        string
	Logger      *zap.Logger
}

type Batch[T any] struct {
	addresses []common.Address
	results   []T
	errs      []error
	failures  atomic.Int64
	done      chan struct{}
}

// Start issues read for every address concurrently and returns immediately.
// An empty address list yields a batch that is already settled.
func Start[T any](ctx context.Context, addresses []common.Address, read ReadFunc[T], fallback FallbackFunc[T], opts *Options) *Batch[T] {
	if opts == nil {
		opts = &Options{}
	}
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	b := &Batch[T]{
		addresses: append([]common.Address(nil), addresses...),
		results:   make([]T, len(addresses)),
		errs:      make([]error, len(addresses)),
		done:      make(chan struct{}),
	}
	if len(addresses) == 0 {
		close(b.done)
		return b
	}

	go func() {
		defer close(b.done)

		g := &errgroup.Group{}
		if opts.Concurrency > 0 {
			g.SetLimit(opts.Concurrency)
		}
		for i, address := range b.addresses {
			g.Go(func() error {
				v, err := read(ctx, address)
				if err != nil {
					b.failures.Add(1)
					b.errs[i] = err
					v = fallback(address)
					l.Sugar().Debugw("Batch read failed, using fallback",
						zap.String("batch", opts.Name),
						zap.String("address", address.Hex()),
						zap.Error(err),
					)
				}
				b.results[i] = v
				return nil
			})
		}
		_ = g.Wait()
	}()
	return b
}

// Loading is true until every read has settled, regardless of how many failed.
func (b *Batch[T]) Loading() bool {
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the batch settles and returns one result per input address, in input order.
func (b *Batch[T]) Wait() []T {
	<-b.done
	out := make([]T, len(b.results))
	copy(out, b.results)
	return out
}

// WaitContext is Wait bounded by ctx.
func (b *Batch[T]) WaitContext(ctx context.Context) ([]T, error) {
	select {
	case <-b.done:
		return b.Wait(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once the batch settles.
func (b *Batch[T]) Done() <-chan struct{} {
	return b.done
}

func (b *Batch[T]) Failures() int {
	return int(b.failures.Load())
}

// Errors returns the per-slot errors after the batch settles; successful slots are nil.
func (b *Batch[T]) Errors() []error {
	<-b.done
	out := make([]error, len(b.errs))
	copy(out, b.errs)
	return out
}

func Aggregate[T any](ctx context.Context, addresses []common.Address, read ReadFunc[T], fallback FallbackFunc[T], opts *Options) []T {
	return Start(ctx, addresses, read, fallback, opts).Wait()
}
