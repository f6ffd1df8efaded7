package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic work driven by the Scheduler.
type Job interface {
	Name() string
	Interval() time.Duration
	Tick(ctx context.Context)
	Stop()
}

type cronLogger struct {
	logger *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Sugar().Errorw(msg, append(keysAndValues, zap.Error(err))...)
}

type entry struct {
	id  cron.EntryID
	job Job
}

// Scheduler re-runs each registered job on its own fixed interval. A tick that is still
// running when the next one is due causes that next tick to be skipped.
type Scheduler struct {
	cron   *cron.Cron
	chain  cron.Chain
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup

	logger *zap.Logger
}

func NewScheduler(l *zap.Logger) *Scheduler {
	cl := cronLogger{logger: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl)),
		chain:   cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		logger:  l,
	}
}

// Register schedules job every job.Interval() and runs its first tick immediately.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[job.Name()]; ok {
		return fmt.Errorf("job %s is already registered", job.Name())
	}
	if job.Interval() < time.Second {
		return fmt.Errorf("job %s interval %s is below one second", job.Name(), job.Interval())
	}

	wrapped := s.chain.Then(cron.FuncJob(func() {
		job.Tick(s.ctx)
	}))

	id, err := s.cron.AddJob(fmt.Sprintf("@every %s", job.Interval()), wrapped)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}
	s.entries[job.Name()] = &entry{id: id, job: job}

	s.logger.Sugar().Infow("Registered poll",
		zap.String("name", job.Name()),
		zap.Duration("interval", job.Interval()),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		wrapped.Run()
	}()
	return nil
}

// Remove stops scheduling job and discards any result it is still producing.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	e.job.Stop()
	s.cron.Remove(e.id)
	delete(s.entries, name)
	return true
}

func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Sugar().Infow("Scheduler started", zap.Int("jobs", len(s.Jobs())))
}

// Stop halts all jobs and waits for running ticks to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, e := range s.entries {
		e.job.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Sugar().Infow("Scheduler stopped")
}
