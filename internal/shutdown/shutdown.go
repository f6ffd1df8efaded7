package shutdown

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGTERM, syscall.SIGINT)

	return gracefulShutdown
}

// ListenForShutdown blocks until a termination signal arrives, runs the
// handler and then waits for drained to close, giving up after timeToWait.
// A nil drained channel always waits the full timeToWait.
func ListenForShutdown(
	signalChan chan os.Signal,
	drained <-chan struct{},
	signalHandler func(),
	timeToWait time.Duration,
	l *zap.Logger,
) {
	sig := <-signalChan
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		l.Sugar().Infof("caught signal %v", sig)

		signalHandler()

		l.Sugar().Infof("Waiting up to %v seconds to exit...", timeToWait.Seconds())
		select {
		case <-drained:
			l.Sugar().Infow("All components stopped")
		case <-time.After(timeToWait):
			l.Sugar().Warnw("Timed out waiting for components to stop")
		}

		l.Sugar().Infof("Exiting")
	}
}
