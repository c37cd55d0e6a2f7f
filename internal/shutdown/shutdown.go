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

// ListenForShutdown blocks until a termination signal arrives, runs signalHandler,
// waits up to timeToWait for in-flight work and then closes done.
func ListenForShutdown(
	signalChan chan os.Signal,
	done chan bool,
	signalHandler func(),
	timeToWait time.Duration,
	l *zap.Logger,
) {
	sig := <-signalChan
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		l.Sugar().Infow("Caught signal, shutting down", "signal", sig.String())

		signalHandler()

		if timeToWait > 0 {
			l.Sugar().Infow("Waiting before exit", "seconds", timeToWait.Seconds())
			time.Sleep(timeToWait)
		}

		l.Sugar().Infow("Exiting")
		close(done)
	}
}
