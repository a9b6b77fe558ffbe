package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	wg   sync.WaitGroup
	ctx  context.Context
	stop context.CancelFunc
)

func InitShutdownHandler() {
	ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Context registers the caller as a shutdown participant. The caller must
// call NotifyShutdownComplete when it exits.
func Context() context.Context {
	wg.Add(1)
	return ctx
}

func NotifyShutdownComplete() {
	wg.Done()
}

func WaitForShutdown() {
	wg.Wait()
	stop()
}
