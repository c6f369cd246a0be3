package mgmt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSigHandler calls cancel when SIGINT or SIGTERM arrives, which stops any
// Read polling on ctx. Pass the pair returned by context.WithCancel or
// context.WithTimeout. The handler is installed before WithSigHandler returns
// and removed once ctx is done.
func WithSigHandler(ctx context.Context, cancel func()) context.Context {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)

		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
