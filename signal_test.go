//go:build linux || darwin
// +build linux darwin

package mgmt

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
)

func TestSigHandlerCancelsRead(t *testing.T) {
	c := newMockConn(t)
	c.EXPECT().Read(gomock.Any()).Return(0, errWouldBlock).AnyTimes()

	tr, _ := connected(t, c, OptMaxRetryTime(10*time.Second))

	var called int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = WithSigHandler(ctx, func() {
		atomic.StoreInt32(&called, 1)
		cancel()
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		syscall.Kill(os.Getpid(), syscall.SIGTERM)
	}()

	start := time.Now()
	_, err := tr.Read(ctx)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if atomic.LoadInt32(&called) != 1 {
		t.Fatal("cancel was not called on SIGTERM")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("signal took %v to stop the read", elapsed)
	}
}

func TestSigHandlerExitsWithContext(t *testing.T) {
	// The runtime starts its own signal watcher on first use; get that out of
	// the way before counting.
	warm := make(chan os.Signal, 1)
	signal.Notify(warm, syscall.SIGUSR1)
	signal.Stop(warm)

	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	WithSigHandler(ctx, func() {
		t.Error("cancel must not be called without a signal")
	})
	cancel()

	deadline := time.Now().Add(time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("handler goroutine still running: %d goroutines, started with %d", runtime.NumGoroutine(), before)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
