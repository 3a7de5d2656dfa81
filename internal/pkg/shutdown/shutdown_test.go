package shutdown

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"subburn/internal/pkg/logger"
)

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Config{Level: "debug", Format: "json", Output: buf})
}

func TestShutdownRunsHandlersLIFO(t *testing.T) {
	mgr := NewManager(newTestLogger(&bytes.Buffer{}), 5*time.Second)

	var order []string
	for _, name := range []string{"postgres", "redis", "worker"} {
		name := name
		mgr.RegisterSimple(name, func() { order = append(order, name) })
	}

	mgr.Shutdown()

	if got := strings.Join(order, ","); got != "worker,redis,postgres" {
		t.Errorf("expected worker,redis,postgres, got %s", got)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	mgr := NewManager(newTestLogger(&bytes.Buffer{}), 5*time.Second)

	var calls atomic.Int32
	mgr.RegisterSimple("queue", func() { calls.Add(1) })

	mgr.Shutdown()
	mgr.Shutdown()

	if calls.Load() != 1 {
		t.Errorf("expected one call, got %d", calls.Load())
	}
	select {
	case <-mgr.Done():
	default:
		t.Error("expected done channel to be closed")
	}
}

func TestShutdownLogsHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	mgr := NewManager(newTestLogger(&buf), 5*time.Second)

	var ran atomic.Bool
	mgr.RegisterSimple("postgres", func() { ran.Store(true) })
	mgr.Register("http-server", func(context.Context) error {
		return errors.New("listener already closed")
	})

	mgr.Shutdown()

	if !ran.Load() {
		t.Error("a failing handler must not stop the rest")
	}
	if !strings.Contains(buf.String(), "listener already closed") {
		t.Errorf("expected handler error in log, got: %s", buf.String())
	}
}

func TestContextCanceledBeforeHandlers(t *testing.T) {
	mgr := NewManager(newTestLogger(&bytes.Buffer{}), 5*time.Second)
	ctx := mgr.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context must not be canceled before shutdown")
	default:
	}

	// The worker handler waits for the consumer loop, which only exits once
	// the context is canceled.
	mgr.Register("worker", func(hctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-hctx.Done():
			return hctx.Err()
		}
	})

	start := time.Now()
	mgr.Shutdown()
	if time.Since(start) > time.Second {
		t.Error("context was not canceled before the handler ran")
	}
}

func TestShutdownTimeout(t *testing.T) {
	mgr := NewManager(newTestLogger(&bytes.Buffer{}), 100*time.Millisecond)

	var skipped atomic.Bool
	skipped.Store(true)
	mgr.RegisterSimple("postgres", func() { skipped.Store(false) })
	mgr.Register("slow", func(ctx context.Context) error {
		time.Sleep(5 * time.Second)
		return nil
	})

	start := time.Now()
	mgr.Shutdown()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("shutdown took too long: %v", elapsed)
	}
	if !skipped.Load() {
		t.Error("handlers after the deadline must be skipped")
	}
}
