package worker

import (
	"context"
	"testing"
	"time"
)

func TestJobContextOutlivesShutdown(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	jobCtx, cancel := jobContext(parent, 200*time.Millisecond)
	defer cancel()

	stop()
	select {
	case <-jobCtx.Done():
		t.Fatal("job context canceled as soon as shutdown started")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case <-jobCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("job context not canceled after the drain timeout")
	}
}

func TestJobContextReleasedWhenJobEnds(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	defer stop()

	jobCtx, cancel := jobContext(parent, time.Hour)
	cancel()

	if jobCtx.Err() == nil {
		t.Fatal("expected job context to be canceled by its own cancel func")
	}
	// Shutdown after the job ended must not block or panic.
	stop()
}

func TestJobContextKeepsValues(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "job_1")
	jobCtx, cancel := jobContext(parent, time.Minute)
	defer cancel()

	if got := jobCtx.Value(key{}); got != "job_1" {
		t.Errorf("expected value to carry over, got %v", got)
	}
}
