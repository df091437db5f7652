package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunPendingRunsOnce(t *testing.T) {
	q := NewQueue(nil)
	calls := 0
	q.RequestFrame(func(time.Time) { calls++ })

	if !q.RunPending() {
		t.Fatal("expected a frame to run")
	}
	if q.RunPending() {
		t.Error("frame should not run twice")
	}
	if calls != 1 || q.Frames() != 1 {
		t.Errorf("calls=%d frames=%d", calls, q.Frames())
	}
}

func TestRequestReplacesPending(t *testing.T) {
	q := NewQueue(nil)
	var got string
	q.RequestFrame(func(time.Time) { got = "first" })
	q.RequestFrame(func(time.Time) { got = "second" })
	q.RunPending()

	if got != "second" {
		t.Errorf("expected the latest request to win, got %q", got)
	}
}

func TestRunUntilIdle(t *testing.T) {
	q := NewQueue(nil)
	remaining := 5
	var frame Callback
	frame = func(time.Time) {
		remaining--
		if remaining > 0 {
			q.RequestFrame(frame)
		}
	}
	q.RequestFrame(frame)

	n, err := q.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if n != 5 || remaining != 0 {
		t.Errorf("ran %d frames, %d remaining", n, remaining)
	}
}

func TestRunHonorsLimit(t *testing.T) {
	q := NewQueue(nil)
	var frame Callback
	frame = func(time.Time) { q.RequestFrame(frame) }
	q.RequestFrame(frame)

	n, _ := q.Run(context.Background(), 10)
	if n != 10 {
		t.Errorf("expected 10 frames, got %d", n)
	}
	if !q.Pending() {
		t.Error("a self-rescheduling frame should still be pending")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	q := NewQueue(nil)
	q.RequestFrame(func(time.Time) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCancelAndStop(t *testing.T) {
	q := NewQueue(nil)
	q.RequestFrame(func(time.Time) { t.Error("cancelled frame ran") })
	q.Cancel()
	if q.RunPending() {
		t.Error("nothing should run after Cancel")
	}

	q.Stop()
	q.RequestFrame(func(time.Time) { t.Error("frame ran after Stop") })
	if q.Pending() {
		t.Error("requests after Stop should be ignored")
	}

	q.Restart()
	q.RequestFrame(func(time.Time) {})
	if !q.Pending() {
		t.Error("Restart should accept requests again")
	}
}

func TestFrameTimestamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	q := NewQueue(func() time.Time { return at })
	var got time.Time
	q.RequestFrame(func(now time.Time) { got = now })
	q.RunPending()
	if !got.Equal(at) {
		t.Errorf("got %v", got)
	}
}
