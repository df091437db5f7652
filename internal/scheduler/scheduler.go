// Package scheduler provides the frame scheduling primitive used by the
// render loop.
package scheduler

import (
	"context"
	"time"
)

// Callback runs one frame. now is the frame timestamp.
type Callback func(now time.Time)

// Scheduler requests frames. At most one frame is pending at a time; a second
// request before the pending frame runs replaces its callback.
type Scheduler interface {
	RequestFrame(cb Callback)
	Cancel()
}

// Queue is a single-threaded Scheduler pumped explicitly by its owner.
// It is not safe for concurrent use.
type Queue struct {
	pending Callback
	now     func() time.Time
	frames  int
	stopped bool
}

func NewQueue(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// RequestFrame schedules cb for the next RunPending. Requests are ignored
// after Stop.
func (q *Queue) RequestFrame(cb Callback) {
	if q.stopped {
		return
	}
	q.pending = cb
}

// Cancel drops the pending frame, if any.
func (q *Queue) Cancel() {
	q.pending = nil
}

// Stop cancels and refuses further requests.
func (q *Queue) Stop() {
	q.Cancel()
	q.stopped = true
}

// Restart lifts a previous Stop.
func (q *Queue) Restart() {
	q.stopped = false
}

func (q *Queue) Pending() bool { return q.pending != nil }

// Frames returns how many frames have run.
func (q *Queue) Frames() int { return q.frames }

// RunPending runs the pending frame, if any, and reports whether one ran.
// The callback may request the next frame.
func (q *Queue) RunPending() bool {
	cb := q.pending
	if cb == nil {
		return false
	}
	q.pending = nil
	q.frames++
	cb(q.now())
	return true
}

// Run pumps frames until none is pending, maxFrames have run (0 means no
// limit), or ctx is done. It returns the number of frames run.
func (q *Queue) Run(ctx context.Context, maxFrames int) (int, error) {
	n := 0
	for q.Pending() {
		if maxFrames > 0 && n >= maxFrames {
			break
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		q.RunPending()
		n++
	}
	return n, nil
}
