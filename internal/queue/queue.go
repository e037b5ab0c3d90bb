package queue

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SendFn writes one frame to the transport.
type SendFn = func(frame string) error

// ErrorFn receives errors returned by SendFn.
type ErrorFn = func(frame string, err error)

// Queue is a FIFO of outbound frames flushed no faster than one frame per
// interval. Frames are never dropped or reordered.
//
// Readiness is kept in a token bucket of size one refilling once per
// interval, so the first frame after a quiet period goes out at once and a
// burst drains at the fixed cadence behind a single timer.
type Queue struct {
	mu       sync.Mutex
	frames   []string
	limiter  *rate.Limiter
	interval time.Duration
	timer    *time.Timer
	stopped  bool
	send     SendFn
	onError  ErrorFn
}

type failure struct {
	frame string
	err   error
}

// Option configures a Queue.
type Option func(*Queue)

// WithErrorHandler sets the handler for send errors. Failed frames are not
// retried.
func WithErrorHandler(fn ErrorFn) Option {
	return func(q *Queue) {
		q.onError = fn
	}
}

// New creates a queue writing frames with send, spaced by interval.
func New(interval time.Duration, send SendFn, opts ...Option) *Queue {
	q := &Queue{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		send:     send,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends frame to the queue and flushes whatever is due.
func (q *Queue) Enqueue(frame string) {
	q.mu.Lock()
	q.frames = append(q.frames, frame)
	failed := q.check()
	q.mu.Unlock()

	q.report(failed)
}

// Len returns the number of frames waiting to be sent.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Stop cancels the pending flush. Queued and later enqueued frames are kept
// but never sent.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// check sends every frame that is due and arms the flush timer for the
// next one. Frames are written under q.mu so concurrent producers cannot
// interleave. Callers must hold q.mu.
func (q *Queue) check() []failure {
	var failed []failure
	for len(q.frames) > 0 && !q.stopped {
		now := time.Now()
		if !q.limiter.AllowN(now, 1) {
			if q.timer == nil {
				q.timer = time.AfterFunc(q.delay(now), q.flush)
			}
			break
		}

		frame := q.frames[0]
		q.frames[0] = ""
		q.frames = q.frames[1:]
		if err := q.send(frame); err != nil {
			failed = append(failed, failure{frame: frame, err: err})
		}
	}
	return failed
}

// flush runs when the timer fires.
func (q *Queue) flush() {
	q.mu.Lock()
	q.timer = nil
	failed := q.check()
	q.mu.Unlock()

	q.report(failed)
}

// report hands send errors to the error handler outside the lock, so the
// handler may enqueue again.
func (q *Queue) report(failed []failure) {
	if q.onError == nil {
		return
	}
	for _, f := range failed {
		q.onError(f.frame, f.err)
	}
}

// delay returns how long until the limiter holds a full token. It is never
// below a millisecond so rounding cannot spin the timer.
func (q *Queue) delay(now time.Time) time.Duration {
	missing := 1 - q.limiter.TokensAt(now)
	d := time.Duration(missing * float64(q.interval))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
