// Package mainloop runs queued work on the single goroutine that owns the host event pipeline.
package mainloop

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrStopped is returned when work is submitted after the loop exited.
var ErrStopped = errors.New("main loop stopped")

// DefaultQueueSize bounds the number of pending tasks before Post blocks.
const DefaultQueueSize = 1024

// Loop drains a FIFO of tasks on one goroutine, locked to its OS thread.
// Tasks posted from one goroutine run in the order they were posted.
type Loop struct {
	queue    chan func()
	stopping chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// mu is held for reading by every Post; shutdown takes it for writing
	// so no task is accepted after the final drain.
	mu     sync.RWMutex
	closed bool
}

// New returns a loop with the given queue capacity (DefaultQueueSize when <= 0).
func New(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue:    make(chan func(), size),
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is done. Tasks accepted before exit still run
// before Run returns; later submissions fail with ErrStopped.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer l.stopOnce.Do(l.shutdown)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// shutdown refuses new work, then runs whatever was already queued.
func (l *Loop) shutdown() {
	close(l.stopping)
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	for {
		select {
		case fn := <-l.queue:
			fn()
		default:
			close(l.stopped)
			return
		}
	}
}

// Post queues fn for execution. It blocks while the queue is full and
// returns ErrStopped once the loop is shutting down.
func (l *Loop) Post(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStopped
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopping:
		return ErrStopped
	}
}

// Call runs fn on the loop and waits for it to return.
// It must not be called from a task already running on the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
