// Package pending provides one-shot completion handles for asynchronous gestures.
package pending

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTimeout is returned by Wait when the safety timeout elapses first.
var ErrTimeout = errors.New("timed out waiting for operation")

// Operation completes exactly once. Waiters that give up leave it running;
// the worker still completes it and nothing else needs to release it.
type Operation struct {
	id   string
	done chan struct{}
	once sync.Once
	err  error
}

// New returns an incomplete operation with a fresh id.
func New() *Operation {
	return &Operation{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

// Completed returns an operation that already finished with err.
func Completed(err error) *Operation {
	op := New()
	op.Complete(err)
	return op
}

// ID returns the operation id.
func (o *Operation) ID() string {
	return o.id
}

// Complete marks the operation finished. Only the first call has any effect;
// it reports whether this call was the one that completed the operation.
func (o *Operation) Complete(err error) bool {
	completed := false
	o.once.Do(func() {
		o.err = err
		close(o.done)
		completed = true
	})
	return completed
}

// Done is closed when the operation completes.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Err returns the completion error. It is nil before completion.
func (o *Operation) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until completion, ctx cancellation or timeout (no timeout when <= 0).
// On completion it returns the operation's own error.
func (o *Operation) Wait(ctx context.Context, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-o.done:
		return o.err
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join completes an operation after a fixed number of arrivals.
type Join struct {
	mu    sync.Mutex
	op    *Operation
	want  int
	count int
	errs  []error
}

// NewJoin returns a join that completes op after n arrivals. With n <= 0 op completes immediately.
func NewJoin(op *Operation, n int) *Join {
	j := &Join{op: op, want: n}
	if n <= 0 {
		op.Complete(nil)
	}
	return j
}

// Arrive records one finished participant. The arrival that brings the count to
// n completes the operation with the joined participant errors.
func (j *Join) Arrive(err error) {
	j.mu.Lock()
	if j.count >= j.want {
		j.mu.Unlock()
		return
	}
	j.count++
	if err != nil {
		j.errs = append(j.errs, err)
	}
	finished := j.count == j.want
	errs := j.errs
	j.mu.Unlock()

	if finished {
		j.op.Complete(errors.Join(errs...))
	}
}

// Count returns the number of arrivals so far.
func (j *Join) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}
