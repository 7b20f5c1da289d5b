// Package clock provides the elapsed-time source used to timestamp synthesized events.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock reports time elapsed since its start and suspends callers.
// Implementations are safe for concurrent use.
type Clock interface {
	// Elapsed returns the non-decreasing time since the clock started.
	Elapsed() time.Duration
	// Sleep suspends the calling goroutine for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// Millis returns the elapsed time of c in whole milliseconds.
func Millis(c Clock) uint64 {
	return uint64(c.Elapsed() / time.Millisecond)
}

// Monotonic is a wall Clock backed by the runtime monotonic reading.
type Monotonic struct {
	start time.Time
	mu    sync.Mutex
	last  time.Duration
}

// NewMonotonic returns a Clock started now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Elapsed returns the time since NewMonotonic, never smaller than a previous result.
func (m *Monotonic) Elapsed() time.Duration {
	d := time.Since(m.start)
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < m.last {
		d = m.last
	}
	m.last = d
	return d
}

// Sleep blocks for d or until ctx is cancelled.
func (m *Monotonic) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Virtual is a synthetic Clock whose time only advances through Sleep and Advance.
// Sleep returns immediately, which keeps long gestures instant in tests.
type Virtual struct {
	mu  sync.Mutex
	now time.Duration
}

// NewVirtual returns a Virtual clock at zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Elapsed returns the accumulated synthetic time.
func (v *Virtual) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Advance moves synthetic time forward by d.
func (v *Virtual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	v.mu.Lock()
	v.now += d
	v.mu.Unlock()
}

// Sleep advances synthetic time by d without blocking.
func (v *Virtual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.Advance(d)
	return nil
}
