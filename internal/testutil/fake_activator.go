package testutil

import "sync/atomic"

// FakeActivator counts window activation requests.
type FakeActivator struct {
	calls atomic.Int32
	// Err is returned from ActivateWindow when set.
	Err error
}

// ActivateWindow records one activation.
func (f *FakeActivator) ActivateWindow() error {
	f.calls.Add(1)
	return f.Err
}

// Calls returns the number of activations so far.
func (f *FakeActivator) Calls() int {
	return int(f.calls.Load())
}
