//go:build !windows

package monitor

import "errors"

// ErrUnsupported is returned where the host offers no display enumeration.
var ErrUnsupported = errors.New("monitor enumeration unsupported on this platform")

// ListMonitors always fails off Windows; callers fall back to a configured size.
func ListMonitors() (Layout, error) {
	return nil, ErrUnsupported
}
