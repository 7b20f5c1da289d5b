// Package session tracks who may drive the agent and whether their input reaches the host.
package session

import (
	"crypto/subtle"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Authenticated bool
	InputEnabled  bool
	MonitorIndex  int
	Driver        string
	DriverSince   time.Time
	FailedLogins  int
}

type driverClaim struct {
	id    string
	since time.Time
}

// Session guards the agent with a shared token. The input kill switch is read on
// every gesture, so it lives outside the mutex.
type Session struct {
	token []byte
	input atomic.Bool
	now   func() time.Time

	mu       sync.Mutex
	loggedIn bool
	failures int
	monitor  int
	driver   driverClaim
}

// New returns a session guarded by token with input enabled.
func New(token string) *Session {
	s := &Session{token: []byte(token), now: time.Now}
	s.input.Store(true)
	return s
}

// Check reports whether token matches. An empty configured token matches nothing.
func (s *Session) Check(token string) bool {
	if len(s.token) == 0 || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), s.token) == 1
}

// Authenticate logs the session in on a matching token and out otherwise.
func (s *Session) Authenticate(token string) bool {
	ok := s.Check(token)
	s.mu.Lock()
	s.loggedIn = ok
	if !ok {
		s.failures++
	}
	s.mu.Unlock()
	return ok
}

// Logout clears the login.
func (s *Session) Logout() {
	s.mu.Lock()
	s.loggedIn = false
	s.mu.Unlock()
}

// IsAuthenticated reports whether a login succeeded since the last logout.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// SetInputEnabled flips the kill switch for gesture commands.
func (s *Session) SetInputEnabled(enabled bool) {
	s.input.Store(enabled)
}

// InputEnabled reports the kill switch.
func (s *Session) InputEnabled() bool {
	return s.input.Load()
}

// SetMonitor records the monitor gestures are mapped onto.
func (s *Session) SetMonitor(idx int) {
	s.mu.Lock()
	s.monitor = idx
	s.mu.Unlock()
}

// Monitor returns the selected monitor index.
func (s *Session) Monitor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitor
}

// ClaimDriver makes id the driving connection. A repeated claim by the same id
// succeeds and keeps the original claim time; a claim by anyone else fails.
func (s *Session) ClaimDriver(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.driver.id {
	case id:
		return true
	case "":
		s.driver = driverClaim{id: id, since: s.now()}
		return true
	default:
		return false
	}
}

// ReleaseDriver drops the claim held by id. Other ids are ignored.
func (s *Session) ReleaseDriver(id string) {
	s.mu.Lock()
	if s.driver.id == id {
		s.driver = driverClaim{}
	}
	s.mu.Unlock()
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Authenticated: s.loggedIn,
		InputEnabled:  s.input.Load(),
		MonitorIndex:  s.monitor,
		Driver:        s.driver.id,
		DriverSince:   s.driver.since,
		FailedLogins:  s.failures,
	}
}
