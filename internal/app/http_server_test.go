package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/frudas24/qaagent/internal/command"
	"github.com/frudas24/qaagent/internal/config"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/journal"
	"github.com/frudas24/qaagent/internal/monitor"
	"github.com/frudas24/qaagent/internal/session"
	"github.com/frudas24/qaagent/internal/testutil"
)

const testToken = "secret"

func newTestApp(t *testing.T, journalOn bool) (*App, *testutil.FakeSink, http.Handler) {
	t.Helper()
	cfg := config.Defaults()
	cfg.JournalEnabled = journalOn
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")
	sink := &testutil.FakeSink{}
	screen := monitor.Single(800, 600)
	a, err := New(cfg, Deps{
		Session:  session.New(testToken),
		Sink:     sink,
		Screen:   screen,
		Monitors: []monitor.Monitor{screen},
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	return a, sink, mux
}

func do(t *testing.T, h http.Handler, method, path, body string, bearer bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if bearer {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestNew_RequiresSink verifies construction fails without an event sink.
func TestNew_RequiresSink(t *testing.T) {
	if _, err := New(config.Defaults(), Deps{Session: session.New("x")}); err == nil {
		t.Fatalf("expected error")
	}
}

// TestState_Unauthorized verifies API routes reject unauthenticated callers.
func TestState_Unauthorized(t *testing.T) {
	_, _, h := newTestApp(t, false)
	for _, path := range []string{"/api/state", "/api/elements", "/api/journal", "/api/monitors"} {
		if rec := do(t, h, http.MethodGet, path, "", false); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

// TestLogin_ThenState verifies a session login unlocks the state endpoint.
func TestLogin_ThenState(t *testing.T) {
	_, _, h := newTestApp(t, false)
	if rec := do(t, h, http.MethodPost, "/login", `{"token":"wrong"}`, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/login", `{"token":"secret"}`, false); rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/api/state", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: %d", rec.Code)
	}
	var st stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Authenticated || !st.InputEnabled || st.InputMode != "pointer" || st.MonitorIndex != 1 || len(st.Commands) == 0 {
		t.Fatalf("state=%+v", st)
	}
	do(t, h, http.MethodPost, "/logout", "", false)
	if rec := do(t, h, http.MethodGet, "/api/state", "", false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: %d", rec.Code)
	}
}

// TestCommand_ClickElementIsJournaled verifies an HTTP click reaches the sink and the journal.
func TestCommand_ClickElementIsJournaled(t *testing.T) {
	_, sink, h := newTestApp(t, true)
	if rec := do(t, h, http.MethodPut, "/api/elements", `{"id":"ok","rect":{"x":10,"y":10,"w":20,"h":10}}`, true); rec.Code != http.StatusOK {
		t.Fatalf("set element: %d %s", rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/api/commands", `{"id":"7","cmd":"action","action":"click","params":["ok"]}`, true)
	var reply command.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	if reply.ID != "7" || reply.Status != command.StatusOK {
		t.Fatalf("reply=%+v", reply)
	}
	mice := sink.Mice()
	if len(mice) < 2 || mice[0].Type != event.MousePress || mice[len(mice)-1].Type != event.MouseRelease {
		t.Fatalf("mice=%+v", mice)
	}
	if mice[0].Pos.X != 20 || mice[0].Pos.Y != 15 {
		t.Fatalf("press at %+v", mice[0].Pos)
	}

	rec = do(t, h, http.MethodGet, "/api/journal?limit=5", "", true)
	var records []journal.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode journal: %v", err)
	}
	if len(records) != 1 || records[0].Command != "click" || records[0].RequestID != "7" {
		t.Fatalf("records=%+v", records)
	}
}

// TestInput_KillSwitch verifies disabling input refuses gestures with status 4.
func TestInput_KillSwitch(t *testing.T) {
	_, sink, h := newTestApp(t, false)
	if rec := do(t, h, http.MethodPost, "/api/input", `{"enabled":false}`, true); rec.Code != http.StatusOK {
		t.Fatalf("input: %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/commands", `{"cmd":"action","action":"pressEnter","params":[]}`, true)
	var reply command.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Status != command.StatusInputDisabled {
		t.Fatalf("status=%d", reply.Status)
	}
	if len(sink.Records()) != 0 {
		t.Fatalf("events emitted while disabled: %d", len(sink.Records()))
	}
}

// TestElements_DeleteUnknown verifies removing a missing element is a 404.
func TestElements_DeleteUnknown(t *testing.T) {
	_, _, h := newTestApp(t, false)
	if rec := do(t, h, http.MethodDelete, "/api/elements?id=nope", "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// TestJournal_Disabled verifies the journal route reports a disabled journal.
func TestJournal_Disabled(t *testing.T) {
	_, _, h := newTestApp(t, false)
	if rec := do(t, h, http.MethodGet, "/api/journal", "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// TestOpenSink_Log verifies the default sink logs instead of injecting.
func TestOpenSink_Log(t *testing.T) {
	s, err := OpenSink(config.Defaults(), monitor.Single(10, 10))
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	if _, ok := s.(*event.LogSink); !ok {
		t.Fatalf("sink=%T", s)
	}
	if a, err := OpenActivator(config.Defaults()); err != nil || a != nil {
		t.Fatalf("activator=%v err=%v", a, err)
	}
}

// TestElements_PersistAcrossRestart verifies edited elements are restored by a new App.
func TestElements_PersistAcrossRestart(t *testing.T) {
	cfg := config.Defaults()
	cfg.JournalEnabled = false
	cfg.ElementsPath = filepath.Join(t.TempDir(), "elements.json")
	deps := Deps{Session: session.New(testToken), Sink: &testutil.FakeSink{}, Screen: monitor.Single(100, 100)}

	first, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mux := http.NewServeMux()
	first.RegisterRoutes(mux)
	if rec := do(t, mux, http.MethodPut, "/api/elements", `{"id":"ok","rect":{"x":1,"y":2,"w":3,"h":4}}`, true); rec.Code != http.StatusOK {
		t.Fatalf("set element: %d", rec.Code)
	}
	_ = first.Stop()

	second, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = second.Stop() }()
	entries := second.Elements().Entries()
	if len(entries) != 1 || entries[0].ID != "ok" || entries[0].Rect.H != 4 {
		t.Fatalf("entries=%+v", entries)
	}
}
