package app

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/frudas24/qaagent/internal/geom"
)

// maxFrameBytes bounds a command frame posted over HTTP.
const maxFrameBytes = 1 << 20

// RegisterRoutes wires API and websocket handlers onto the mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/logout", a.handleLogout)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/monitors", a.handleMonitors)
	mux.HandleFunc("/api/input", a.handleInput)
	mux.HandleFunc("/api/elements", a.handleElements)
	mux.HandleFunc("/api/commands", a.handleCommand)
	mux.HandleFunc("/api/journal", a.handleJournal)
	mux.Handle("/ws/signal", a.Signaling())
	mux.Handle("/ws/control", a.Control())
	mux.HandleFunc("/favicon.ico", handleFavicon)
}

type loginRequest struct {
	Token string `json:"token"`
}

type inputRequest struct {
	Enabled *bool `json:"enabled"`
}

type elementRequest struct {
	ID   string    `json:"id"`
	Rect geom.Rect `json:"rect"`
}

type stateResponse struct {
	Authenticated bool     `json:"authenticated"`
	InputEnabled  bool     `json:"inputEnabled"`
	MonitorIndex  int      `json:"monitor"`
	Driver        bool     `json:"driverConnected"`
	InputMode     string   `json:"inputMode"`
	Embedded      bool     `json:"embedded"`
	Sink          string   `json:"sink"`
	Elements      int      `json:"elements"`
	Journal       bool     `json:"journal"`
	Commands      []string `json:"commands"`
}

// handleLogin authenticates the session.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !a.session.Authenticate(req.Token) {
		a.log.Warn().Str("remote", r.RemoteAddr).Msg("login rejected")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// handleLogout clears authentication state.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.session.Logout()
	writeJSON(w, map[string]bool{"ok": true})
}

// handleState returns the current session and engine state.
func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	snap := a.session.Snapshot()
	writeJSON(w, stateResponse{
		Authenticated: snap.Authenticated,
		InputEnabled:  snap.InputEnabled,
		MonitorIndex:  snap.MonitorIndex,
		Driver:        snap.Driver != "",
		InputMode:     a.engine.Mode().String(),
		Embedded:      a.cfg.Embedded,
		Sink:          a.cfg.Sink,
		Elements:      len(a.elements.Entries()),
		Journal:       a.journal != nil,
		Commands:      a.dispatcher.Commands(),
	})
}

// handleMonitors returns the list of monitors.
func (a *App) handleMonitors(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	writeJSON(w, a.ListMonitors())
}

// handleInput flips the input kill switch.
func (a *App) handleInput(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	if r.Method == http.MethodPost {
		var req inputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		a.session.SetInputEnabled(*req.Enabled)
		a.log.Info().Bool("enabled", *req.Enabled).Msg("input toggled")
	}
	writeJSON(w, map[string]bool{"inputEnabled": a.session.InputEnabled()})
}

// handleElements lists, sets or removes element rectangles.
func (a *App) handleElements(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, a.elements.Entries())
	case http.MethodPut, http.MethodPost:
		var req elementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := a.elements.Set(req.ID, req.Rect); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.saveElements()
		writeJSON(w, map[string]bool{"ok": true})
	case http.MethodDelete:
		if !a.elements.Remove(r.URL.Query().Get("id")) {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		a.saveElements()
		writeJSON(w, map[string]bool{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCommand runs one command frame and returns its reply.
func (a *App) handleCommand(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	writeJSON(w, a.dispatcher.DispatchRaw(r.Context(), raw))
}

// handleJournal returns recent journal records.
func (a *App) handleJournal(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}
	if a.journal == nil {
		http.Error(w, "journal disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	records, err := a.journal.Recent(r.Context(), limit, q.Get("command"))
	if err != nil {
		a.log.Error().Err(err).Msg("journal query failed")
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

// authorized accepts an authenticated session, a bearer token or a token query parameter.
func (a *App) authorized(r *http.Request) bool {
	if a.session.IsAuthenticated() {
		return true
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return a.session.Check(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
	}
	return a.session.Check(r.URL.Query().Get("token"))
}

// requireAuth returns false and writes an error if the request is not authorized.
func (a *App) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if !a.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleFavicon avoids noisy 404s for the default browser request.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
