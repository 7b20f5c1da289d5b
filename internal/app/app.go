// Package app wires the gesture engine, the command surfaces and the HTTP API together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/frudas24/qaagent/internal/command"
	"github.com/frudas24/qaagent/internal/config"
	"github.com/frudas24/qaagent/internal/control"
	"github.com/frudas24/qaagent/internal/element"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/geom"
	"github.com/frudas24/qaagent/internal/gesture"
	"github.com/frudas24/qaagent/internal/journal"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/mainloop"
	"github.com/frudas24/qaagent/internal/mcpserver"
	"github.com/frudas24/qaagent/internal/monitor"
	"github.com/frudas24/qaagent/internal/session"
	"github.com/frudas24/qaagent/internal/signaling"
	"github.com/frudas24/qaagent/internal/webrtc"
	"github.com/rs/zerolog"
)

// Deps are the host-specific collaborators chosen by the caller.
type Deps struct {
	Session *session.Session
	Sink    event.Sink
	// Activator may be nil for embedded targets.
	Activator gesture.Activator
	Screen    monitor.Monitor
	Monitors  []monitor.Monitor
	Policy    signaling.PeerPolicy
	Version   string
}

// App coordinates the command dispatcher, its transports and the HTTP API.
type App struct {
	mu         sync.Mutex
	cfg        config.Config
	deps       Deps
	log        zerolog.Logger
	session    *session.Session
	loop       *mainloop.Loop
	engine     *gesture.Engine
	elements   *element.Table
	journal    *journal.Store
	dispatcher *command.Dispatcher
	control    *control.Server
	host       *webrtc.Host
	signaling  *signaling.Server
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates a new application with its dependencies wired.
func New(cfg config.Config, deps Deps) (*App, error) {
	if deps.Session == nil {
		return nil, errors.New("session is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("event sink is required")
	}
	mode, err := gesture.ParseInputMode(cfg.InputMode, cfg.Embedded)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		deps:     deps,
		log:      logging.For("app"),
		session:  deps.Session,
		loop:     mainloop.New(0),
		elements: element.NewTable(),
	}
	a.session.SetMonitor(deps.Screen.Index)
	if cfg.ElementsPath != "" {
		if err := a.elements.Load(cfg.ElementsPath); err != nil {
			a.log.Warn().Err(err).Str("path", cfg.ElementsPath).Msg("element table not restored")
		}
	}

	if cfg.JournalEnabled {
		store, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		a.journal = store
	}

	a.engine = gesture.NewEngine(a.loop, deps.Sink, a.elements, gesture.Options{
		Mode:        mode,
		Embedded:    cfg.Embedded,
		Activator:   deps.Activator,
		SettleDelay: cfg.Settle,
		Origin:      deps.Screen.Origin(),
	})

	opts := command.Options{
		WaitTimeout: cfg.WaitTimeout,
		ClickTail:   cfg.ClickTail,
		MoveTail:    cfg.MoveTail,
		Clock:       a.engine.Clock(),
		Gate:        a.session,
	}
	if a.journal != nil {
		opts.Recorder = a.journal
	}
	a.dispatcher = command.New(a.engine, a.elements, opts)

	a.control = control.NewServer(a.session, a.dispatcher, a.authorized, control.Options{
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
	host, err := webrtc.NewHost(cfg.STUNURLs, a.dispatcher, nil)
	if err != nil {
		a.closeJournal()
		return nil, err
	}
	a.host = host
	a.signaling = signaling.NewServer(host, deps.Policy, a.authorized)
	return a, nil
}

// Start runs the main loop until Stop is called.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return fmt.Errorf("app already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		_ = a.loop.Run(ctx)
	}()
	a.log.Info().
		Str("mode", a.engine.Mode().String()).
		Bool("embedded", a.cfg.Embedded).
		Int("monitor", a.deps.Screen.Index).
		Bool("journal", a.journal != nil).
		Msg("agent started")
	return nil
}

// Stop cancels in-flight gestures, stops the loop and releases the sink and journal.
func (a *App) Stop() error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel = nil
	a.mu.Unlock()

	a.engine.Close()
	a.host.ClosePeer()
	if cancel != nil {
		cancel()
		<-done
	}
	var errs []error
	if c, ok := a.deps.Sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.closeJournal())
	return errors.Join(errs...)
}

func (a *App) closeJournal() error {
	if a.journal == nil {
		return nil
	}
	err := a.journal.Close()
	a.journal = nil
	return err
}

// saveElements persists the element table when a path is configured.
func (a *App) saveElements() {
	if a.cfg.ElementsPath == "" {
		return
	}
	if err := a.elements.Save(a.cfg.ElementsPath); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.ElementsPath).Msg("element table not saved")
	}
}

// Dispatcher returns the command dispatcher shared by every transport.
func (a *App) Dispatcher() *command.Dispatcher {
	return a.dispatcher
}

// Elements returns the element table.
func (a *App) Elements() *element.Table {
	return a.elements
}

// Signaling returns the signaling websocket handler.
func (a *App) Signaling() *signaling.Server {
	return a.signaling
}

// Control returns the control websocket handler.
func (a *App) Control() *control.Server {
	return a.control
}

// MCP returns an MCP tool server bound to the dispatcher and element table.
func (a *App) MCP() *mcpserver.Server {
	return mcpserver.New(a.deps.Version, a.dispatcher, persistedElements{a}, nil)
}

// ListMonitors returns the monitors known at startup.
func (a *App) ListMonitors() []monitor.Monitor {
	out := make([]monitor.Monitor, len(a.deps.Monitors))
	copy(out, a.deps.Monitors)
	return out
}

// persistedElements saves the table after every edit made through MCP.
type persistedElements struct {
	a *App
}

func (p persistedElements) Set(id string, r geom.Rect) error {
	if err := p.a.elements.Set(id, r); err != nil {
		return err
	}
	p.a.saveElements()
	return nil
}

func (p persistedElements) Remove(id string) bool {
	ok := p.a.elements.Remove(id)
	if ok {
		p.a.saveElements()
	}
	return ok
}

func (p persistedElements) Entries() []element.Entry {
	return p.a.elements.Entries()
}
