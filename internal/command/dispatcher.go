package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/frudas24/qaagent/internal/action"
	"github.com/frudas24/qaagent/internal/clock"
	"github.com/frudas24/qaagent/internal/gesture"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/pending"
	"github.com/frudas24/qaagent/internal/sequencer"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Dispatcher defaults.
const (
	DefaultWaitTimeout = 60 * time.Second
	DefaultClickTail   = 50 * time.Millisecond
	DefaultMoveTail    = 800 * time.Millisecond
	AppPressAndHold    = 1500 * time.Millisecond
)

// Gestures is the engine surface the dispatcher drives.
type Gestures interface {
	Click(at action.Target) *pending.Operation
	PressAndHold(at action.Target, hold time.Duration) *pending.Operation
	Drag(from, to action.Target, t gesture.Timing) *pending.Operation
	Move(from, to action.Target, t gesture.Timing) *pending.Operation
	PerformTouchAction(list action.List) *pending.Operation
	PerformMultiAction(lists []action.List) *pending.Operation
	PerformChainActions(chain action.Chain) *pending.Operation
	PressEnter() *pending.Operation
}

// InputGate reports whether gesture commands are currently allowed.
type InputGate interface {
	InputEnabled() bool
}

// Entry is one dispatched command as seen by a Recorder.
type Entry struct {
	RequestID string
	Command   string
	Params    string
	Status    Status
	Err       string
	Duration  time.Duration
	At        time.Time
}

// Recorder persists dispatched commands.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Request is the decoded form of a command frame.
type Request struct {
	ID     string
	Name   string
	Params gjson.Result
}

// Reply is sent back for every request.
type Reply struct {
	ID     string `json:"id,omitempty"`
	Status Status `json:"status"`
	Value  any    `json:"value"`
}

// Handler runs one command.
type Handler func(ctx context.Context, params gjson.Result) (any, error)

// Options configures a Dispatcher. Zero durations take the defaults.
type Options struct {
	WaitTimeout time.Duration
	ClickTail   time.Duration
	MoveTail    time.Duration
	// Clock paces the settle tails; defaults to a monotonic clock.
	Clock    clock.Clock
	Gate     InputGate
	Recorder Recorder
	Logger   *zerolog.Logger
}

// Dispatcher resolves command names through an explicit table.
type Dispatcher struct {
	engine   Gestures
	resolver sequencer.Resolver
	opts     Options
	log      zerolog.Logger
	handlers map[string]Handler
	app      map[string]Handler
}

// New returns a dispatcher bound to engine. resolver checks element ids for click.
func New(engine Gestures, resolver sequencer.Resolver, opts Options) *Dispatcher {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if opts.ClickTail <= 0 {
		opts.ClickTail = DefaultClickTail
	}
	if opts.MoveTail <= 0 {
		opts.MoveTail = DefaultMoveTail
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewMonotonic()
	}
	log := logging.For("command")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	d := &Dispatcher{engine: engine, resolver: resolver, opts: opts, log: log}
	d.handlers = map[string]Handler{
		"click":              d.click,
		"performTouch":       d.performTouch,
		"performMultiAction": d.performMultiAction,
		"performActions":     d.performActions,
		"submit":             d.pressEnter,
		"pressEnter":         d.pressEnter,
		"executeCommand":     d.executeCommand,
		"executeAsync":       d.executeCommand,
	}
	d.app = map[string]Handler{
		"app:click":        d.appClick,
		"app:pressAndHold": d.appPressAndHold,
		"app:move":         d.appMove,
		"app:drag":         d.appDrag,
	}
	return d
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Decode parses a command frame: {"id":..,"cmd":"action","action":name,"params":[...]}.
// A frame whose cmd is not "action" names the command directly.
func Decode(raw []byte) (Request, error) {
	if !gjson.ValidBytes(raw) {
		return Request{}, fmt.Errorf("%w: invalid json", ErrBadParams)
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return Request{}, fmt.Errorf("%w: frame must be an object", ErrBadParams)
	}
	req := Request{ID: r.Get("id").String(), Params: r.Get("params")}
	cmd := r.Get("cmd").String()
	if cmd == "action" || cmd == "" {
		req.Name = r.Get("action").String()
	} else {
		req.Name = cmd
	}
	if req.Name == "" {
		return req, fmt.Errorf("%w: missing command name", ErrBadParams)
	}
	return req, nil
}

// DispatchRaw decodes and runs one frame.
func (d *Dispatcher) DispatchRaw(ctx context.Context, raw []byte) Reply {
	req, err := Decode(raw)
	if err != nil {
		return Reply{ID: req.ID, Status: StatusFor(err), Value: err.Error()}
	}
	return d.Dispatch(ctx, req)
}

// Dispatch runs one request and records it when a Recorder is configured.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	start := time.Now()
	value, err := d.run(ctx, req)
	status := StatusFor(err)
	reply := Reply{ID: req.ID, Status: status, Value: value}
	if err != nil {
		reply.Value = err.Error()
		d.log.Warn().Err(err).Str("cmd", req.Name).Int("status", int(status)).Msg("command failed")
	} else {
		d.log.Debug().Str("cmd", req.Name).Dur("took", time.Since(start)).Msg("command done")
	}
	if d.opts.Recorder != nil {
		entry := Entry{
			RequestID: req.ID,
			Command:   req.Name,
			Params:    req.Params.Raw,
			Status:    status,
			Duration:  time.Since(start),
			At:        start,
		}
		if err != nil {
			entry.Err = err.Error()
		}
		if rerr := d.opts.Recorder.Record(ctx, entry); rerr != nil {
			d.log.Warn().Err(rerr).Msg("journal write failed")
		}
	}
	return reply
}

func (d *Dispatcher) run(ctx context.Context, req Request) (any, error) {
	h, ok := d.handlers[req.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, req.Name)
	}
	if d.opts.Gate != nil && !d.opts.Gate.InputEnabled() {
		return nil, ErrInputDisabled
	}
	return h(ctx, req.Params)
}

// await blocks on op with the safety timeout, then observes the settle tail.
func (d *Dispatcher) await(ctx context.Context, op *pending.Operation, tail time.Duration) error {
	if err := op.Wait(ctx, d.opts.WaitTimeout); err != nil {
		return err
	}
	if tail > 0 {
		return d.opts.Clock.Sleep(ctx, tail)
	}
	return nil
}
