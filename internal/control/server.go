package control

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/frudas24/qaagent/internal/command"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Dispatcher runs one raw command frame.
type Dispatcher interface {
	DispatchRaw(ctx context.Context, raw []byte) command.Reply
}

// Authorizer decides whether a request may open the control socket.
type Authorizer func(r *http.Request) bool

// Options tunes a Server.
type Options struct {
	RateLimit float64
	RateBurst int
	Logger    *zerolog.Logger
}

// Server handles the control websocket. One driver connection is active at a time.
type Server struct {
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	session    *session.Session
	dispatcher Dispatcher
	authorize  Authorizer
	opts       Options
	log        zerolog.Logger
	conn       *websocket.Conn
}

// NewServer creates a control websocket server.
func NewServer(sess *session.Session, dispatcher Dispatcher, authorize Authorizer, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 40
	}
	log := logging.For("control")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Server{
		session:    sess,
		dispatcher: dispatcher,
		authorize:  authorize,
		opts:       opts,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and dispatches command frames.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.authorize != nil && !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := uuid.NewString()
	log := s.log.With().Str("conn", id).Logger()
	if err := s.acceptConn(id, conn); err != nil {
		log.Warn().Err(err).Msg("control connection refused")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		_ = conn.Close()
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Msg("control driver connected")

	ctx, cancel := context.WithCancel(r.Context())
	var inflight sync.WaitGroup
	defer func() {
		cancel()
		inflight.Wait()
		s.cleanupConn(id, conn)
		log.Info().Msg("control driver disconnected")
	}()

	out := &writer{conn: conn}
	limiter := rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.RateBurst)
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if msg, ok := controlFrame(raw); ok {
			if err := out.send(s.handleControl(msg)); err != nil {
				return
			}
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		inflight.Add(1)
		go func(frame []byte) {
			defer inflight.Done()
			reply := s.dispatcher.DispatchRaw(ctx, frame)
			if err := out.send(reply); err != nil {
				log.Debug().Err(err).Str("id", reply.ID).Msg("reply not delivered")
			}
		}(raw)
	}
}

// handleControl applies a session control frame.
func (s *Server) handleControl(msg Message) Ack {
	if msg.T == FrameInputEnabled && msg.Enabled != nil {
		s.session.SetInputEnabled(*msg.Enabled)
		s.log.Info().Bool("enabled", *msg.Enabled).Msg("input toggled")
	}
	return Ack{T: msg.T, ID: msg.ID, InputEnabled: s.session.InputEnabled()}
}

// acceptConn ensures only one active control connection exists.
func (s *Server) acceptConn(id string, conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil || !s.session.ClaimDriver(id) {
		return fmt.Errorf("control connection already active")
	}
	s.conn = conn
	return nil
}

// cleanupConn clears the active connection when closed.
func (s *Server) cleanupConn(id string, conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	s.session.ReleaseDriver(id)
	_ = conn.Close()
}

// writer serializes replies; gorilla connections allow one concurrent writer.
type writer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *writer) send(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}
