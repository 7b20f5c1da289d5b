package signaling

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/frudas24/qaagent/internal/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog"
)

// PeerPolicy decides what happens when a second driver connects.
type PeerPolicy int

const (
	// PeerReject refuses the newcomer while a driver is connected.
	PeerReject PeerPolicy = iota
	// PeerReplace evicts the connected driver in favor of the newcomer.
	PeerReplace
)

// String names the policy for logs.
func (p PeerPolicy) String() string {
	if p == PeerReplace {
		return "replace"
	}
	return "reject"
}

// PeerFactory creates the peer connection for a signaling session.
type PeerFactory interface {
	NewPeer() (*webrtc.PeerConnection, error)
}

const closeGrace = time.Second

var errDriverBusy = errors.New("driver already connected")

// driver is one signaling websocket and the peer negotiated over it.
type driver struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
	peer    *webrtc.PeerConnection
	log     zerolog.Logger
}

func (d *driver) send(msg Message) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.ws.WriteJSON(msg)
}

// kick closes the socket with a policy-violation frame.
func (d *driver) kick(reason string) {
	frame := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	d.writeMu.Lock()
	_ = d.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(closeGrace))
	d.writeMu.Unlock()
	_ = d.ws.Close()
}

// Server negotiates the data-channel peer for one remote driver at a time.
type Server struct {
	upgrader websocket.Upgrader
	peers    PeerFactory
	policy   PeerPolicy
	authFn   func(*http.Request) bool
	log      zerolog.Logger

	mu     sync.Mutex
	active *driver
}

// NewServer creates a signaling server. A nil authFn admits every request.
func NewServer(peers PeerFactory, policy PeerPolicy, authFn func(*http.Request) bool) *Server {
	return &Server{
		peers:  peers,
		policy: policy,
		authFn: authFn,
		log:    logging.For("signaling"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Connected reports whether a driver currently holds the signaling slot.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// ServeHTTP upgrades the request and runs the offer/answer exchange.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.authFn != nil && !s.authFn(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	d := &driver{id: uuid.NewString(), ws: ws}
	d.log = s.log.With().Str("driver", d.id).Str("remote", r.RemoteAddr).Logger()

	if err := s.claim(d); err != nil {
		d.log.Info().Err(err).Str("policy", s.policy.String()).Msg("driver refused")
		d.kick(err.Error())
		return
	}
	defer s.release(d)

	if err := s.openPeer(d); err != nil {
		d.log.Error().Err(err).Msg("create peer")
		return
	}
	if err := d.send(Message{T: MsgHello, Driver: d.id}); err != nil {
		return
	}
	d.log.Info().Msg("driver connected")
	s.readLoop(d)
}

// claim takes the single driver slot according to the policy.
func (s *Server) claim(d *driver) error {
	s.mu.Lock()
	prev := s.active
	if prev != nil && s.policy != PeerReplace {
		s.mu.Unlock()
		return errDriverBusy
	}
	s.active = d
	s.mu.Unlock()

	if prev != nil {
		prev.log.Info().Str("by", d.id).Msg("driver replaced")
		prev.kick("replaced by another driver")
	}
	return nil
}

// release frees the slot if d still holds it and tears down its peer.
func (s *Server) release(d *driver) {
	s.mu.Lock()
	if s.active == d {
		s.active = nil
	}
	peer := d.peer
	d.peer = nil
	s.mu.Unlock()

	if peer != nil {
		_ = peer.Close()
	}
	_ = d.ws.Close()
	d.log.Info().Msg("driver disconnected")
}

// openPeer creates the peer for d and forwards local ICE candidates to it.
func (s *Server) openPeer(d *driver) error {
	peer, err := s.peers.NewPeer()
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.active != d {
		s.mu.Unlock()
		_ = peer.Close()
		return errors.New("driver evicted before peer creation")
	}
	d.peer = peer
	s.mu.Unlock()

	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		if err := d.send(Message{T: MsgICE, Candidate: &init}); err != nil {
			d.log.Debug().Err(err).Msg("local candidate dropped")
		}
	})
	return nil
}

func (s *Server) readLoop(d *driver) {
	for {
		_, raw, err := d.ws.ReadMessage()
		if err != nil {
			return
		}
		msg, err := ParseMessage(raw)
		if err == nil {
			if msg.T == MsgBye {
				return
			}
			err = s.handle(d, msg)
		}
		if err != nil {
			d.log.Warn().Err(err).Str("t", msg.T).Msg("signaling frame failed")
			_ = d.send(Message{T: MsgError, Error: err.Error()})
			return
		}
	}
}

func (s *Server) handle(d *driver, msg Message) error {
	switch msg.T {
	case MsgOffer:
		return answer(d, msg.SDP)
	case MsgICE:
		if msg.Candidate == nil {
			return nil
		}
		return d.peer.AddICECandidate(*msg.Candidate)
	default:
		d.log.Debug().Str("t", msg.T).Msg("ignored frame")
		return nil
	}
}

// answer applies a remote offer and replies once local gathering completes.
func answer(d *driver, sdp string) error {
	if sdp == "" {
		return errors.New("empty offer")
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := d.peer.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("remote description: %w", err)
	}
	local, err := d.peer.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(d.peer)
	if err := d.peer.SetLocalDescription(local); err != nil {
		return fmt.Errorf("local description: %w", err)
	}
	<-gathered
	desc := d.peer.LocalDescription()
	if desc == nil {
		return errors.New("missing local description")
	}
	return d.send(Message{T: MsgAnswer, SDP: desc.SDP})
}
