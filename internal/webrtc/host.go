package webrtc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/frudas24/qaagent/internal/command"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog"
)

// CommandLabel is the data channel label that carries command frames.
const CommandLabel = "qa"

// Dispatcher runs one raw command frame.
type Dispatcher interface {
	DispatchRaw(ctx context.Context, raw []byte) command.Reply
}

// Host manages the peer connection and its command data channel.
type Host struct {
	mu         sync.Mutex
	api        *webrtc.API
	config     webrtc.Configuration
	dispatcher Dispatcher
	log        zerolog.Logger
	peer       *webrtc.PeerConnection
	cancel     context.CancelFunc
}

// NewHost initializes the WebRTC API with default codecs and interceptors.
func NewHost(stunURLs []string, dispatcher Dispatcher, logger *zerolog.Logger) (*Host, error) {
	log := logging.For("webrtc")
	if logger != nil {
		log = *logger
	}

	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	settings := webrtc.SettingEngine{LoggerFactory: loggerFactory{log: log}}
	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
		webrtc.WithSettingEngine(settings),
	)

	cfg := webrtc.Configuration{}
	if len(stunURLs) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: stunURLs}}
	}
	return &Host{api: api, config: cfg, dispatcher: dispatcher, log: log}, nil
}

// NewPeer creates a new peer connection, closing any previous one. Data
// channels labelled CommandLabel opened by the remote side are dispatched.
func (h *Host) NewPeer() (*webrtc.PeerConnection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked()

	peer, err := h.api.NewPeerConnection(h.config)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	peer.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != CommandLabel {
			h.log.Warn().Str("label", dc.Label()).Msg("ignoring data channel")
			return
		}
		h.bindChannel(ctx, dc)
	})
	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		h.log.Info().Str("state", state.String()).Msg("peer state")
	})

	h.peer = peer
	h.cancel = cancel
	return peer, nil
}

// ClosePeer closes the current peer connection.
func (h *Host) ClosePeer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeLocked()
}

func (h *Host) closeLocked() {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.peer != nil {
		_ = h.peer.Close()
		h.peer = nil
	}
}

// bindChannel dispatches every text message on dc and sends the reply back.
func (h *Host) bindChannel(ctx context.Context, dc *webrtc.DataChannel) {
	var sendMu sync.Mutex
	dc.OnOpen(func() {
		h.log.Info().Str("label", dc.Label()).Msg("command channel open")
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !msg.IsString {
			return
		}
		frame := append([]byte(nil), msg.Data...)
		go func() {
			reply := h.dispatcher.DispatchRaw(ctx, frame)
			payload, err := json.Marshal(reply)
			if err != nil {
				h.log.Error().Err(err).Msg("encode reply")
				return
			}
			sendMu.Lock()
			defer sendMu.Unlock()
			if err := dc.SendText(string(payload)); err != nil {
				h.log.Debug().Err(err).Str("id", reply.ID).Msg("reply not delivered")
			}
		}()
	})
}
