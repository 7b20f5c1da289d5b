package signaling

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
)

type countingPeers struct {
	made chan struct{}
}

func (c *countingPeers) NewPeer() (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err == nil {
		c.made <- struct{}{}
	}
	return pc, err
}

func startServer(t *testing.T, policy PeerPolicy, auth func(*http.Request) bool) (*Server, *countingPeers, string) {
	t.Helper()
	peers := &countingPeers{made: make(chan struct{}, 4)}
	srv := NewServer(peers, policy, auth)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, peers, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// TestServer_Unauthorized verifies the upgrade is refused when auth fails.
func TestServer_Unauthorized(t *testing.T) {
	_, _, url := startServer(t, PeerReject, func(*http.Request) bool { return false })
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp=%v", resp)
	}
}

// TestServer_Hello verifies a driver is greeted with its id.
func TestServer_Hello(t *testing.T) {
	srv, _, url := startServer(t, PeerReject, nil)
	conn := dial(t, url)
	msg := readMessage(t, conn)
	if msg.T != MsgHello || msg.Driver == "" {
		t.Fatalf("msg=%+v", msg)
	}
	if !srv.Connected() {
		t.Fatalf("expected connected driver")
	}
}

// TestServer_RejectSecond verifies PeerReject closes a second driver with a policy frame.
func TestServer_RejectSecond(t *testing.T) {
	_, _, url := startServer(t, PeerReject, nil)
	first := dial(t, url)
	readMessage(t, first)

	second := dial(t, url)
	_ = second.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := second.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

// TestServer_ReplaceEvictsFirst verifies PeerReplace hands the slot to the newcomer.
func TestServer_ReplaceEvictsFirst(t *testing.T) {
	_, _, url := startServer(t, PeerReplace, nil)
	first := dial(t, url)
	hello1 := readMessage(t, first)

	second := dial(t, url)
	hello2 := readMessage(t, second)
	if hello1.Driver == hello2.Driver {
		t.Fatalf("driver ids should differ")
	}
	_ = first.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := first.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected first driver evicted, got %v", err)
	}
}

// TestServer_EmptyOffer verifies a bad offer is answered with an error frame.
func TestServer_EmptyOffer(t *testing.T) {
	_, peers, url := startServer(t, PeerReplace, nil)
	conn := dial(t, url)
	<-peers.made
	readMessage(t, conn)
	if err := conn.WriteJSON(Message{T: MsgOffer}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.T != MsgError || msg.Error != "empty offer" {
		t.Fatalf("msg=%+v", msg)
	}
}

// TestServer_ByeReleasesSlot verifies a bye frame frees the slot for the next driver.
func TestServer_ByeReleasesSlot(t *testing.T) {
	srv, _, url := startServer(t, PeerReject, nil)
	conn := dial(t, url)
	readMessage(t, conn)
	if err := conn.WriteJSON(Message{T: MsgBye}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for srv.Connected() {
		if time.Now().After(deadline) {
			t.Fatalf("slot not released")
		}
		time.Sleep(10 * time.Millisecond)
	}
	next := dial(t, url)
	if msg := readMessage(t, next); msg.T != MsgHello {
		t.Fatalf("msg=%+v", msg)
	}
}
