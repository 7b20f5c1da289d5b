// Package signaling exchanges WebRTC offers, answers and ICE candidates over a websocket.
package signaling

import (
	"errors"

	"github.com/pion/webrtc/v3"
	"github.com/tidwall/gjson"
)

// Frame kinds carried in the "t" field.
const (
	MsgHello  = "hello"
	MsgOffer  = "offer"
	MsgAnswer = "answer"
	MsgICE    = "ice"
	MsgBye    = "bye"
	MsgError  = "error"
)

var errNoKind = errors.New(`frame has no "t" field`)

// Message is one signaling frame.
type Message struct {
	T         string                   `json:"t"`
	Driver    string                   `json:"driver,omitempty"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// ParseMessage decodes a raw frame. Unknown fields are ignored and a candidate
// is only materialized when the frame carries one.
func ParseMessage(raw []byte) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return Message{}, errors.New("frame is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	kind := root.Get("t")
	if kind.Type != gjson.String || kind.Str == "" {
		return Message{}, errNoKind
	}
	msg := Message{
		T:   kind.Str,
		SDP: root.Get("sdp").String(),
	}
	if c := root.Get("candidate"); c.IsObject() {
		init := webrtc.ICECandidateInit{Candidate: c.Get("candidate").String()}
		if mid := c.Get("sdpMid"); mid.Exists() && mid.Type != gjson.Null {
			s := mid.String()
			init.SDPMid = &s
		}
		if idx := c.Get("sdpMLineIndex"); idx.Exists() && idx.Type != gjson.Null {
			n := uint16(idx.Uint())
			init.SDPMLineIndex = &n
		}
		if frag := c.Get("usernameFragment"); frag.Exists() && frag.Type != gjson.Null {
			s := frag.String()
			init.UsernameFragment = &s
		}
		msg.Candidate = &init
	}
	return msg, nil
}
