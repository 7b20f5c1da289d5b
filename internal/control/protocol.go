// Package control serves the command websocket used by the remote driver.
package control

import "github.com/tidwall/gjson"

// Session control frames. Every other frame is a command for the dispatcher.
const (
	FrameInputEnabled = "inputEnabled"
	FramePing         = "ping"
)

// Message is a session control payload.
type Message struct {
	T       string `json:"t"`
	ID      string `json:"id,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Ack answers a session control frame.
type Ack struct {
	T            string `json:"t"`
	ID           string `json:"id,omitempty"`
	InputEnabled bool   `json:"inputEnabled"`
}

// controlFrame reports whether raw is a session control frame and decodes it.
func controlFrame(raw []byte) (Message, bool) {
	r := gjson.ParseBytes(raw)
	t := r.Get("t").String()
	if t != FrameInputEnabled && t != FramePing {
		return Message{}, false
	}
	msg := Message{T: t, ID: r.Get("id").String()}
	if enabled := r.Get("enabled"); enabled.IsBool() {
		v := enabled.Bool()
		msg.Enabled = &v
	}
	return msg, true
}
