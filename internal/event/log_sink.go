package event

import "github.com/rs/zerolog"

// LogSink writes every event to a logger instead of a host toolkit.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink returns a sink that logs at info level through log.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// EmitTouch logs a touch batch.
func (s *LogSink) EmitTouch(ev TouchEvent) error {
	arr := zerolog.Arr()
	for _, p := range ev.Points {
		arr.Dict(zerolog.Dict().
			Int("id", p.ID).
			Str("state", p.State.String()).
			Float64("x", p.Pos.X).
			Float64("y", p.Pos.Y))
	}
	s.log.Info().
		Str("event", "touch").
		Str("type", ev.Type.String()).
		Array("points", arr).
		Str("mods", ev.Modifiers.String()).
		Uint64("ts", ev.Timestamp).
		Msg("emit")
	return nil
}

// EmitMouse logs a mouse event.
func (s *LogSink) EmitMouse(ev MouseEvent) error {
	s.log.Info().
		Str("event", "mouse").
		Str("type", ev.Type.String()).
		Float64("x", ev.Pos.X).
		Float64("y", ev.Pos.Y).
		Uint8("button", uint8(ev.Button)).
		Uint8("buttons", uint8(ev.Buttons)).
		Str("mods", ev.Modifiers.String()).
		Uint64("ts", ev.Timestamp).
		Msg("emit")
	return nil
}

// EmitKey logs a key event.
func (s *LogSink) EmitKey(ev KeyEvent) error {
	s.log.Info().
		Str("event", "key").
		Str("type", ev.Type.String()).
		Int("key", int(ev.Key)).
		Str("text", ev.Text).
		Str("mods", ev.Modifiers.String()).
		Uint64("ts", ev.Timestamp).
		Msg("emit")
	return nil
}
