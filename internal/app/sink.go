package app

import (
	"fmt"
	"strings"

	"github.com/frudas24/qaagent/internal/config"
	"github.com/frudas24/qaagent/internal/event"
	"github.com/frudas24/qaagent/internal/gesture"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/monitor"
	"github.com/frudas24/qaagent/internal/uinput"
	"github.com/frudas24/qaagent/internal/wininput"
)

// SelectScreen lists monitors and picks the configured one. When enumeration is
// unsupported it falls back to a single screen of the configured size.
func SelectScreen(cfg config.Config) (monitor.Monitor, []monitor.Monitor) {
	log := logging.For("monitor")
	list, err := monitor.ListMonitors()
	if err != nil || len(list) == 0 {
		log.Debug().Err(err).Int("w", cfg.ScreenWidth).Int("h", cfg.ScreenHeight).Msg("using configured screen size")
		list = monitor.Layout{monitor.Single(cfg.ScreenWidth, cfg.ScreenHeight)}
	}
	m, err := list.Select(cfg.MonitorIndex)
	if err != nil {
		log.Warn().Err(err).Int("index", cfg.MonitorIndex).Msg("monitor not found, using primary")
		m, _ = list.Primary()
	}
	d := list.Desktop()
	log.Debug().Int("count", len(list)).Float64("desktop_w", d.W).Float64("desktop_h", d.H).Msg("monitor layout")
	return m, list
}

// OpenSink builds the event sink named by cfg.Sink for the given screen.
func OpenSink(cfg config.Config, screen monitor.Monitor) (event.Sink, error) {
	switch strings.ToLower(cfg.Sink) {
	case "", "log":
		return event.NewLogSink(logging.For("sink")), nil
	case "windows":
		s, err := wininput.NewSink(screen.Origin(), logging.For("wininput"))
		if err != nil {
			return nil, fmt.Errorf("windows sink: %w", err)
		}
		return s, nil
	case "uinput":
		s, err := uinput.NewSink(screen.Origin(), screen.W, screen.H, logging.For("uinput"))
		if err != nil {
			return nil, fmt.Errorf("uinput sink: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

// OpenActivator returns the window activator for a non-embedded target with a
// window title. It returns nil when no activation is needed.
func OpenActivator(cfg config.Config) (gesture.Activator, error) {
	if cfg.Embedded || strings.TrimSpace(cfg.WindowTitle) == "" {
		return nil, nil
	}
	a, err := wininput.NewActivator(cfg.WindowTitle)
	if err != nil {
		return nil, fmt.Errorf("window activator: %w", err)
	}
	return a, nil
}
