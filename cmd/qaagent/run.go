package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/frudas24/qaagent/internal/app"
	"github.com/frudas24/qaagent/internal/config"
	"github.com/frudas24/qaagent/internal/logging"
	"github.com/frudas24/qaagent/internal/session"
	"github.com/frudas24/qaagent/internal/signaling"
	"github.com/frudas24/qaagent/internal/webrtc"
	"github.com/spf13/cobra"
)

// runServe wires the application and blocks until shutdown.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if err := cfg.RequireAuth(); err != nil {
		return err
	}
	log := logging.For("main")
	logStartup(cfg)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer func() {
		if err := a.Stop(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	mux := http.NewServeMux()
	a.RegisterRoutes(mux)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runMCP serves the gesture tools on stdin/stdout. Logs go to stderr.
func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer func() { _ = a.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = a.MCP().Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// loadConfig reads configuration and initializes logging on console.
func loadConfig(console io.Writer) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	if err := logging.Init(logging.Options{Level: level, Console: console, File: cfg.LogFile}); err != nil {
		return config.Config{}, err
	}
	webrtc.SetDebugLogging(debug)
	return cfg, nil
}

// newApp selects the screen, sink and activator, then builds the application.
func newApp(cfg config.Config) (*app.App, error) {
	screen, monitors := app.SelectScreen(cfg)
	sink, err := app.OpenSink(cfg, screen)
	if err != nil {
		return nil, err
	}
	activator, err := app.OpenActivator(cfg)
	if err != nil {
		log := logging.For("main")
		log.Warn().Err(err).Msg("window activation disabled")
		activator = nil
	}
	a, err := app.New(cfg, app.Deps{
		Session:   session.New(cfg.AuthToken),
		Sink:      sink,
		Activator: activator,
		Screen:    screen,
		Monitors:  monitors,
		Policy:    signaling.PeerReplace,
		Version:   version,
	})
	if err != nil {
		if c, ok := sink.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return a, nil
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Config) {
	log := logging.For("main")
	log.Info().Str("version", version).Msg("qaagent starting")

	envPath := filepath.Join(cfg.DataDir, ".env")
	if fileExists(envPath) {
		log.Info().Str("path", envPath).Msg("env check: ok")
	} else {
		log.Info().Str("path", envPath).Msg("env check: missing")
	}
	log.Info().
		Str("sink", cfg.Sink).
		Str("input_mode", cfg.InputMode).
		Bool("embedded", cfg.Embedded).
		Bool("journal", cfg.JournalEnabled).
		Msg("input config")
	logListenStatus(cfg.ListenAddr)
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(addr string) {
	log := logging.For("main")
	log.Info().Str("addr", addr).Msg("listen addr")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Info().Str("url", "ws://"+net.JoinHostPort(host, port)+"/ws/control").Msg("control endpoint")
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
