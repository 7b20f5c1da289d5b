// Package config loads runtime configuration for the QA agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr   = "127.0.0.1:8787"
	defaultDataDir      = "./data"
	defaultConfigFile   = "qaagent.yaml"
	defaultInputMode    = "auto"
	defaultSink         = "log"
	defaultMonitorIdx   = 0
	defaultScreenWidth  = 1920
	defaultScreenHeight = 1080
	defaultSettle       = 100 * time.Millisecond
	defaultWaitTimeout  = 60 * time.Second
	defaultClickTail    = 50 * time.Millisecond
	defaultMoveTail     = 800 * time.Millisecond
	defaultRateLimit    = 20.0
	defaultRateBurst    = 40
	defaultJournal      = true
	defaultLogLevel     = "info"
)

// ErrAuthRequired reports a network listener configured without a token.
var ErrAuthRequired = errors.New("AUTH_TOKEN is required")

// Config holds runtime configuration values.
type Config struct {
	ListenAddr     string
	DataDir        string
	AuthToken      string
	InputMode      string
	Embedded       bool
	Sink           string
	WindowTitle    string
	MonitorIndex   int
	ScreenWidth    int
	ScreenHeight   int
	Settle         time.Duration
	WaitTimeout    time.Duration
	ClickTail      time.Duration
	MoveTail       time.Duration
	RateLimit      float64
	RateBurst      int
	JournalEnabled bool
	JournalPath    string
	ElementsPath   string
	LogLevel       string
	LogFile        string
	STUNURLs       []string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:     defaultListenAddr,
		DataDir:        defaultDataDir,
		InputMode:      defaultInputMode,
		Sink:           defaultSink,
		MonitorIndex:   defaultMonitorIdx,
		ScreenWidth:    defaultScreenWidth,
		ScreenHeight:   defaultScreenHeight,
		Settle:         defaultSettle,
		WaitTimeout:    defaultWaitTimeout,
		ClickTail:      defaultClickTail,
		MoveTail:       defaultMoveTail,
		RateLimit:      defaultRateLimit,
		RateBurst:      defaultRateBurst,
		JournalEnabled: defaultJournal,
		LogLevel:       defaultLogLevel,
	}
}

// Load reads configuration from the defaults, an optional YAML file, ./data/.env
// and environment variables, in increasing precedence. An empty path selects
// <DATA_DIR>/qaagent.yaml, which may be absent.
func Load(path string) (Config, error) {
	cfg := Defaults()
	dataDir := envString("DATA_DIR", cfg.DataDir)

	if err := loadEnvFile(filepath.Join(dataDir, ".env")); err != nil {
		return Config{}, err
	}
	dataDir = envString("DATA_DIR", cfg.DataDir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dataDir, defaultConfigFile)
	}
	if err := loadYAML(path, explicit, &cfg); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.ElementsPath == "" {
		cfg.ElementsPath = filepath.Join(cfg.DataDir, "elements.json")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireAuth fails when the configuration would serve without a token.
func (c Config) RequireAuth() error {
	if strings.TrimSpace(c.AuthToken) == "" {
		return ErrAuthRequired
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.AuthToken = envString("AUTH_TOKEN", cfg.AuthToken)
	cfg.InputMode = strings.ToLower(envString("INPUT_MODE", cfg.InputMode))
	cfg.Embedded = envBool("EMBEDDED", cfg.Embedded)
	cfg.Sink = strings.ToLower(envString("SINK", cfg.Sink))
	cfg.WindowTitle = envString("WINDOW_TITLE", cfg.WindowTitle)
	cfg.JournalEnabled = envBool("JOURNAL_ENABLED", cfg.JournalEnabled)
	cfg.JournalPath = envString("JOURNAL_PATH", cfg.JournalPath)
	cfg.ElementsPath = envString("ELEMENTS_PATH", cfg.ElementsPath)
	cfg.LogLevel = strings.ToLower(envString("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFile = envString("LOG_FILE", cfg.LogFile)
	if raw := envString("STUN_URLS", ""); raw != "" {
		cfg.STUNURLs = splitList(raw)
	}

	var err error
	if cfg.MonitorIndex, err = envInt("MONITOR_INDEX", cfg.MonitorIndex); err != nil {
		return err
	}
	if cfg.ScreenWidth, err = envInt("SCREEN_W", cfg.ScreenWidth); err != nil {
		return err
	}
	if cfg.ScreenHeight, err = envInt("SCREEN_H", cfg.ScreenHeight); err != nil {
		return err
	}
	if cfg.RateBurst, err = envInt("RATE_BURST", cfg.RateBurst); err != nil {
		return err
	}
	if cfg.RateLimit, err = envFloat("RATE_LIMIT", cfg.RateLimit); err != nil {
		return err
	}
	if cfg.Settle, err = envMillis("SETTLE_MS", cfg.Settle); err != nil {
		return err
	}
	if cfg.WaitTimeout, err = envMillis("WAIT_TIMEOUT_MS", cfg.WaitTimeout); err != nil {
		return err
	}
	if cfg.ClickTail, err = envMillis("CLICK_TAIL_MS", cfg.ClickTail); err != nil {
		return err
	}
	if cfg.MoveTail, err = envMillis("MOVE_TAIL_MS", cfg.MoveTail); err != nil {
		return err
	}
	return nil
}

func (c Config) validate() error {
	switch c.InputMode {
	case "auto", "pointer", "mouse", "touch":
	default:
		return fmt.Errorf("INPUT_MODE must be auto, pointer or touch, got %q", c.InputMode)
	}
	switch c.Sink {
	case "log", "windows", "uinput":
	default:
		return fmt.Errorf("SINK must be log, windows or uinput, got %q", c.Sink)
	}
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return fmt.Errorf("SCREEN_W and SCREEN_H must be > 0")
	}
	if c.Settle < 0 || c.ClickTail < 0 || c.MoveTail < 0 {
		return fmt.Errorf("SETTLE_MS, CLICK_TAIL_MS and MOVE_TAIL_MS must be >= 0")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("WAIT_TIMEOUT_MS must be > 0")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_BURST must be > 0")
	}
	return nil
}

// loadYAML overlays a YAML file onto cfg. A missing file is only an error when
// it was named explicitly.
func loadYAML(path string, explicit bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	file.apply(cfg)
	return nil
}

// fileConfig mirrors Config with durations in milliseconds and optional fields.
type fileConfig struct {
	ListenAddr     *string  `yaml:"listen_addr"`
	DataDir        *string  `yaml:"data_dir"`
	AuthToken      *string  `yaml:"auth_token"`
	InputMode      *string  `yaml:"input_mode"`
	Embedded       *bool    `yaml:"embedded"`
	Sink           *string  `yaml:"sink"`
	WindowTitle    *string  `yaml:"window_title"`
	MonitorIndex   *int     `yaml:"monitor_index"`
	ScreenWidth    *int     `yaml:"screen_width"`
	ScreenHeight   *int     `yaml:"screen_height"`
	SettleMs       *int     `yaml:"settle_ms"`
	WaitTimeoutMs  *int     `yaml:"wait_timeout_ms"`
	ClickTailMs    *int     `yaml:"click_tail_ms"`
	MoveTailMs     *int     `yaml:"move_tail_ms"`
	RateLimit      *float64 `yaml:"rate_limit"`
	RateBurst      *int     `yaml:"rate_burst"`
	JournalEnabled *bool    `yaml:"journal_enabled"`
	JournalPath    *string  `yaml:"journal_path"`
	ElementsPath   *string  `yaml:"elements_path"`
	LogLevel       *string  `yaml:"log_level"`
	LogFile        *string  `yaml:"log_file"`
	STUNURLs       []string `yaml:"stun_urls"`
}

func (f fileConfig) apply(cfg *Config) {
	setString(&cfg.ListenAddr, f.ListenAddr)
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.AuthToken, f.AuthToken)
	setString(&cfg.InputMode, f.InputMode)
	setString(&cfg.Sink, f.Sink)
	setString(&cfg.WindowTitle, f.WindowTitle)
	setString(&cfg.JournalPath, f.JournalPath)
	setString(&cfg.ElementsPath, f.ElementsPath)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.LogFile, f.LogFile)
	if f.Embedded != nil {
		cfg.Embedded = *f.Embedded
	}
	if f.JournalEnabled != nil {
		cfg.JournalEnabled = *f.JournalEnabled
	}
	if f.MonitorIndex != nil {
		cfg.MonitorIndex = *f.MonitorIndex
	}
	if f.ScreenWidth != nil {
		cfg.ScreenWidth = *f.ScreenWidth
	}
	if f.ScreenHeight != nil {
		cfg.ScreenHeight = *f.ScreenHeight
	}
	if f.RateLimit != nil {
		cfg.RateLimit = *f.RateLimit
	}
	if f.RateBurst != nil {
		cfg.RateBurst = *f.RateBurst
	}
	setMillis(&cfg.Settle, f.SettleMs)
	setMillis(&cfg.WaitTimeout, f.WaitTimeoutMs)
	setMillis(&cfg.ClickTail, f.ClickTailMs)
	setMillis(&cfg.MoveTail, f.MoveTailMs)
	if len(f.STUNURLs) > 0 {
		cfg.STUNURLs = f.STUNURLs
	}
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setMillis(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// envMillis returns a millisecond env override as a duration.
func envMillis(key string, def time.Duration) (time.Duration, error) {
	ms, err := envInt(key, int(def/time.Millisecond))
	if err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file without overriding the
// process environment.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
