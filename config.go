// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables read by [LoadConfig].
const (
	EnvConfig       = "GUESTD_CONFIG"
	EnvCodec        = "GUESTD_CODEC"
	EnvMode         = "GUESTD_MODE"
	EnvLogLevel     = "GUESTD_LOG_LEVEL"
	EnvLogTimestamp = "GUESTD_LOG_TIMESTAMP"
	EnvLogNoColor   = "GUESTD_LOG_NOCOLOR"
	EnvLogFormat    = "GUESTD_LOG_FORMAT"
)

// DefaultLang identifies this runtime in the connect message.
const DefaultLang = "Go"

// Config is the daemon configuration.
type Config struct {
	Lang          string
	Host          string
	Codec         string
	Mode          Mode
	BusyPolicy    BusyPolicy
	QueueLimit    int
	DialTimeout   time.Duration
	MaxFrameBytes int
	ScriptDir     string
	EntrySymbol   string
	Plugins       bool
	Log           LogConfig
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Lang:          DefaultLang,
		Host:          "127.0.0.1",
		Codec:         FormatJSON,
		Mode:          ModeCoroutine,
		BusyPolicy:    BusyReject,
		QueueLimit:    DefaultQueueLimit,
		DialTimeout:   DefaultDialTimeout,
		MaxFrameBytes: DefaultMaxFrameBytes,
		EntrySymbol:   DefaultEntrySymbol,
		Plugins:       true,
		Log:           DefaultLogConfig(),
	}
}

type fileConfig struct {
	Lang          string        `toml:"lang"`
	Host          string        `toml:"host"`
	Codec         string        `toml:"codec"`
	Mode          string        `toml:"mode"`
	BusyPolicy    string        `toml:"busy_policy"`
	QueueLimit    int           `toml:"queue_limit"`
	DialTimeout   string        `toml:"dial_timeout"`
	MaxFrameBytes int           `toml:"max_frame_bytes"`
	ScriptDir     string        `toml:"script_dir"`
	EntrySymbol   string        `toml:"entry_symbol"`
	Plugins       bool          `toml:"plugins"`
	Log           fileLogConfig `toml:"log"`
}

type fileLogConfig struct {
	Level     string `toml:"level"`
	Timestamp bool   `toml:"timestamp"`
	NoColor   bool   `toml:"no_color"`
	Format    string `toml:"format"`
}

// LoadConfig reads the TOML file at path over the defaults, then applies
// environment overrides and validates. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := decodeConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeConfigFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load guest config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load guest config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("lang") {
		cfg.Lang = strings.TrimSpace(raw.Lang)
	}
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("codec") {
		cfg.Codec = strings.ToLower(strings.TrimSpace(raw.Codec))
	}
	if meta.IsDefined("mode") {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(raw.Mode)))
	}
	if meta.IsDefined("busy_policy") {
		cfg.BusyPolicy = BusyPolicy(strings.ToLower(strings.TrimSpace(raw.BusyPolicy)))
	}
	if meta.IsDefined("queue_limit") {
		cfg.QueueLimit = raw.QueueLimit
	}
	if meta.IsDefined("dial_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.DialTimeout))
		if err != nil {
			return fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("script_dir") {
		cfg.ScriptDir = strings.TrimSpace(raw.ScriptDir)
	}
	if meta.IsDefined("entry_symbol") {
		cfg.EntrySymbol = strings.TrimSpace(raw.EntrySymbol)
	}
	if meta.IsDefined("plugins") {
		cfg.Plugins = raw.Plugins
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(raw.Log.Format))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvCodec)); v != "" {
		cfg.Codec = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvMode)); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	for _, b := range []struct {
		env string
		dst *bool
	}{
		{EnvLogTimestamp, &cfg.Log.Timestamp},
		{EnvLogNoColor, &cfg.Log.NoColor},
	} {
		raw := strings.TrimSpace(os.Getenv(b.env))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", b.env, err)
		}
		*b.dst = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Lang) == "" {
		return fmt.Errorf("guest config missing lang")
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("guest config missing host")
	}
	switch c.Codec {
	case FormatJSON, FormatCBOR:
	default:
		return fmt.Errorf("guest config: unsupported codec %q", c.Codec)
	}
	switch c.Mode {
	case ModeCoroutine, ModeJob:
	default:
		return fmt.Errorf("guest config: unsupported mode %q", c.Mode)
	}
	switch c.BusyPolicy {
	case BusyReject, BusyQueue:
	default:
		return fmt.Errorf("guest config: unsupported busy_policy %q", c.BusyPolicy)
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("guest config: queue_limit must be positive, got %d", c.QueueLimit)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("guest config: dial_timeout must be positive, got %s", c.DialTimeout)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("guest config: max_frame_bytes must be positive, got %d", c.MaxFrameBytes)
	}
	if _, ok := ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("guest config: unsupported log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("guest config: unsupported log format %q", c.Log.Format)
	}
	return nil
}

// ChannelOptions returns the transport settings.
func (c Config) ChannelOptions() ChannelOptions {
	return ChannelOptions{
		Codec:       c.Codec,
		Limits:      Limits{MaxFrameBytes: c.MaxFrameBytes},
		DialTimeout: c.DialTimeout,
	}
}

// PluginLoader returns the plugin loader, or nil when plugins are off.
func (c Config) PluginLoader() *PluginLoader {
	if !c.Plugins {
		return nil
	}
	return &PluginLoader{Symbol: c.EntrySymbol, Dir: c.ScriptDir}
}
