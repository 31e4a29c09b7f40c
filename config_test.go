// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/guest"
	"github.com/rs/zerolog"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		guest.EnvCodec, guest.EnvMode, guest.EnvLogLevel,
		guest.EnvLogTimestamp, guest.EnvLogNoColor, guest.EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guestd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := guest.LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != guest.DefaultConfig() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
	if cfg.Host != "127.0.0.1" || cfg.Codec != guest.FormatJSON || cfg.Mode != guest.ModeCoroutine {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
lang = "Go"
codec = "CBOR"
mode = "job"
busy_policy = "queue"
queue_limit = 4
dial_timeout = "250ms"
max_frame_bytes = 1024
script_dir = "/opt/scripts"
plugins = false

[log]
level = "debug"
format = "json"
timestamp = true
`)
	cfg, err := guest.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Codec != guest.FormatCBOR || cfg.Mode != guest.ModeJob || cfg.BusyPolicy != guest.BusyQueue {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.QueueLimit != 4 || cfg.DialTimeout != 250*time.Millisecond || cfg.MaxFrameBytes != 1024 {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != guest.LogFormatJSON || !cfg.Log.Timestamp {
		t.Fatalf("got log %+v", cfg.Log)
	}
	if cfg.Host != "127.0.0.1" || cfg.EntrySymbol != guest.DefaultEntrySymbol {
		t.Fatalf("unset keys lost their defaults: %+v", cfg)
	}
	if cfg.PluginLoader() != nil {
		t.Fatal("plugins = false still returned a loader")
	}
	if opts := cfg.ChannelOptions(); opts.Limits.MaxFrameBytes != 1024 || opts.Codec != guest.FormatCBOR {
		t.Fatalf("channel options %+v", opts)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "codec = \"json\"\n")
	t.Setenv(guest.EnvCodec, "cbor")
	t.Setenv(guest.EnvMode, "job")
	t.Setenv(guest.EnvLogLevel, "warn")
	t.Setenv(guest.EnvLogNoColor, "true")
	cfg, err := guest.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Codec != guest.FormatCBOR || cfg.Mode != guest.ModeJob || cfg.Log.Level != "warn" || !cfg.Log.NoColor {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"unknown key":    "colour = \"red\"\n",
		"bad mode":       "mode = \"batch\"\n",
		"bad policy":     "busy_policy = \"drop\"\n",
		"bad codec":      "codec = \"xml\"\n",
		"bad duration":   "dial_timeout = \"soon\"\n",
		"zero queue":     "queue_limit = 0\n",
		"bad level":      "[log]\nlevel = \"loud\"\n",
		"empty host":     "host = \"\"\n",
		"invalid syntax": "lang = \n",
	}
	for name, body := range cases {
		if _, err := guest.LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := guest.LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file: expected error")
	}
	t.Setenv(guest.EnvLogTimestamp, "maybe")
	if _, err := guest.LoadConfig(""); err == nil {
		t.Fatal("bad bool env: expected error")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := guest.NewLogger(guest.LogConfig{Level: "info", Format: guest.LogFormatJSON}, &buf)
	log.Debug().Msg("hidden")
	log.Info().Str("path", "echo_module").Msg("session completed")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line logged at info level: %s", out)
	}
	if !strings.Contains(out, `"component":"guestd"`) || !strings.Contains(out, `"path":"echo_module"`) {
		t.Fatalf("unexpected log output: %s", out)
	}

	buf.Reset()
	log = guest.NewLogger(guest.LogConfig{Level: "debug", NoColor: true}, &buf)
	log.Debug().Msg("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("console writer dropped debug line: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"off":   zerolog.Disabled,
	}
	for in, want := range cases {
		got, ok := guest.ParseLevel(in)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) got %v, %t", in, got, ok)
		}
	}
	if _, ok := guest.ParseLevel("loud"); ok {
		t.Fatal("ParseLevel accepted an unknown level")
	}
}
