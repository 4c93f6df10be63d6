package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/httpebble/internal/providers"
	"github.com/danmuck/httpebble/internal/testutil/testlog"
	"github.com/danmuck/httpebble/internal/upstream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigExample(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Bridge.DeviceID != "00:17:E9:A1:B2:C3" {
		t.Fatalf("unexpected device id: %q", cfg.Bridge.DeviceID)
	}
	if cfg.Bridge.StrictCommands {
		t.Fatalf("expected lenient command policy")
	}
	if cfg.Bridge.Upstream.Timeout != 10*time.Second {
		t.Fatalf("unexpected upstream timeout: %v", cfg.Bridge.Upstream.Timeout)
	}
	if cfg.Bridge.Upstream.MaxBodyBytes != 262144 {
		t.Fatalf("unexpected max body: %d", cfg.Bridge.Upstream.MaxBodyBytes)
	}
	if cfg.Admin.Addr != "127.0.0.1:7080" {
		t.Fatalf("unexpected admin addr: %q", cfg.Admin.Addr)
	}
	if len(cfg.Admin.CorsOrigins) != 1 || cfg.Admin.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %+v", cfg.Admin.CorsOrigins)
	}
	if cfg.Bridge.Location.Latitude != 52.52 || cfg.Bridge.Location.Accuracy != 12.5 {
		t.Fatalf("unexpected location: %+v", cfg.Bridge.Location)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Bridge.Upstream.MaxBodyBytes != upstream.DefaultMaxBodyBytes {
		t.Fatalf("unexpected default max body: %d", cfg.Bridge.Upstream.MaxBodyBytes)
	}
	if cfg.Admin.Addr == "" {
		t.Fatalf("expected a default admin addr")
	}

	cfg, err = loadConfig(writeConfig(t, "strict_commands = true\n"))
	if err != nil {
		t.Fatalf("load partial config: %v", err)
	}
	if !cfg.Bridge.StrictCommands {
		t.Fatalf("expected strict commands")
	}
	if cfg.Bridge.Upstream.MaxBodyBytes != upstream.DefaultMaxBodyBytes || cfg.Bridge.DeviceID != "" {
		t.Fatalf("undefined keys must keep defaults: %+v", cfg.Bridge)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)

	cases := map[string]string{
		"duration":  "upstream_timeout = \"soon\"\n",
		"negative":  "upstream_timeout = \"-1s\"\n",
		"body":      "upstream_max_body_bytes = 0\n",
		"unknown":   "upstream_tiemout = \"1s\"\n",
	}
	for name, content := range cases {
		if _, err := loadConfig(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadConfigPartialLocationKeepsFix(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadConfig(writeConfig(t, "[location]\nlatitude = 10.5\n"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := providers.MockFix
	want.Latitude = 10.5
	if cfg.Bridge.Location != want {
		t.Fatalf("unexpected location: %+v want %+v", cfg.Bridge.Location, want)
	}
}
