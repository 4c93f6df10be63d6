package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/httpebble/internal/admin"
	"github.com/danmuck/httpebble/internal/bridge"
)

type fileConfig struct {
	DeviceID             string   `toml:"device_id"`
	StrictCommands       bool     `toml:"strict_commands"`
	UpstreamTimeout      string   `toml:"upstream_timeout"`
	UpstreamMaxBodyBytes int64    `toml:"upstream_max_body_bytes"`
	AdminAddr            string   `toml:"admin_addr"`
	CorsOrigins          []string `toml:"cors_origins"`
	Location             *fileFix `toml:"location"`
}

type fileFix struct {
	Accuracy  float32 `toml:"accuracy"`
	Latitude  float32 `toml:"latitude"`
	Longitude float32 `toml:"longitude"`
	Altitude  float32 `toml:"altitude"`
}

type appConfig struct {
	Bridge bridge.Config
	Admin  admin.Config
}

func defaultAppConfig() appConfig {
	return appConfig{
		Bridge: bridge.DefaultConfig(),
		Admin:  admin.DefaultConfig(),
	}
}

// loadConfig overlays the keys present in path onto the defaults.
// An empty path yields the defaults.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load httpebble config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return appConfig{}, fmt.Errorf("load httpebble config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("device_id") {
		cfg.Bridge.DeviceID = strings.TrimSpace(raw.DeviceID)
	}

	if meta.IsDefined("strict_commands") {
		cfg.Bridge.StrictCommands = raw.StrictCommands
	}

	if meta.IsDefined("upstream_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.UpstreamTimeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("parse upstream_timeout: %w", err)
		}
		if d < 0 {
			return appConfig{}, fmt.Errorf("parse upstream_timeout: negative duration %s", d)
		}
		cfg.Bridge.Upstream.Timeout = d
	}

	if meta.IsDefined("upstream_max_body_bytes") {
		if raw.UpstreamMaxBodyBytes <= 0 {
			return appConfig{}, fmt.Errorf("upstream_max_body_bytes must be positive, got %d", raw.UpstreamMaxBodyBytes)
		}
		cfg.Bridge.Upstream.MaxBodyBytes = raw.UpstreamMaxBodyBytes
	}

	if meta.IsDefined("admin_addr") {
		cfg.Admin.Addr = strings.TrimSpace(raw.AdminAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.Admin.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}

	if raw.Location != nil {
		if meta.IsDefined("location", "accuracy") {
			cfg.Bridge.Location.Accuracy = raw.Location.Accuracy
		}
		if meta.IsDefined("location", "latitude") {
			cfg.Bridge.Location.Latitude = raw.Location.Latitude
		}
		if meta.IsDefined("location", "longitude") {
			cfg.Bridge.Location.Longitude = raw.Location.Longitude
		}
		if meta.IsDefined("location", "altitude") {
			cfg.Bridge.Location.Altitude = raw.Location.Altitude
		}
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
