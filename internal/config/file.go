package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape shared by the TOML and YAML formats.
// Durations are strings accepted by time.ParseDuration. Pointer fields
// tell an explicit zero from an absent key in both formats.
type fileConfig struct {
	Hosts          []string `toml:"hosts" yaml:"hosts"`
	Services       []string `toml:"services" yaml:"services"`
	Ping           *bool    `toml:"ping" yaml:"ping"`
	PingCount      *int     `toml:"ping_count" yaml:"ping_count"`
	PingTimeout    string   `toml:"ping_timeout" yaml:"ping_timeout"`
	ConnectTimeout string   `toml:"connect_timeout" yaml:"connect_timeout"`
	UDPTimeout     string   `toml:"udp_timeout" yaml:"udp_timeout"`
	Parallelism    *int     `toml:"parallelism" yaml:"parallelism"`
	Interval       string   `toml:"interval" yaml:"interval"`
	Database       string   `toml:"database" yaml:"database"`
	Port           *int     `toml:"port" yaml:"port"`
	LogLevel       string   `toml:"log_level" yaml:"log_level"`
}

// LoadFile reads a configuration file on top of the defaults. The format
// is chosen by extension; unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	var raw fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}

	return raw.apply(Default())
}

func (f fileConfig) apply(cfg Config) (Config, error) {
	if len(f.Hosts) > 0 {
		cfg.Hosts = trimAll(f.Hosts)
	}
	if f.Services != nil {
		cfg.Services = trimAll(f.Services)
	}
	if f.Ping != nil {
		cfg.PingEnabled = *f.Ping
	}
	if f.PingCount != nil {
		cfg.PingCount = *f.PingCount
	}
	if f.Parallelism != nil {
		cfg.Parallelism = *f.Parallelism
	}
	if f.Port != nil {
		cfg.Port = *f.Port
	}
	if f.Database != "" {
		cfg.DatabasePath = f.Database
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"ping_timeout", f.PingTimeout, &cfg.PingTimeout},
		{"connect_timeout", f.ConnectTimeout, &cfg.ConnectTimeout},
		{"udp_timeout", f.UDPTimeout, &cfg.UDPTimeout},
		{"interval", f.Interval, &cfg.Interval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = v
	}

	return cfg, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
