package config

import (
	"fmt"
	"strings"
	"time"

	"host-prober/internal/models"
)

// Config holds all configuration for the prober
type Config struct {
	Hosts          []string
	Services       []string // "tcp/22", "udp/631"
	PingEnabled    bool
	PingCount      int
	PingTimeout    time.Duration
	ConnectTimeout time.Duration
	UDPTimeout     time.Duration
	Parallelism    int
	Interval       time.Duration
	DatabasePath   string
	Port           int
	LogLevel       string
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Hosts:          []string{"127.0.0.1"},
		PingEnabled:    false,
		PingCount:      5,
		PingTimeout:    3 * time.Second,
		ConnectTimeout: 5 * time.Second,
		UDPTimeout:     5 * time.Second,
		Parallelism:    8,
		Interval:       30 * time.Second,
		DatabasePath:   "host_prober.db",
		Port:           8080,
		LogLevel:       "info",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host must be specified")
	}
	for _, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("host names cannot be empty")
		}
	}
	if _, err := c.Targets(); err != nil {
		return err
	}
	if c.PingEnabled && c.PingCount <= 0 {
		return fmt.Errorf("ping count must be positive")
	}
	if c.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.UDPTimeout <= 0 {
		return fmt.Errorf("udp timeout must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// Targets parses the configured services
func (c *Config) Targets() ([]models.Target, error) {
	targets := make([]models.Target, 0, len(c.Services))
	for _, s := range c.Services {
		t, err := models.ParseTarget(s)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// splitList splits a comma-separated flag value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
