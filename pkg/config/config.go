package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddress      = "0.0.0.0"
	defaultPort         = 8080
	defaultMaxBodySize  = 5 * 1024 * 1024
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second

	defaultRateRPS   = 100
	defaultRateBurst = 100

	defaultRetentionLockTTL = 300 * time.Second
	defaultRetentionCron    = "0 3 * * *" // daily at 03:00
	minRetentionLockTTL     = 3 * time.Second
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}

// LoadConfigFile reads and parses a config file. A missing file is
// reported with an error wrapping fs.ErrNotExist.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, fs.ErrNotExist)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset values in place.
func (c *Config) ApplyDefaults() {
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = SizeBytes(defaultMaxBodySize)
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(defaultWriteTimeout)
	}
	if c.Security.RateLimit.RPS <= 0 {
		c.Security.RateLimit.RPS = defaultRateRPS
	}
	if c.Security.RateLimit.Burst <= 0 {
		c.Security.RateLimit.Burst = defaultRateBurst
	}
	if c.Retention.LockTTL == 0 {
		c.Retention.LockTTL = Duration(defaultRetentionLockTTL)
	}
	if c.Retention.Cron == "" {
		c.Retention.Cron = defaultRetentionCron
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("CHATLOG_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
