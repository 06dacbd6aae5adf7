package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Storage   StorageConfig   `yaml:"storage"`
	Retention RetentionConfig `yaml:"retention"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds http settings.
type ServerConfig struct {
	Address      string    `yaml:"address"`
	Port         int       `yaml:"port"`
	MaxBodySize  SizeBytes `yaml:"max_body_size"`
	ReadTimeout  Duration  `yaml:"read_timeout"`
	WriteTimeout Duration  `yaml:"write_timeout"`
}

// SecurityConfig holds API access settings.
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	APIKeys        []string `yaml:"api_keys"`
	RateLimit      struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig locates the storage root: Dir, optionally namespaced by
// Account. An empty Dir uses the process state directory.
type StorageConfig struct {
	Dir     string `yaml:"dir"`
	Account string `yaml:"account"`
}

// RetentionConfig drives the scheduled prune runner.
type RetentionConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Cron       string `yaml:"cron"`
	MaxCount   int    `yaml:"max_count"`
	MaxAgeDays int    `yaml:"max_age_days"`
	DryRun     bool   `yaml:"dry_run"`
	// LockTTL is the lease TTL a run holds while pruning.
	LockTTL Duration      `yaml:"lock_ttl"`
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig keeps pruned records in a pebble database instead of
// discarding them. Path defaults to <root>/archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type IngestConfig struct {
	// PruneOnAppend prunes a chat with the retention limits after each new message.
	PruneOnAppend bool `yaml:"prune_on_append"`
}

// HasLimits reports whether any prune limit is set.
func (r RetentionConfig) HasLimits() bool {
	return r.MaxCount > 0 || r.MaxAgeDays > 0
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "5MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseSize(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

func parseSize(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
