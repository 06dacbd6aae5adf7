package config

import (
	"fmt"

	"github.com/adhocore/gronx"

	"chatlog/pkg/state"
)

// ValidateConfig sets defaults and fails fast on invalid values.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	cfg.ApplyDefaults()

	if _, err := state.ResolveRoot(cfg.Storage.Dir, cfg.Storage.Account); err != nil {
		return fmt.Errorf("invalid storage: %w", err)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}

	ret := cfg.Retention
	if ret.MaxCount < 0 {
		return fmt.Errorf("invalid retention.max_count: %d", ret.MaxCount)
	}
	if ret.MaxAgeDays < 0 {
		return fmt.Errorf("invalid retention.max_age_days: %d", ret.MaxAgeDays)
	}
	if ret.Enabled {
		if !gronx.New().IsValid(ret.Cron) {
			return fmt.Errorf("invalid retention.cron: not a valid cron expression: %q", ret.Cron)
		}
		if ret.LockTTL.Duration() < minRetentionLockTTL {
			return fmt.Errorf("invalid retention.lock_ttl: must be at least %s", minRetentionLockTTL)
		}
		if !ret.HasLimits() {
			return fmt.Errorf("retention enabled but neither retention.max_count nor retention.max_age_days is set")
		}
	}
	if cfg.Ingest.PruneOnAppend && !ret.HasLimits() {
		return fmt.Errorf("ingest.prune_on_append needs retention.max_count or retention.max_age_days")
	}
	return nil
}
