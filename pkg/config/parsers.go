package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr    string
	Dir     string
	Account string
	Config  string
	Set     map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config     *Config
	Addr       string
	StorageDir string
	Account    string
	Source     string // comma separated layers: "config", "env", "flags"
}

// parses command-line flags from args (without the program name)
func ParseConfigFlags(args []string) (Flags, error) {
	fset := flag.NewFlagSet("chatlog", flag.ContinueOnError)
	addrPtr := fset.String("addr", ":8080", "HTTP listen address")
	dirPtr := fset.String("dir", "", "Storage base directory")
	accountPtr := fset.String("account", "", "Account namespace under the storage directory")
	cfgPtr := fset.String("config", "./config.yaml", "Path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	setFlags := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, Dir: *dirPtr, Account: *accountPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// loads CHATLOG_* environment variables into a new Config; the bool
// reports whether any of them was set
func ParseConfigEnvs() (*Config, bool) {
	envs := map[string]string{
		"ADDR":           os.Getenv("CHATLOG_ADDR"),
		"SERVER_ADDRESS": os.Getenv("CHATLOG_SERVER_ADDRESS"),
		"SERVER_PORT":    os.Getenv("CHATLOG_SERVER_PORT"),
		"MAX_BODY_SIZE":  os.Getenv("CHATLOG_MAX_BODY_SIZE"),
		"STORAGE_DIR":    os.Getenv("CHATLOG_STORAGE_DIR"),
		"ACCOUNT":        os.Getenv("CHATLOG_ACCOUNT"),
		"API_KEYS":       os.Getenv("CHATLOG_API_KEYS"),
		"CORS_ORIGINS":   os.Getenv("CHATLOG_CORS_ORIGINS"),
		"RATE_RPS":       os.Getenv("CHATLOG_RATE_RPS"),
		"RATE_BURST":     os.Getenv("CHATLOG_RATE_BURST"),
		"LOG_LEVEL":      os.Getenv("CHATLOG_LOG_LEVEL"),

		"RETENTION_ENABLED":      os.Getenv("CHATLOG_RETENTION_ENABLED"),
		"RETENTION_CRON":         os.Getenv("CHATLOG_RETENTION_CRON"),
		"RETENTION_MAX_COUNT":    os.Getenv("CHATLOG_RETENTION_MAX_COUNT"),
		"RETENTION_MAX_AGE_DAYS": os.Getenv("CHATLOG_RETENTION_MAX_AGE_DAYS"),
		"RETENTION_DRY_RUN":      os.Getenv("CHATLOG_RETENTION_DRY_RUN"),
		"RETENTION_LOCK_TTL":     os.Getenv("CHATLOG_RETENTION_LOCK_TTL"),
		"RETENTION_ARCHIVE":      os.Getenv("CHATLOG_RETENTION_ARCHIVE"),
		"RETENTION_ARCHIVE_PATH": os.Getenv("CHATLOG_RETENTION_ARCHIVE_PATH"),
		"INGEST_PRUNE_ON_APPEND": os.Getenv("CHATLOG_INGEST_PRUNE_ON_APPEND"),
	}

	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	parseList := func(v string) []string {
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}
	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}
	parseInt := func(v string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}

	if v := envs["ADDR"]; v != "" {
		envCfg.Server.Address, envCfg.Server.Port = splitAddr(v)
	} else {
		envCfg.Server.Address = envs["SERVER_ADDRESS"]
		if port := envs["SERVER_PORT"]; port != "" {
			envCfg.Server.Port = parseInt(port)
		}
	}
	if v := envs["MAX_BODY_SIZE"]; v != "" {
		if s, err := parseSize(v); err == nil {
			envCfg.Server.MaxBodySize = s
		}
	}
	envCfg.Storage.Dir = envs["STORAGE_DIR"]
	envCfg.Storage.Account = envs["ACCOUNT"]

	if v := envs["API_KEYS"]; v != "" {
		envCfg.Security.APIKeys = parseList(v)
	}
	if v := envs["CORS_ORIGINS"]; v != "" {
		envCfg.Security.AllowedOrigins = parseList(v)
	}
	if v := envs["RATE_RPS"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envCfg.Security.RateLimit.RPS = f
		}
	}
	if v := envs["RATE_BURST"]; v != "" {
		envCfg.Security.RateLimit.Burst = parseInt(v)
	}
	envCfg.Logging.Level = strings.TrimSpace(envs["LOG_LEVEL"])

	// retention
	if v := envs["RETENTION_ENABLED"]; v != "" {
		envCfg.Retention.Enabled = parseBool(v)
	}
	envCfg.Retention.Cron = envs["RETENTION_CRON"]
	if v := envs["RETENTION_MAX_COUNT"]; v != "" {
		envCfg.Retention.MaxCount = parseInt(v)
	}
	if v := envs["RETENTION_MAX_AGE_DAYS"]; v != "" {
		envCfg.Retention.MaxAgeDays = parseInt(v)
	}
	if v := envs["RETENTION_DRY_RUN"]; v != "" {
		envCfg.Retention.DryRun = parseBool(v)
	}
	if v := envs["RETENTION_LOCK_TTL"]; v != "" {
		if d, err := parseDuration(v); err == nil {
			envCfg.Retention.LockTTL = d
		}
	}
	if v := envs["RETENTION_ARCHIVE"]; v != "" {
		envCfg.Retention.Archive.Enabled = parseBool(v)
	}
	envCfg.Retention.Archive.Path = envs["RETENTION_ARCHIVE_PATH"]

	if v := envs["INGEST_PRUNE_ON_APPEND"]; v != "" {
		envCfg.Ingest.PruneOnAppend = parseBool(v)
	}
	return envCfg, envUsed
}

// LoadEffectiveConfig layers the sources: the config file is the base,
// non-empty env values override it, explicitly set flags override both.
// If --config is set the file must exist.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envUsed bool) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	if flags.Set["config"] && !fileExists {
		return res, fmt.Errorf("config file %s not found", flags.Config)
	}

	out := &Config{}
	var sources []string
	if fileExists && fileCfg != nil {
		*out = *fileCfg
		sources = append(sources, "config")
	}
	if envUsed && envCfg != nil {
		overlay(out, envCfg)
		sources = append(sources, "env")
	}

	flagUsed := false
	if flags.Set["addr"] {
		out.Server.Address, out.Server.Port = splitAddr(flags.Addr)
		flagUsed = true
	}
	if flags.Set["dir"] {
		out.Storage.Dir = flags.Dir
		flagUsed = true
	}
	if flags.Set["account"] {
		out.Storage.Account = flags.Account
		flagUsed = true
	}
	if flagUsed {
		sources = append(sources, "flags")
	}
	if len(sources) == 0 {
		sources = append(sources, "defaults")
	}

	res.Config = out
	res.Addr = out.Addr()
	res.StorageDir = out.Storage.Dir
	res.Account = out.Storage.Account
	res.Source = strings.Join(sources, ",")
	return res, nil
}

// overlay copies every non-zero field of src onto dst.
func overlay(dst, src *Config) {
	if src.Server.Address != "" {
		dst.Server.Address = src.Server.Address
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.MaxBodySize != 0 {
		dst.Server.MaxBodySize = src.Server.MaxBodySize
	}
	if src.Storage.Dir != "" {
		dst.Storage.Dir = src.Storage.Dir
	}
	if src.Storage.Account != "" {
		dst.Storage.Account = src.Storage.Account
	}
	if len(src.Security.APIKeys) > 0 {
		dst.Security.APIKeys = src.Security.APIKeys
	}
	if len(src.Security.AllowedOrigins) > 0 {
		dst.Security.AllowedOrigins = src.Security.AllowedOrigins
	}
	if src.Security.RateLimit.RPS != 0 {
		dst.Security.RateLimit.RPS = src.Security.RateLimit.RPS
	}
	if src.Security.RateLimit.Burst != 0 {
		dst.Security.RateLimit.Burst = src.Security.RateLimit.Burst
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Retention.Enabled {
		dst.Retention.Enabled = true
	}
	if src.Retention.Cron != "" {
		dst.Retention.Cron = src.Retention.Cron
	}
	if src.Retention.MaxCount != 0 {
		dst.Retention.MaxCount = src.Retention.MaxCount
	}
	if src.Retention.MaxAgeDays != 0 {
		dst.Retention.MaxAgeDays = src.Retention.MaxAgeDays
	}
	if src.Retention.DryRun {
		dst.Retention.DryRun = true
	}
	if src.Retention.LockTTL != 0 {
		dst.Retention.LockTTL = src.Retention.LockTTL
	}
	if src.Retention.Archive.Enabled {
		dst.Retention.Archive.Enabled = true
	}
	if src.Retention.Archive.Path != "" {
		dst.Retention.Archive.Path = src.Retention.Archive.Path
	}
	if src.Ingest.PruneOnAppend {
		dst.Ingest.PruneOnAppend = true
	}
}

// splits host:port; a bare host keeps port 0
func splitAddr(a string) (string, int) {
	h, p, err := net.SplitHostPort(a)
	if err != nil {
		return a, 0
	}
	pi, _ := strconv.Atoi(p)
	return h, pi
}
