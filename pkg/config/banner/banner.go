package banner

import (
	"fmt"
	"io"

	"chatlog/pkg/config"
)

const banner = `
       __          __  __
  ____/ /_  ____ _/ /_/ /___  ____ _
 / ___/ __ \/ __ ` + "`" + `/ __/ / __ \/ __ ` + "`" + `/
/ /__/ / / / /_/ / /_/ / /_/ / /_/ /
\___/_/ /_/\__,_/\__/_/\____/\__, /
                            /____/
`

// Print writes the startup banner and a readiness checklist for eff.
// root is the resolved storage root.
func Print(w io.Writer, eff config.EffectiveConfigResult, root, version string) {
	src := eff.Source
	if src == "" {
		src = "defaults"
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:   %s\n", eff.Addr)
	fmt.Fprintf(w, "Storage:  %s\n", root)
	if eff.Account != "" {
		fmt.Fprintf(w, "Account:  %s\n", eff.Account)
	}
	if version != "" {
		fmt.Fprintf(w, "Version:  %s\n", version)
	}
	fmt.Fprintf(w, "Config:   %s\n", src)

	fmt.Fprintln(w, "\n== Production? =================================================")
	cfg := eff.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if n := len(cfg.Security.APIKeys); n > 0 {
		fmt.Fprintf(w, "- API keys: OK (%d)\n", n)
	} else {
		fmt.Fprintln(w, "- API keys: MISSING (API is open to anyone who can reach it)")
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		fmt.Fprintf(w, "- CORS origins: %v\n", cfg.Security.AllowedOrigins)
	} else {
		fmt.Fprintln(w, "- CORS origins: none")
	}
	fmt.Fprintf(w, "- Max body size: %s\n", cfg.Server.MaxBodySize)

	ret := cfg.Retention
	switch {
	case !ret.Enabled:
		fmt.Fprintln(w, "- Retention: disabled (chat logs grow without bound)")
	case ret.DryRun:
		fmt.Fprintf(w, "- Retention: DRY RUN cron=%q max_count=%d max_age_days=%d\n", ret.Cron, ret.MaxCount, ret.MaxAgeDays)
	default:
		fmt.Fprintf(w, "- Retention: enabled cron=%q max_count=%d max_age_days=%d\n", ret.Cron, ret.MaxCount, ret.MaxAgeDays)
	}
	if ret.Archive.Enabled {
		fmt.Fprintln(w, "- Archive: enabled (pruned records are kept)")
	} else {
		fmt.Fprintln(w, "- Archive: disabled (pruned records are discarded)")
	}
	fmt.Fprintln(w, "================================================================")
}
