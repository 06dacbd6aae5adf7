package banner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatlog/pkg/config"
)

func TestPrint(t *testing.T) {
	cfg := &config.Config{}
	cfg.Security.APIKeys = []string{"k"}
	cfg.Retention.Enabled = true
	cfg.Retention.DryRun = true
	cfg.Retention.Cron = "0 3 * * *"
	cfg.Retention.MaxCount = 10

	var buf bytes.Buffer
	Print(&buf, config.EffectiveConfigResult{Config: cfg, Addr: "0.0.0.0:8080", Account: "biz", Source: "env"}, "/data", "v1.2.3")

	out := buf.String()
	assert.Contains(t, out, "Listen:   0.0.0.0:8080")
	assert.Contains(t, out, "Storage:  /data")
	assert.Contains(t, out, "Account:  biz")
	assert.Contains(t, out, "API keys: OK (1)")
	assert.Contains(t, out, "Retention: DRY RUN")
	assert.Contains(t, out, "Archive: disabled")
}

func TestPrintNilConfig(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, config.EffectiveConfigResult{}, "/data", "")
	assert.Contains(t, buf.String(), "API keys: MISSING")
	assert.Contains(t, buf.String(), "Config:   defaults")
}
