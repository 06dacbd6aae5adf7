package retention

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog/pkg/config"
	"chatlog/pkg/logger"
	"chatlog/pkg/models"
	"chatlog/pkg/store"
)

var testNow = time.Unix(1_700_000_000, 0)

func seed(t *testing.T, s *store.Store, chatID int64, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, s.Append(chatID, models.MessageRecord{
			MessageID: int64(i),
			Date:      testNow.Unix() - int64(n-i),
			Text:      "m",
			Direction: models.DirectionIncoming,
			Event:     models.EventNew,
		}))
		_, err := s.UpdateMeta(chatID, models.MetaPartial{}, true)
		require.NoError(t, err)
	}
}

func newTestManager(t *testing.T, cfg config.RetentionConfig) (*Manager, *store.Store) {
	t.Helper()
	now := func() time.Time { return testNow }
	s, err := store.New(store.Config{BaseDir: t.TempDir(), Now: now})
	require.NoError(t, err)
	if cfg.LockTTL == 0 {
		cfg.LockTTL = config.Duration(time.Minute)
	}
	m := New(Options{Store: s, Config: cfg, LeaseDir: t.TempDir(), Now: now})
	return m, s
}

func TestRunImmediatePrunes(t *testing.T) {
	m, s := newTestManager(t, config.RetentionConfig{Enabled: true, MaxCount: 3})
	seed(t, s, 1, 5)
	seed(t, s, 2, 2)

	var buf bytes.Buffer
	logger.InitWriter(&buf, "info")

	sum, err := m.RunImmediate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 2, sum.Chats)
	assert.Equal(t, 1, sum.Rewritten)
	assert.Equal(t, 2, sum.Dropped)
	assert.Zero(t, sum.Failed)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	assert.Len(t, read.Records, 3)
	meta, err := s.GetMeta(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.MessageCount)

	out := buf.String()
	assert.Contains(t, out, "retention_audit_header")
	assert.Contains(t, out, "retention_audit_item")
	assert.Contains(t, out, "retention_audit_footer")

	// second run is a no-op
	sum, err = m.RunImmediate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Rewritten)
	assert.Zero(t, sum.Dropped)
}

func TestRunImmediateDryRun(t *testing.T) {
	m, s := newTestManager(t, config.RetentionConfig{Enabled: true, MaxCount: 1, DryRun: true})
	seed(t, s, 1, 4)

	sum, err := m.RunImmediate(context.Background())
	require.NoError(t, err)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 3, sum.Dropped)
	assert.Zero(t, sum.Rewritten)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	assert.Len(t, read.Records, 4)
}

func TestRunImmediateLeaseHeld(t *testing.T) {
	m, s := newTestManager(t, config.RetentionConfig{Enabled: true, MaxCount: 1})
	seed(t, s, 1, 2)

	ok, err := m.lease.Acquire("someone-else", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.RunImmediate(context.Background())
	assert.ErrorIs(t, err, ErrLeaseHeld)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	assert.Len(t, read.Records, 2)
}

func TestRunImmediateCancelled(t *testing.T) {
	m, s := newTestManager(t, config.RetentionConfig{Enabled: true, MaxCount: 1})
	seed(t, s, 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.RunImmediate(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// lease is released on abort
	_, err = m.RunImmediate(context.Background())
	assert.NoError(t, err)
}

func TestStart(t *testing.T) {
	m, _ := newTestManager(t, config.RetentionConfig{})
	cancel, err := m.Start(context.Background())
	require.NoError(t, err)
	cancel()

	m, _ = newTestManager(t, config.RetentionConfig{Enabled: true, Cron: "not a cron", MaxCount: 1})
	_, err = m.Start(context.Background())
	assert.Error(t, err)

	m, _ = newTestManager(t, config.RetentionConfig{Enabled: true, Cron: "0 3 * * *", MaxCount: 1})
	cancel, err = m.Start(context.Background())
	require.NoError(t, err)
	cancel()
}
