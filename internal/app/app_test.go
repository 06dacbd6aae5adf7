package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"chatlog/pkg/config"
	"chatlog/pkg/state"
)

func newTestApp(t *testing.T, mut func(*config.Config)) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Dir = t.TempDir()
	cfg.Security.APIKeys = []string{"k"}
	if mut != nil {
		mut(cfg)
	}
	eff, err := config.LoadEffectiveConfig(config.Flags{Set: map[string]bool{}}, cfg, true, &config.Config{}, false)
	require.NoError(t, err)
	require.NoError(t, config.ValidateConfig(eff))

	paths, err := state.Init(eff.StorageDir, eff.Account)
	require.NoError(t, err)

	a, err := New(eff, paths, "test", "none", "unknown")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func call(h fasthttp.RequestHandler, method, uri, key string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if key != "" {
		ctx.Request.Header.Set("X-API-Key", key)
	}
	if body != nil {
		ctx.Request.SetBody(body)
	}
	h(ctx)
	return ctx
}

func TestAppHandler(t *testing.T) {
	a := newTestApp(t, nil)
	h := a.handler()

	assert.Equal(t, fasthttp.StatusOK, call(h, "GET", "/healthz", "", nil).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusServiceUnavailable, call(h, "GET", "/readyz", "", nil).Response.StatusCode())
	a.ready.Store(true)
	assert.Equal(t, fasthttp.StatusOK, call(h, "GET", "/readyz", "", nil).Response.StatusCode())

	assert.Equal(t, fasthttp.StatusUnauthorized, call(h, "GET", "/v1/chats", "", nil).Response.StatusCode())

	update := []byte(`{"update_id":1,"business_message":{"message_id":1,"from":{"id":3,"first_name":"A"},
		"chat":{"id":3,"first_name":"A"},"date":1700000000,"text":"hi"}}`)
	ctx := call(h, "POST", "/v1/updates", "k", update)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	ctx = call(h, "GET", "/v1/chats/3/messages", "k", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"text":"hi"`)

	ctx = call(h, "GET", "/metrics", "k", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "chatlog_ingest_updates_total")
}

func TestAppArchive(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Retention.Archive.Enabled = true
		c.Retention.MaxCount = 1
	})
	require.NotNil(t, a.archive)

	h := a.handler()
	for _, body := range []string{
		`{"business_message":{"message_id":1,"chat":{"id":3},"date":1700000000,"text":"a"}}`,
		`{"business_message":{"message_id":2,"chat":{"id":3},"date":1700000001,"text":"b"}}`,
	} {
		ctx := call(h, "POST", "/v1/updates", "k", []byte(body))
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	}

	ctx := call(h, "POST", "/v1/chats/3/prune", "k", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"archived":1`)

	entries, err := a.archive.List(3, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].Record.MessageID)
}

func TestAppShutdownIdempotent(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, "stopped", a.State())
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestVersionString(t *testing.T) {
	a := &App{version: "1.0", commit: "abc", buildDate: "2024-01-01"}
	assert.Equal(t, "1.0 (abc) @ 2024-01-01", a.versionString())
	a = &App{version: "dev", commit: "none", buildDate: "unknown"}
	assert.Equal(t, "dev", a.versionString())
}
