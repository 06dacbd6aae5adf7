package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"chatlog/internal/retention"
	"chatlog/pkg/ingest"
	"chatlog/pkg/models"
	"chatlog/pkg/router"
	"chatlog/pkg/store"
	"chatlog/pkg/store/pagination"
)

type fixture struct {
	r     *router.Router
	store *store.Store
	api   *API
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := func() time.Time { return time.Unix(1_700_000_000, 0) }
	s, err := store.New(store.Config{BaseDir: t.TempDir(), Now: now})
	require.NoError(t, err)
	a := New(Deps{Store: s, Ingestor: ingest.New(s, ingest.Config{Now: now})})
	r := router.New()
	a.Register(r)
	return &fixture{r: r, store: s, api: a}
}

func (f *fixture) do(method, uri string, body []byte) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != nil {
		ctx.Request.SetBody(body)
		ctx.Request.Header.SetContentType("application/json")
	}
	f.r.Handler(ctx)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v), string(ctx.Response.Body()))
}

func (f *fixture) postMessage(t *testing.T, id int64, text string) {
	t.Helper()
	u := ingest.Update{BusinessMessage: &ingest.Message{
		MessageID: id,
		From:      &ingest.User{ID: 5, FirstName: "Ann"},
		Chat:      ingest.Chat{ID: 5, FirstName: "Ann"},
		Date:      1_700_000_000 + id,
		Text:      text,
	}}
	body, err := json.Marshal(u)
	require.NoError(t, err)
	ctx := f.do("POST", "/v1/updates", body)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, fasthttp.StatusOK, f.do("GET", "/healthz", nil).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusOK, f.do("GET", "/readyz", nil).Response.StatusCode())

	f.api.deps.Ready = func() bool { return false }
	assert.Equal(t, fasthttp.StatusServiceUnavailable, f.do("GET", "/readyz", nil).Response.StatusCode())
}

func TestUpdatesAndReads(t *testing.T) {
	f := newFixture(t)
	f.postMessage(t, 1, "Hello there")
	f.postMessage(t, 2, "second")
	f.postMessage(t, 3, "third HELLO")

	ctx := f.do("GET", "/v1/chats", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var chats struct {
		Chats []models.ChatMeta `json:"chats"`
	}
	decode(t, ctx, &chats)
	require.Len(t, chats.Chats, 1)
	assert.Equal(t, int64(3), chats.Chats[0].MessageCount)

	ctx = f.do("GET", "/v1/chats/5", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ctx = f.do("GET", "/v1/chats/5/messages?limit=2", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var page models.MessagesPage
	decode(t, ctx, &page)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, int64(2), page.Messages[0].MessageID)
	assert.True(t, page.Pagination.HasMore)

	ctx = f.do("GET", "/v1/chats/5/messages?before=3&after=1", nil)
	decode(t, ctx, &page)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, int64(2), page.Messages[0].MessageID)

	ctx = f.do("GET", "/v1/search?q=hello", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var res struct {
		Hits []store.SearchHit `json:"hits"`
	}
	decode(t, ctx, &res)
	assert.Len(t, res.Hits, 2)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		method, uri string
		body        []byte
		want        int
	}{
		{"GET", "/v1/chats/abc", nil, fasthttp.StatusBadRequest},
		{"GET", "/v1/chats/5/messages?limit=x", nil, fasthttp.StatusBadRequest},
		{"GET", "/v1/chats/5", nil, fasthttp.StatusNotFound},
		{"GET", "/v1/search", nil, fasthttp.StatusBadRequest},
		{"POST", "/v1/updates", []byte("{"), fasthttp.StatusBadRequest},
		{"POST", "/v1/updates", []byte(`{"update_id":1}`), fasthttp.StatusAccepted},
		{"POST", "/v1/updates", []byte(`{"business_message":{"message_id":1,"chat":{"id":0},"date":1}}`), fasthttp.StatusBadRequest},
		{"GET", "/v1/nope", nil, fasthttp.StatusNotFound},
		{"DELETE", "/v1/chats", nil, fasthttp.StatusMethodNotAllowed},
		{"POST", "/v1/admin/retention/run", nil, fasthttp.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.uri, func(t *testing.T) {
			ctx := f.do(tt.method, tt.uri, tt.body)
			assert.Equal(t, tt.want, ctx.Response.StatusCode(), string(ctx.Response.Body()))
		})
	}
}

func TestPruneChat(t *testing.T) {
	f := newFixture(t)
	for i := int64(1); i <= 4; i++ {
		f.postMessage(t, i, "m")
	}

	ctx := f.do("POST", "/v1/chats/5/prune?max_count=2&dry_run=true", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var res store.PruneResult
	decode(t, ctx, &res)
	assert.Equal(t, 2, res.Dropped)
	assert.False(t, res.Rewritten)

	ctx = f.do("POST", "/v1/chats/5/prune?max_count=2", nil)
	decode(t, ctx, &res)
	assert.True(t, res.Rewritten)
	assert.Equal(t, 2, res.Retained)

	// no limits given and none configured: nothing happens
	ctx = f.do("POST", "/v1/chats/5/prune", nil)
	decode(t, ctx, &res)
	assert.False(t, res.Rewritten)
}

func TestConnections(t *testing.T) {
	f := newFixture(t)

	ctx := f.do("GET", "/v1/connections/active", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())

	ctx = f.do("PUT", "/v1/connections/bc-1", []byte(`{"id":"ignored","userId":9,"firstName":"Owner","isEnabled":true}`))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var rec models.ConnectionRecord
	decode(t, ctx, &rec)
	assert.Equal(t, "bc-1", rec.ID)
	assert.Equal(t, int64(1_700_000_000_000), rec.UpdatedAt)

	ctx = f.do("GET", "/v1/connections/active", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	decode(t, ctx, &rec)
	assert.Equal(t, "bc-1", rec.ID)

	ctx = f.do("GET", "/v1/connections", nil)
	var list struct {
		Connections []models.ConnectionRecord `json:"connections"`
	}
	decode(t, ctx, &list)
	assert.Len(t, list.Connections, 1)

	assert.Equal(t, fasthttp.StatusNotFound, f.do("GET", "/v1/connections/zzz", nil).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, f.do("PUT", "/v1/connections/x", []byte("nope")).Response.StatusCode())
}

type stubRetention struct {
	sum retention.Summary
	err error
}

func (s stubRetention) RunImmediate(context.Context) (retention.Summary, error) { return s.sum, s.err }

func TestRunRetention(t *testing.T) {
	f := newFixture(t)
	f.api.deps.Retention = stubRetention{sum: retention.Summary{RunID: "r1", Chats: 3}}
	ctx := f.do("POST", "/v1/admin/retention/run", nil)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var sum retention.Summary
	decode(t, ctx, &sum)
	assert.Equal(t, "r1", sum.RunID)

	f.api.deps.Retention = stubRetention{err: retention.ErrLeaseHeld}
	assert.Equal(t, fasthttp.StatusConflict, f.do("POST", "/v1/admin/retention/run", nil).Response.StatusCode())
}

func TestQueryLimitClamps(t *testing.T) {
	tests := []struct {
		query string
		want  *int
	}{
		{"", nil},
		{"limit=10", pagination.Limit(10)},
		{"limit=0", pagination.Limit(pagination.MaxLimit)},
		{"limit=-5", pagination.Limit(pagination.MaxLimit)},
		{"limit=1000000", pagination.Limit(pagination.MaxLimit)},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			ctx.Request.SetRequestURI("/v1/search?" + tc.query)
			got, err := queryLimit(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
