package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func request(r *Router, method, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	r.Handler(ctx)
	return ctx
}

func TestRouterParams(t *testing.T) {
	r := New()
	var got string
	r.GET("/v1/chats/{chatId}/messages", func(ctx *fasthttp.RequestCtx) {
		got, _ = ctx.UserValue("chatId").(string)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := request(r, "GET", "/v1/chats/-100/messages?limit=5")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "-100", got)
}

func TestRouterRegistrationOrder(t *testing.T) {
	r := New()
	hit := ""
	r.GET("/v1/connections/active", func(*fasthttp.RequestCtx) { hit = "active" })
	r.GET("/v1/connections/{id}", func(*fasthttp.RequestCtx) { hit = "id" })

	request(r, "GET", "/v1/connections/active")
	assert.Equal(t, "active", hit)
	request(r, "GET", "/v1/connections/bc-1")
	assert.Equal(t, "id", hit)
}

func TestRouterNotFoundAndMethod(t *testing.T) {
	r := New()
	r.GET("/healthz", func(*fasthttp.RequestCtx) {})

	assert.Equal(t, fasthttp.StatusNotFound, request(r, "GET", "/nope").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, request(r, "POST", "/healthz").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, request(r, "DELETE", "/healthz").Response.StatusCode())

	r.NotFound(func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusTeapot) })
	assert.Equal(t, fasthttp.StatusTeapot, request(r, "GET", "/nope").Response.StatusCode())
}

func TestRoutes(t *testing.T) {
	r := New()
	r.POST("/v1/updates", func(*fasthttp.RequestCtx) {})
	r.GET("/healthz", func(*fasthttp.RequestCtx) {})
	assert.Equal(t, []string{"GET /healthz", "POST /v1/updates"}, r.Routes())
}
