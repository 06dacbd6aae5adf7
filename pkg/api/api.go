// Package api is the HTTP surface over the chat log store.
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"chatlog/internal/retention"
	"chatlog/pkg/ingest"
	"chatlog/pkg/router"
	"chatlog/pkg/store"
	"chatlog/pkg/utils"
)

// RetentionTrigger runs a retention pass on demand.
type RetentionTrigger interface {
	RunImmediate(ctx context.Context) (retention.Summary, error)
}

// Deps are the components the handlers work on.
type Deps struct {
	Store    *store.Store
	Ingestor *ingest.Ingestor
	// Retention is optional; without it the admin run route answers 503.
	Retention RetentionTrigger
	// MaxCount and MaxAgeDays are the prune limits used when a prune
	// request names none.
	MaxCount   int
	MaxAgeDays int
	// Ready reports whether the app accepts traffic; nil means always.
	Ready func() bool
}

// API holds the handlers.
type API struct {
	deps Deps
}

func New(deps Deps) *API {
	return &API{deps: deps}
}

// Register mounts every route on r.
func (a *API) Register(r *router.Router) {
	r.GET("/healthz", a.Healthz)
	r.GET("/readyz", a.Readyz)
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	r.POST("/v1/updates", a.PostUpdate)

	r.GET("/v1/chats", a.ListChats)
	r.GET("/v1/chats/{chatId}", a.GetChat)
	r.GET("/v1/chats/{chatId}/messages", a.ListMessages)
	r.POST("/v1/chats/{chatId}/prune", a.PruneChat)

	r.GET("/v1/search", a.Search)

	r.GET("/v1/connections", a.ListConnections)
	r.GET("/v1/connections/active", a.ActiveConnection)
	r.GET("/v1/connections/{id}", a.GetConnection)
	r.PUT("/v1/connections/{id}", a.PutConnection)

	r.POST("/v1/admin/retention/run", a.RunRetention)

	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		utils.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(ctx *fasthttp.RequestCtx) {
		utils.WriteJSONError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
	})
}
