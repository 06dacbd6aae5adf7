package app

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/api"
	"chatlog/pkg/auth"
	"chatlog/pkg/router"
)

// handler builds the routed and gated request handler.
func (a *App) handler() fasthttp.RequestHandler {
	cfg := a.eff.Config

	r := router.New()
	api.New(api.Deps{
		Store:      a.store,
		Ingestor:   a.ingestor,
		Retention:  a.retention,
		MaxCount:   cfg.Retention.MaxCount,
		MaxAgeDays: cfg.Retention.MaxAgeDays,
		Ready:      a.ready.Load,
	}).Register(r)

	a.gateway = auth.NewGateway(auth.SecConfig{
		APIKeys:        append([]string{}, cfg.Security.APIKeys...),
		AllowedOrigins: append([]string{}, cfg.Security.AllowedOrigins...),
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
	})
	return a.gateway.Middleware(r.Handler)
}

// startHTTP builds and starts the fasthttp server, returning a channel that delivers errors.
func (a *App) startHTTP(_ context.Context) <-chan error {
	cfg := a.eff.Config

	const (
		readBufferSize       = 64 * 1024 // 64 KiB read buffer per connection
		idleTimeout          = 30 * time.Second
		maxKeepaliveDuration = 2 * time.Minute
	)
	a.srvFast = &fasthttp.Server{
		Name:                 "chatlog",
		Handler:              a.handler(),
		ReadBufferSize:       readBufferSize,
		MaxRequestBodySize:   int(cfg.Server.MaxBodySize.Int64()),
		ReduceMemoryUsage:    true,
		ReadTimeout:          cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:         cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:          idleTimeout,
		MaxKeepaliveDuration: maxKeepaliveDuration,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srvFast.ListenAndServe(a.eff.Addr)
	}()
	return errCh
}
