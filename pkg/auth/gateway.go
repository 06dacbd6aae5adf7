// Package auth is the request gateway in front of the API routes.
package auth

import (
	"crypto/subtle"
	"net"
	"strings"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/logger"
	"chatlog/pkg/utils"
)

// SecConfig is the gateway policy.
type SecConfig struct {
	// APIKeys accepted on Authorization: Bearer or X-API-Key. Empty disables auth.
	APIKeys        []string
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

// Gateway wraps handlers with CORS, API key and rate limit checks.
type Gateway struct {
	cfg      SecConfig
	limiters *limiterPool
}

func NewGateway(cfg SecConfig) *Gateway {
	return &Gateway{cfg: cfg, limiters: newLimiterPool(cfg.RPS, cfg.Burst)}
}

// Close stops the limiter eviction loop.
func (g *Gateway) Close() { g.limiters.Close() }

// Middleware returns next guarded by the gateway policy.
func (g *Gateway) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		logger.LogRequestFast(ctx)

		origin := strings.TrimSpace(string(ctx.Request.Header.Peek("Origin")))
		if origin != "" && originAllowed(origin, g.cfg.AllowedOrigins) {
			h := &ctx.Response.Header
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
			h.Set("Access-Control-Max-Age", "600")
		}
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		if publicPath(ctx) {
			next(ctx)
			return
		}

		key := ExtractAPIKey(ctx)
		if len(g.cfg.APIKeys) > 0 && !g.keyValid(key) {
			utils.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "unauthorized")
			logger.Warn("request_unauthorized", "path", string(ctx.Path()), "remote", ctx.RemoteAddr().String(), "has_api_key", key != "")
			return
		}

		id := key
		if id == "" {
			id = clientIP(ctx)
		}
		if !g.limiters.Allow(id) {
			utils.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			logger.Warn("rate_limited", "path", string(ctx.Path()), "has_api_key", key != "")
			return
		}

		next(ctx)
	}
}

func (g *Gateway) keyValid(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range g.cfg.APIKeys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// ExtractAPIKey reads the key from Authorization: Bearer, else X-API-Key.
func ExtractAPIKey(ctx *fasthttp.RequestCtx) string {
	if a := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization"))); a != "" {
		if len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
			return strings.TrimSpace(a[7:])
		}
	}
	return strings.TrimSpace(string(ctx.Request.Header.Peek("X-API-Key")))
}

func clientIP(ctx *fasthttp.RequestCtx) string {
	host := ctx.RemoteAddr().String()
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func publicPath(ctx *fasthttp.RequestCtx) bool {
	if string(ctx.Method()) != fasthttp.MethodGet {
		return false
	}
	switch string(ctx.Path()) {
	case "/healthz", "/readyz":
		return true
	}
	return false
}
