package api

import (
	"github.com/valyala/fasthttp"

	"chatlog/pkg/utils"
)

func (a *API) Healthz(ctx *fasthttp.RequestCtx) {
	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) Readyz(ctx *fasthttp.RequestCtx) {
	if a.deps.Ready != nil && !a.deps.Ready() {
		utils.WriteJSON(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ready"})
}
