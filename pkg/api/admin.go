package api

import (
	"context"
	"errors"

	"github.com/valyala/fasthttp"

	"chatlog/internal/retention"
	"chatlog/pkg/utils"
)

// RunRetention runs one retention pass now and returns its summary.
func (a *API) RunRetention(ctx *fasthttp.RequestCtx) {
	if a.deps.Retention == nil {
		utils.WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "retention is disabled")
		return
	}
	sum, err := a.deps.Retention.RunImmediate(context.Background())
	if err != nil {
		if errors.Is(err, retention.ErrLeaseHeld) {
			utils.WriteJSONError(ctx, fasthttp.StatusConflict, "retention run already in progress")
			return
		}
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "retention run failed")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, sum)
}
