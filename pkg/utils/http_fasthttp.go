package utils

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/logger"
)

// WriteJSON writes v as the JSON body with the given status.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	enc := json.NewEncoder(ctx)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("response_encode_failed", "path", string(ctx.Path()), "error", err)
	}
}

// WriteJSONError writes {"error": msg}.
func WriteJSONError(ctx *fasthttp.RequestCtx, status int, msg string) {
	WriteJSON(ctx, status, map[string]string{"error": msg})
}
