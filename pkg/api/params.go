package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/store"
	"chatlog/pkg/store/pagination"
	"chatlog/pkg/utils"
)

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return strings.TrimSpace(v)
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
}

// queryInt returns nil when key is absent or empty.
func queryInt(ctx *fasthttp.RequestCtx, key string) (*int, error) {
	raw := queryString(ctx, key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

// queryLimit is queryInt for page sizes. A given limit is clamped to
// pagination.MaxLimit, and a limit <= 0 (unbounded in the store) becomes
// MaxLimit too.
func queryLimit(ctx *fasthttp.RequestCtx) (*int, error) {
	n, err := queryInt(ctx, "limit")
	if err != nil || n == nil {
		return n, err
	}
	if *n <= 0 || *n > pagination.MaxLimit {
		*n = pagination.MaxLimit
	}
	return n, nil
}

func queryInt64(ctx *fasthttp.RequestCtx, key string) (*int64, error) {
	raw := queryString(ctx, key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &n, nil
}

func queryBool(ctx *fasthttp.RequestCtx, key string) bool {
	switch strings.ToLower(queryString(ctx, key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func chatIDParam(ctx *fasthttp.RequestCtx) (int64, bool) {
	id, err := store.ParseChatID(pathParam(ctx, "chatId"))
	if err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}
