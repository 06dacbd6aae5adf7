package api

import (
	"github.com/valyala/fasthttp"

	"chatlog/pkg/logger"
	"chatlog/pkg/store"
	"chatlog/pkg/utils"
)

func (a *API) Search(ctx *fasthttp.RequestCtx) {
	q := queryString(ctx, "q")
	if q == "" {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, "q is required")
		return
	}
	var opts store.SearchOptions
	var err error
	if opts.ChatID, err = queryInt64(ctx, "chat_id"); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if opts.Limit, err = queryLimit(ctx); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	hits, err := a.deps.Store.Search(q, opts)
	if err != nil {
		logger.Error("search_failed", "error", err)
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "search failed")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, struct {
		Query string            `json:"query"`
		Hits  []store.SearchHit `json:"hits"`
	}{Query: q, Hits: hits})
}
