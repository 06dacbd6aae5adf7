package api

import (
	"errors"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
	"chatlog/pkg/store"
	"chatlog/pkg/utils"
)

func (a *API) ListChats(ctx *fasthttp.RequestCtx) {
	chats, err := a.deps.Store.ListChats()
	if err != nil {
		logger.Error("list_chats_failed", "error", err)
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to list chats")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, struct {
		Chats []models.ChatMeta `json:"chats"`
	}{Chats: chats})
}

func (a *API) GetChat(ctx *fasthttp.RequestCtx) {
	chatID, ok := chatIDParam(ctx)
	if !ok {
		return
	}
	meta, err := a.deps.Store.GetMeta(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSONError(ctx, fasthttp.StatusNotFound, "chat not found")
			return
		}
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to read chat")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, meta)
}

// ListMessages serves the canonical view of a chat, newest page last.
func (a *API) ListMessages(ctx *fasthttp.RequestCtx) {
	chatID, ok := chatIDParam(ctx)
	if !ok {
		return
	}
	var opts store.LoadOptions
	var err error
	if opts.Limit, err = queryLimit(ctx); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if opts.Before, err = queryInt64(ctx, "before"); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	if opts.After, err = queryInt64(ctx, "after"); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}

	page, err := a.deps.Store.LoadPage(chatID, opts)
	if err != nil {
		logger.Error("load_messages_failed", "chat_id", chatID, "error", err)
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to load messages")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, page)
}

// PruneChat prunes one chat under its ingest lock. Without max_count and
// max_age_days the configured retention limits apply; dry_run only plans.
func (a *API) PruneChat(ctx *fasthttp.RequestCtx) {
	chatID, ok := chatIDParam(ctx)
	if !ok {
		return
	}
	maxCount, err := queryInt(ctx, "max_count")
	if err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	maxAge, err := queryInt(ctx, "max_age_days")
	if err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	count, age := a.deps.MaxCount, a.deps.MaxAgeDays
	if maxCount != nil || maxAge != nil {
		count, age = 0, 0
		if maxCount != nil {
			count = *maxCount
		}
		if maxAge != nil {
			age = *maxAge
		}
	}

	var res store.PruneResult
	err = a.deps.Ingestor.Locks().WithLock(chatID, func() error {
		var perr error
		if queryBool(ctx, "dry_run") {
			res, perr = a.deps.Store.PlanPrune(chatID, count, age)
		} else {
			res, perr = a.deps.Store.Prune(chatID, count, age)
		}
		return perr
	})
	if err != nil {
		logger.Error("prune_failed", "chat_id", chatID, "error", err)
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to prune chat")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, res)
}
