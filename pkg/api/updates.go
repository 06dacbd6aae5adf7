package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/ingest"
	"chatlog/pkg/utils"
)

// PostUpdate ingests one Telegram update.
func (a *API) PostUpdate(ctx *fasthttp.RequestCtx) {
	var u ingest.Update
	if err := json.Unmarshal(ctx.PostBody(), &u); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON update")
		return
	}
	res, err := a.deps.Ingestor.Handle(context.Background(), u)
	switch {
	case err == nil:
		utils.WriteJSON(ctx, fasthttp.StatusOK, res)
	case errors.Is(err, ingest.ErrUnsupportedUpdate):
		// acknowledged so the sender does not redeliver it
		utils.WriteJSON(ctx, fasthttp.StatusAccepted, res)
	case errors.Is(err, ingest.ErrInvalidUpdate):
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, err.Error())
	default:
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to store update")
	}
}
