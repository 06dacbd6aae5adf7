package api

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
	"chatlog/pkg/store"
	"chatlog/pkg/utils"
)

func (a *API) ListConnections(ctx *fasthttp.RequestCtx) {
	utils.WriteJSON(ctx, fasthttp.StatusOK, struct {
		Connections []models.ConnectionRecord `json:"connections"`
	}{Connections: a.deps.Store.ListConnections()})
}

func (a *API) ActiveConnection(ctx *fasthttp.RequestCtx) {
	id, ok := a.deps.Store.ActiveConnectionID()
	if !ok {
		utils.WriteJSONError(ctx, fasthttp.StatusNotFound, "no enabled connection")
		return
	}
	rec, err := a.deps.Store.GetConnection(id)
	if err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to read connection")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, rec)
}

func (a *API) GetConnection(ctx *fasthttp.RequestCtx) {
	rec, err := a.deps.Store.GetConnection(pathParam(ctx, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSONError(ctx, fasthttp.StatusNotFound, "connection not found")
			return
		}
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to read connection")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, rec)
}

// PutConnection upserts a connection record; the path id wins over the body.
func (a *API) PutConnection(ctx *fasthttp.RequestCtx) {
	var rec models.ConnectionRecord
	if err := json.Unmarshal(ctx.PostBody(), &rec); err != nil {
		utils.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid JSON connection")
		return
	}
	rec.ID = pathParam(ctx, "id")
	saved, err := a.deps.Store.SaveConnection(rec)
	if err != nil {
		logger.Error("save_connection_failed", "connection_id", rec.ID, "error", err)
		utils.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to save connection")
		return
	}
	utils.WriteJSON(ctx, fasthttp.StatusOK, saved)
}
