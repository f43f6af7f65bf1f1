package handler

import (
	"context"
	"net/http"
	"time"
)

// --- Handler: GET /admin/overview ---

func (handler *AdminHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	overview, err := handler.svc.GetSystemOverview(ctx)
	if err != nil {
		handler.httpError(ctx, w, http.StatusInternalServerError, "failed to fetch system overview", err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, overview)
}
