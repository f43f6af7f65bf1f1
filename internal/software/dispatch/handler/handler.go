package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"geo-dispatch/internal/domain/dispatch"
	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/ports"
)

// DispatchHTTPHandler adapts HTTP requests to the order and dispatch services.
type DispatchHTTPHandler struct {
	orders   ports.OrderService
	dispatch ports.DispatchService
	logger   *logger.Logger
	graph    ports.CityGraph
}

// NewDispatchHTTPHandler wires an HTTP handler around the services.
func NewDispatchHTTPHandler(
	orders ports.OrderService,
	dispatch ports.DispatchService,
	graph ports.CityGraph,
	logger *logger.Logger,
) *DispatchHTTPHandler {
	return &DispatchHTTPHandler{orders: orders, dispatch: dispatch, graph: graph, logger: logger}
}

// RegisterRoutes mounts the order, driver, dispatch and health endpoints on mux.
func (handler *DispatchHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", handler.handleCreateOrder)
	mux.HandleFunc("GET /orders/{order_id}", handler.handleGetOrder)
	mux.HandleFunc("POST /orders/{order_id}/dispatch-retry", handler.handleDispatchRetry)
	mux.HandleFunc("POST /drivers", handler.handleRegisterDriver)
	mux.HandleFunc("GET /health", handler.handleHealth)
}

// ----- Handler: GET /health -----

func (handler *DispatchHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	handler.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"status":      "ok",
		"graph_nodes": handler.graph.Len(),
	})
}

// ----- general helpers -----

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, driver.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrPathNotFound), errors.Is(err, geo.ErrInvalidNode):
		return http.StatusNotFound
	case errors.Is(err, order.ErrAlreadyAssigned), errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrNoCoverage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dispatch.ErrNoAvailableDrivers), errors.Is(err, dispatch.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, order.ErrNegativeValue),
		errors.Is(err, order.ErrIDRequired),
		errors.Is(err, driver.ErrIDRequired),
		errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// jsonResponse encodes data as the JSON response body.
func (handler *DispatchHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	buf := []byte("{}")
	if data != nil {
		var err error
		buf, err = json.Marshal(data)
		if err != nil {
			handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *DispatchHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnsupportedMediaType {
		action = "unsupported_media_type"
	}
	if status >= 500 && status != http.StatusServiceUnavailable {
		handler.logger.Error(ctx, action, msg, err, nil)
	} else {
		handler.logger.Info(ctx, action, msg, map[string]any{"status": status})
	}

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// serviceError reports err with its mapped status. Internal errors are not echoed.
func (handler *DispatchHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	handler.httpError(ctx, w, status, msg, err)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *DispatchHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = uuid.NewString()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// decodeJSON strictly decodes a JSON body of at most 1 MiB into dst.
func (handler *DispatchHTTPHandler) decodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return false
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}
