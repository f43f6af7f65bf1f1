package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/jwt"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/ports"
)

// DriverHTTPHandler adapts HTTP requests to the DriverOpsService.
type DriverHTTPHandler struct {
	svc    ports.DriverOpsService
	logger *logger.Logger
	auth   *jwt.Manager
}

// NewDriverHTTPHandler wires an HTTP handler around the DriverOpsService.
// A nil auth manager leaves the routes open.
func NewDriverHTTPHandler(svc ports.DriverOpsService, logger *logger.Logger, auth *jwt.Manager) *DriverHTTPHandler {
	return &DriverHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts driver operation endpoints on the provided mux.
func (handler *DriverHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	self := jwt.RequireSelf(handler.auth, "driver_id")
	mux.HandleFunc("POST /drivers/{driver_id}/online", self(handler.handleGoOnline))
	mux.HandleFunc("POST /drivers/{driver_id}/offline", self(handler.handleGoOffline))
	mux.HandleFunc("POST /drivers/{driver_id}/location", self(handler.handleUpdateLocation))
	mux.HandleFunc("POST /orders/{order_id}/complete",
		jwt.Require(handler.auth, jwt.RoleDriver, jwt.RoleAdmin)(handler.handleCompleteDelivery),
	)
}

// ----- general helpers -----

func statusFor(err error) int {
	switch {
	case errors.Is(err, driver.ErrNotFound), errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, driver.ErrInvalidStatusSwitch),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, ports.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, geo.ErrInvalidLatitude), errors.Is(err, geo.ErrInvalidLongitude):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotAssignedDriver):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// jsonResponse takes any type of data and encode it to HTTP response.
func (handler *DriverHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (handler *DriverHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	if status >= 500 {
		handler.logger.Error(ctx, "http_internal_error", msg, err, nil)
	} else {
		handler.logger.Info(ctx, "request_failed", msg, map[string]any{"status": status})
	}
	handler.jsonResponse(ctx, w, status, map[string]string{"error": msg})
}

func (handler *DriverHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	handler.httpError(ctx, w, status, msg, err)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *DriverHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = uuid.NewString()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
