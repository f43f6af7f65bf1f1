package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"geo-dispatch/internal/general/jwt"
	"geo-dispatch/internal/ports"
)

const serviceTimeout = 5 * time.Second

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ----- Handler: POST /drivers/{driver_id}/online -----

func (handler *DriverHTTPHandler) handleGoOnline(w http.ResponseWriter, r *http.Request) {
	handler.driverCall(w, r, handler.svc.GoOnline)
}

// ----- Handler: POST /drivers/{driver_id}/offline -----

func (handler *DriverHTTPHandler) handleGoOffline(w http.ResponseWriter, r *http.Request) {
	handler.driverCall(w, r, handler.svc.GoOffline)
}

func (handler *DriverHTTPHandler) driverCall(w http.ResponseWriter, r *http.Request, call func(context.Context, string) (ports.DriverView, error)) {
	ctx := handler.withReqID(r.Context(), r)

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	if driverID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing driver_id in path", nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := call(ctx, driverID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /drivers/{driver_id}/location -----

func (handler *DriverHTTPHandler) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	driverID := strings.TrimSpace(r.PathValue("driver_id"))
	if driverID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing driver_id in path", nil)
		return
	}

	var req updateLocationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "latitude and longitude are required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	res, err := handler.svc.UpdateLocation(ctx, ports.UpdateLocationInput{
		DriverID:  driverID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /orders/{order_id}/complete -----

func (handler *DriverHTTPHandler) handleCompleteDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	orderID := strings.TrimSpace(r.PathValue("order_id"))
	if orderID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "missing order_id in path", nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, serviceTimeout)
	defer cancel()

	in := ports.CompleteDeliveryInput{OrderID: orderID}
	if claims, ok := jwt.FromContext(r.Context()); ok && claims.Role == jwt.RoleDriver {
		in.DriverID = claims.Subject
	}

	res, err := handler.svc.CompleteDelivery(ctx, in)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}
