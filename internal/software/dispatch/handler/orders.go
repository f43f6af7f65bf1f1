package handler

import (
	"net/http"
	"strings"

	"geo-dispatch/internal/ports"
)

// --- Request DTOs (HTTP boundary) ---

type createOrderRequest struct {
	OrderValue     float64  `json:"order_value"`
	DestinationLat *float64 `json:"destination_lat"`
	DestinationLon *float64 `json:"destination_lon"`
}

type registerDriverRequest struct {
	DriverID  string   `json:"driver_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ----- Handler: POST /orders -----

func (handler *DispatchHTTPHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req createOrderRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}
	if req.DestinationLat == nil || req.DestinationLon == nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "destination_lat and destination_lon are required", nil)
		return
	}

	view, err := handler.orders.CreateOrder(ctx, ports.CreateOrderInput{
		Value:          req.OrderValue,
		DestinationLat: *req.DestinationLat,
		DestinationLon: *req.DestinationLon,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusCreated, view)
}

// ----- Handler: GET /orders/{order_id} -----

func (handler *DispatchHTTPHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	view, err := handler.orders.GetOrder(ctx, r.PathValue("order_id"))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, view)
}

// ----- Handler: POST /orders/{order_id}/dispatch-retry -----

func (handler *DispatchHTTPHandler) handleDispatchRetry(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	orderID := strings.TrimSpace(r.PathValue("order_id"))
	if orderID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "order_id is required", nil)
		return
	}

	res, err := handler.dispatch.AssignDriverToOrder(ctx, orderID)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, res)
}

// ----- Handler: POST /drivers -----

func (handler *DispatchHTTPHandler) handleRegisterDriver(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	var req registerDriverRequest
	if !handler.decodeJSON(ctx, w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "latitude and longitude are required", nil)
		return
	}

	view, err := handler.orders.RegisterDriver(ctx, ports.RegisterDriverInput{
		DriverID:  req.DriverID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, view)
}
