package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-dispatch/internal/domain/dispatch"
	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/general/memstore"
	"geo-dispatch/internal/graph"
	"geo-dispatch/internal/pathfinder"
	"geo-dispatch/internal/ports"
	"geo-dispatch/internal/software/dispatch/service"
)

func newServer(t *testing.T) (*httptest.Server, ports.DriverRepository) {
	t.Helper()
	g, err := graph.New(0)
	require.NoError(t, err)
	for _, n := range []geo.LocationNode{
		{ID: "A", Lat: 10, Lon: 74},
		{ID: "C", Lat: 8, Lon: 10},
		{ID: "E", Lat: 81, Lon: 63},
	} {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddRoad("A", "C", 2))
	require.NoError(t, g.AddRoad("C", "E", 3))

	log := logger.NewWithWriter("handler-test", io.Discard)
	store := memstore.New()
	orders := memstore.NewOrderRepo(store)
	drivers := memstore.NewDriverRepo(store)
	uow := memstore.NewUnitOfWork(store)

	dispatchSvc := service.NewDispatchService(log, uow, orders, drivers, g, pathfinder.NewDijkstra(), nil, nil, 40)
	orderSvc := service.NewOrderService(log, uow, orders, drivers, nil)

	mux := http.NewServeMux()
	NewDispatchHTTPHandler(orderSvc, dispatchSvc, g, log).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, drivers
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestOrderLifecycle(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/drivers", `{"driver_id":"driver-1","latitude":10.1,"longitude":74.1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "AVAILABLE", body["status"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders", `{"order_value":12.5,"destination_lat":81.1,"destination_lon":63.1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDING", body["status"])
	assert.Nil(t, body["driver_id"])
	orderID, ok := body["id"].(string)
	require.True(t, ok)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/dispatch-retry", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "driver-1", body["driver_id"])
	assert.Equal(t, 5.0, body["distance_km"])
	assert.Equal(t, 7.5, body["estimated_time_minutes"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ASSIGNED", body["status"])
	assert.Equal(t, "driver-1", body["driver_id"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/dispatch-retry", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDispatchRetryErrors(t *testing.T) {
	srv, drivers := newServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/orders/missing/dispatch-retry", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, order.ErrNotFound.Error(), body["error"])

	_, body = doJSON(t, http.MethodPost, srv.URL+"/orders", `{"order_value":1,"destination_lat":10.1,"destination_lon":74.1}`)
	orderID := body["id"].(string)

	// no drivers registered yet
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/dispatch-retry", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// a driver at E cannot reach A
	d, err := driver.NewDriver("stuck", 81, 63)
	require.NoError(t, err)
	require.NoError(t, drivers.Create(context.Background(), d))
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/orders/"+orderID+"/dispatch-retry", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestValidation(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown field", "/orders", `{"order_value":1,"destination_lat":1,"destination_lon":1,"x":1}`, http.StatusBadRequest},
		{"missing destination", "/orders", `{"order_value":1}`, http.StatusBadRequest},
		{"negative value", "/orders", `{"order_value":-1,"destination_lat":1,"destination_lon":1}`, http.StatusBadRequest},
		{"bad latitude", "/orders", `{"order_value":1,"destination_lat":100,"destination_lon":1}`, http.StatusBadRequest},
		{"missing position", "/drivers", `{"driver_id":"d"}`, http.StatusBadRequest},
		{"malformed", "/drivers", `{`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/orders", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/orders/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 3.0, body["graph_nodes"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{order.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", geo.ErrPathNotFound), http.StatusNotFound},
		{order.ErrAlreadyAssigned, http.StatusConflict},
		{dispatch.ErrNoCoverage, http.StatusUnprocessableEntity},
		{dispatch.ErrNoAvailableDrivers, http.StatusServiceUnavailable},
		{dispatch.ErrUnavailable, http.StatusServiceUnavailable},
		{geo.ErrInvalidLatitude, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
