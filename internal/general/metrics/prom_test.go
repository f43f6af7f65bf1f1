package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPromMetrics(reg)
	require.NoError(t, err)

	m.ObserveDispatch("assigned", 0.01)
	m.ObserveDispatch("assigned", 0.02)
	m.ObserveDispatch("no_coverage", 0.001)
	m.IncBookingConflict()
	m.IncCandidateExcluded("path_not_found")
	m.SetGraphNodes(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("assigned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("no_coverage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.excluded.WithLabelValues("path_not_found")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.nodes))
}

func TestPromMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromMetrics(reg)
	require.NoError(t, err)
	second, err := NewPromMetrics(reg)
	require.NoError(t, err)

	first.IncBookingConflict()
	second.IncBookingConflict()
	assert.Equal(t, 2.0, testutil.ToFloat64(first.conflicts))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPromMetrics(reg)
	require.NoError(t, err)
	m.SetGraphNodes(3)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "road_graph_nodes 3")
}
