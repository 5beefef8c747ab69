package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, "meridian_http_requests_total")
	require.Contains(t, body, `code="418"`)
}

func TestTransitionCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveTransition("order", "ship")
	metrics.ObserveTransition("order", "ship")
	metrics.ObserveStaleRejection("order")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	var shipLine string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "meridian_lifecycle_transitions_total") && strings.Contains(line, `action="ship"`) {
			shipLine = line
		}
	}
	require.NotEmpty(t, shipLine)
	require.True(t, strings.HasSuffix(shipLine, " 2"))
	require.Contains(t, body, "meridian_lifecycle_stale_rejections_total")
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveTransition("order", "ship")
	metrics.ObserveStaleRejection("order")

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
