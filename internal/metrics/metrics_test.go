package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event("notes_copied", 3)
		m.SetEntities(map[string]int64{"classes": 1})
		m.ObserveRequest("GET", "/health", 200, time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsAndEntities(t *testing.T) {
	m := New()
	m.Event("notes_copied", 2)
	m.Event("notes_copied", 0)
	m.Event("notes_copied", 1)
	m.SetEntities(map[string]int64{"classes": 4, "weeks": 9})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.events.WithLabelValues("notes_copied")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.entities.WithLabelValues("classes")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.entities.WithLabelValues("weeks")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/v1/classes", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `classplan_http_requests_total{method="GET",route="/api/v1/classes",status="200"} 1`))
	assert.Contains(t, body, "classplan_http_request_duration_seconds_bucket")
}
