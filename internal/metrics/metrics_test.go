package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/msomdec/fraudshield/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordAnalysis("Fraud")
		m.RecordTranscription("ok")
		m.ObserveInference(time.Second)
		m.RecordInferenceFailure("upload")
		m.RecordNotification("report", nil)
		m.RecordHTTPRequest("GET", 200)
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := metrics.New()

	m.RecordAnalysis("Fraud")
	m.RecordAnalysis("Fraud")
	m.RecordAnalysis("Normal")
	m.RecordNotification("report", nil)
	m.RecordNotification("report", errors.New("smtp down"))
	m.RecordHTTPRequest("POST", 429)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Analyses.WithLabelValues("Fraud")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues("Normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("report", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("report", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "429")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := metrics.New()
	m.RecordInferenceFailure("poll")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fraudshield_inference_failures_total{stage="poll"} 1`)
}
