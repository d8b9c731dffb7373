package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.SkippedEvent("missing_timestamp")
	r.SkippedEvent("missing_timestamp")
	r.SkippedEvent("invalid_event_type")
	r.CacheResult("hit")
	r.ObserveReport("stages", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.skippedEvents.WithLabelValues("missing_timestamp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skippedEvents.WithLabelValues("invalid_event_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.reportSeconds))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.SkippedEvent("missing_timestamp")
		r.CacheResult("miss")
		r.ObserveReport("live", time.Second)
	})
	assert.NotNil(t, r.Handler())
}

func TestHandlerExposesCollectors(t *testing.T) {
	r := NewRecorder()
	r.CacheResult("miss")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stage_analytics_cache_requests_total{result="miss"} 1`)
}
