package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCounters(t *testing.T) {
	s := NewService()

	s.JobEnqueued("device_analysis")
	s.JobEnqueued("device_analysis")
	s.JobFinished("single", 30*time.Millisecond)
	s.JobFinished("failed", time.Second)
	s.RecordEvent("job.failed", map[string]string{"job_id": "j1"})

	assert.Equal(t, 2.0, testutil.ToFloat64(s.jobsEnqueued.WithLabelValues("device_analysis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.jobsFinished.WithLabelValues("single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("job.failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.jobDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	s := NewService()
	s.JobEnqueued("fan_out")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `triaxis_jobs_enqueued_total{kind="fan_out"} 1`)
}
