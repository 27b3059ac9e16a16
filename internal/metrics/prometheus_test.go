package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObserveFetch("github_trending", 20, nil, time.Second)
	r.ObserveFetch("github_trending", 5, nil, time.Second)
	r.ObserveFetch("product_hunt", 0, errors.New("down"), time.Second)
	r.ObserveOracleCall("prediction_category", nil, 200*time.Millisecond)
	r.ObserveOracleCall("prediction_category", errors.New("timeout"), time.Second)
	r.ObserveOracleCall("prediction_category", nil, 300*time.Millisecond)
	r.RecordRun(time.Minute, nil, time.Unix(1700000000, 0))
	r.RecordPersistError("supabase")

	assert.Equal(t, 25.0, testutil.ToFloat64(r.fetchedRecords.WithLabelValues("github_trending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchErrors.WithLabelValues("product_hunt")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.oracleCalls.WithLabelValues("prediction_category", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.oracleCalls.WithLabelValues("prediction_category", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("ok")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.persistErrors.WithLabelValues("supabase")))
}

func TestRecorder_Handler(t *testing.T) {
	r := New(nil)
	r.RecordPersistError("local")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `techpulse_persist_errors_total{destination="local"} 1`)
}

func TestNew_IsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
