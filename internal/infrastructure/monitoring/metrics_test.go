package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordTransition(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())

	m.RecordTransition("INSTALL_START", true)
	m.RecordTransition("UNINSTALL_SUCCESS", false)
	m.RecordTransition("UNINSTALL_SUCCESS", false)

	assert.Equal(t, 1.0, counterValue(t, m.StateTransitions.WithLabelValues("INSTALL_START", "accepted")))
	assert.Equal(t, 2.0, counterValue(t, m.StateTransitions.WithLabelValues("UNINSTALL_SUCCESS", "rejected")))
	assert.Equal(t, int64(2), m.Snapshot().RejectedTransitions)
}

func TestObserveStoreOp(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())

	m.ObserveStoreOp("bundles", "save", time.Millisecond, nil)
	m.ObserveStoreOp("bundles", "save", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 1.0, counterValue(t, m.StoreOps.WithLabelValues("bundles", "save", "success")))
	assert.Equal(t, 1.0, counterValue(t, m.StoreOps.WithLabelValues("bundles", "save", "error")))
}

func TestTimerNilMetrics(t *testing.T) {
	timer := NewTimer(nil, "install")
	assert.NotPanics(t, func() { timer.Stop("ERR_OK") })
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsWithRegistry(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/v1/bundles/:name", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/bundles/com.example.a", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 1.0, counterValue(t, m.RequestsTotal.WithLabelValues("GET", "/v1/bundles/:name", "404")))
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}
