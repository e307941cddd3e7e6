package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clatterlab/clatter/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNil(t *testing.T) {
	assert.Nil(t, New(config.MetricsConfig{Enabled: false}))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnOpened()
		m.ConnClosed()
		m.EventDone("signin", "ok", time.Now())
		m.Delivered(3)
		m.DeliveryFailed()
	})
}

func TestMetrics_Endpoint(t *testing.T) {
	m := New(config.MetricsConfig{Enabled: true, Namespace: "clatter"})
	require.NotNil(t, m)

	m.ConnOpened()
	m.EventDone("send public", "ok", time.Now())
	m.Delivered(2)
	m.DeliveryFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "clatter_connections_active 1")
	assert.Contains(t, body, "clatter_broadcast_deliveries_total 2")
	assert.Contains(t, body, "clatter_broadcast_failures_total 1")
}
