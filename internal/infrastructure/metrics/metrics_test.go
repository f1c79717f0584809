package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observa(t *testing.T) {
	m := New()
	m.ObserveHTTP("POST", "/api/auth/password-login", 200, 10*time.Millisecond)
	m.ObserveHTTP("POST", "/api/auth/password-login", 200, 5*time.Millisecond)
	m.ObserveStore("hasura", "InsertRole", time.Millisecond, errors.New("x"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `agromarket_http_requests_total{method="POST",route="/api/auth/password-login",status="200"} 2`)
	assert.Contains(t, string(body), `agromarket_store_operation_duration_seconds_count{backend="hasura",operation="InsertRole",outcome="error"} 1`)
}

func TestMetrics_ReceptorNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
		m.ObserveStore("memory", "x", time.Millisecond, nil)
		m.ObserveLock("memory", time.Millisecond, nil)
	})
}
