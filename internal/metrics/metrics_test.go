package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Mounted()
	m.Mounted()
	m.Unmounted("idle")
	m.ModeChanged("compact")
	m.Navigated("next", "wide")
	m.Navigated("next", "wide")
	m.UpdateCoalesced()

	require.Equal(t, 2.0, testutil.ToFloat64(m.mounts))
	require.Equal(t, 1.0, testutil.ToFloat64(m.mounted))
	require.Equal(t, 1.0, testutil.ToFloat64(m.unmounts.WithLabelValues("idle")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.modeChanges.WithLabelValues("compact")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.navigations.WithLabelValues("next", "wide")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.coalesced))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Mounted()
	m.Unmounted("explicit")
	m.StreamOpened()
	m.StreamClosed()
	require.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.StreamOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "artifacts_shell_streams 1")
	require.Contains(t, string(body), "go_goroutines")
}
