package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("posts", 150*time.Millisecond)
	pr.IncStageResult("posts", ResultSuccess)
	pr.ObserveBuildDuration("full", 500*time.Millisecond)
	pr.IncBuildOutcome("full", OutcomeSuccess)
	pr.AddPosts(3, 1)
	pr.IncReloadBroadcast()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	require.InDelta(t, 3, counterValue(t, reg, "blogbuilder_posts_total", "built"), 0)
	require.InDelta(t, 1, counterValue(t, reg, "blogbuilder_posts_total", "skipped"), 0)
	require.InDelta(t, 1, counterValue(t, reg, "blogbuilder_build_outcomes_total", "success"), 0)
	require.InDelta(t, 1, counterValue(t, reg, "blogbuilder_reload_broadcasts_total", ""), 0)
}

// counterValue sums the counter samples of a family whose labels include labelValue.
func counterValue(t *testing.T, reg *prom.Registry, family, labelValue string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := labelValue == ""
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					matched = true
				}
			}
			if matched {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("x", time.Second)
	pr.IncBuildOutcome("x", OutcomeFailed)
	pr.AddPosts(1, 1)
	pr.IncReloadBroadcast()
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncReloadBroadcast()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "blogbuilder_reload_broadcasts_total")
}

func TestNewRegistryExposesRuntimeMetrics(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).AddPosts(2, 0)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "go_goroutines")
	require.Contains(t, body, "promhttp_metric_handler_requests_total")
}
