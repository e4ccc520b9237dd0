package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/harvest-planner/generic"
	"github.com/warp/harvest-planner/metrics"
	"github.com/warp/harvest-planner/planner"
)

var _ planner.Observer = (*metrics.Collector)(nil)

func TestCollector_ObserveAssembly(t *testing.T) {
	c := metrics.NewCollector()

	c.ObserveAssembly(generic.Stats{Variables: 120, Constraints: 80, NonZeros: 400}, 3*time.Millisecond)

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		if g := f.GetMetric()[0].GetGauge(); g != nil {
			values[f.GetName()] = g.GetValue()
		}
	}
	assert.Equal(t, 120.0, values["harvest_planner_model_variables"])
	assert.Equal(t, 80.0, values["harvest_planner_model_constraints"])
	assert.Equal(t, 400.0, values["harvest_planner_model_nonzeros"])
}

func TestCollector_ObserveSolve(t *testing.T) {
	c := metrics.NewCollector()

	c.ObserveSolve("simplex", generic.StatusOptimal, time.Second)
	c.ObserveSolve("simplex", generic.StatusOptimal, time.Second)
	c.ObserveSolve("cbc", generic.StatusFailed, 0)

	body := scrape(t, c)
	assert.Contains(t, body, `harvest_planner_solves_total{solver="simplex",status="optimal"} 2`)
	assert.Contains(t, body, `harvest_planner_solves_total{solver="cbc",status="failed"} 1`)
	assert.Contains(t, body, `harvest_planner_solve_duration_seconds_count{solver="simplex"} 2`)
	assert.NotContains(t, body, `harvest_planner_solve_duration_seconds_count{solver="cbc"}`)
}

func TestCollector_RecordRequest(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordRequest("GET", "/api/plans/{id}", 404, 2*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(c.Registry(), "harvest_planner_http_requests_total"))
	assert.Contains(t, scrape(t, c), `route="/api/plans/{id}"`)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := metrics.NewCollector()
	b := metrics.NewCollector()

	a.ObserveSolve("simplex", generic.StatusOptimal, time.Second)

	assert.NotContains(t, scrape(t, b), "solves_total{")
}

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
