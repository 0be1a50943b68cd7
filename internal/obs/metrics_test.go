package obs_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alex-user-go/hotelsearch/internal/obs"
	"github.com/alex-user-go/hotelsearch/internal/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ search.Metrics = (*obs.Metrics)(nil)

func TestMetrics_Collectors(t *testing.T) {
	m := obs.NewMetrics(prometheus.NewRegistry())

	m.ObserveCatalogCall(search.OpSearchByTerm, "ok", 0.01)
	m.ObserveCatalogCall(search.OpSearchByTerm, "ok", 0.02)
	m.ObserveCatalogCall(search.OpListCities, "network_error", 0.5)
	m.IncSuperseded(search.OpFindAvailable)
	m.IncStatus("loading")
	m.IncStatus("success")
	m.SetSessions(3)
	m.IncRateLimitDrops()
	m.ObserveHTTPRequest("POST", "POST /sessions", "201", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CatalogCalls.WithLabelValues(search.OpSearchByTerm, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogCalls.WithLabelValues(search.OpListCities, "network_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SupersededTotal.WithLabelValues(search.OpFindAvailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitDropsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "POST /sessions", "201")))
}

func TestMetrics_Handler(t *testing.T) {
	m := obs.NewMetrics(prometheus.NewRegistry())
	m.IncSuperseded(search.OpSearchByTerm)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `search_superseded_total{op="search_by_term"} 1`)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	obs.HealthHandler(slog.New(slog.DiscardHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
