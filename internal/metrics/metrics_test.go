package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndNilSafety(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.CheckIn(CheckInOK)
	nilMetrics.Payment(100)
	nilMetrics.Expired(1)

	m := New(prometheus.NewRegistry())
	m.CheckIn(CheckInOK)
	m.CheckIn(CheckInOK)
	m.CheckIn(CheckInNoMembership)
	m.Payment(4990)
	m.Expired(0)
	m.Expired(2)

	if got := testutil.ToFloat64(m.checkIns.WithLabelValues(CheckInOK)); got != 2 {
		t.Fatalf("ok check-ins = %v", got)
	}
	if got := testutil.ToFloat64(m.revenue); got != 4990 {
		t.Fatalf("revenue = %v", got)
	}
	if got := testutil.ToFloat64(m.expired); got != 2 {
		t.Fatalf("expired = %v", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/v1/classes/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for _, p := range []string{"/v1/classes/1", "/v1/classes/2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/v1/classes/:id", "204")); got != 2 {
		t.Fatalf("requests = %v", got)
	}
}
