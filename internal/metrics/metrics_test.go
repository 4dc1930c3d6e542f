package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/products/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/products/:id", "200"))

	req := httptest.NewRequest(http.MethodGet, "/products/17", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/products/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(ordersPlaced)
	OrderPlaced()
	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlaced))

	OrderFailed("")
	assert.GreaterOrEqual(t, testutil.ToFloat64(orderFailures.WithLabelValues("unknown")), 1.0)

	inv := testutil.ToFloat64(cacheInvalidations)
	CacheInvalidated(3)
	assert.Equal(t, inv+3, testutil.ToFloat64(cacheInvalidations))
}

func TestHandlerExposesRegistry(t *testing.T) {
	OrderPlaced()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storefront_orders_placed_total"))
}
