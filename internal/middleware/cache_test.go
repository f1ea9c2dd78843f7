package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/adfleet/material-availability/internal/config"
)

func cacheContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	// The availability read is mounted on a parameterized route; the
	// pattern is identical for every plan.
	c.SetPath("/v1/plans/:id/availability")
	return c
}

func TestCacheKeyDistinguishesPathParams(t *testing.T) {
	cfg := config.LoadCacheConfig()

	k1 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability?start=2026-03-01"))
	k2 := cacheKey(cfg, cacheContext("/v1/plans/PLN-2/availability?start=2026-03-01"))
	assert.NotEqual(t, k1, k2, "different plans must not share a cached verdict")
}

func TestCacheKeyDistinguishesQuery(t *testing.T) {
	cfg := config.LoadCacheConfig()

	k1 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability?start=2026-03-01"))
	k2 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability?start=2026-04-01"))
	assert.NotEqual(t, k1, k2, "different start dates must not share a cached verdict")
}

func TestCacheKeyIsStableForRepeatedRequests(t *testing.T) {
	cfg := config.LoadCacheConfig()

	k1 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability?start=2026-03-01"))
	k2 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability?start=2026-03-01"))
	assert.Equal(t, k1, k2)
}

func TestCacheKeyStrategiesKeyOnConcretePath(t *testing.T) {
	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		cfg := config.CacheConfig{KeyStrategy: strategy, Prefix: "avail"}
		k1 := cacheKey(cfg, cacheContext("/v1/plans/PLN-1/availability"))
		k2 := cacheKey(cfg, cacheContext("/v1/plans/PLN-2/availability"))
		assert.NotEqual(t, k1, k2, "strategy %s collapsed two plans into one key", strategy)
	}
}
