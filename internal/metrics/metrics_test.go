package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultSuccess, Result(nil))
	assert.Equal(t, ResultFailure, Result(errors.New("boom")))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SavesTotal.WithLabelValues(ResultFailure))
	SavesTotal.WithLabelValues(Result(errors.New("quota"))).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SavesTotal.WithLabelValues(ResultFailure)))
}

func TestCollectMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CollectMetrics())
	engine.GET("/api/sections/:section", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.CollectAndCount(requestDuration)

	for _, path := range []string{"/api/sections/planning", "/api/sections/devQa", "/nowhere"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// Both section requests share the route template label
	assert.Equal(t, before+2, testutil.CollectAndCount(requestDuration))
}
