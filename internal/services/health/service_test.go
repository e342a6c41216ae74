package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func TestStatusWithoutBackingStores(t *testing.T) {
	report := NewService(nil, nil).Status(context.Background())
	assert.True(t, report.OK)
	assert.Equal(t, map[string]string{"database": "memory", "redis": "memory"}, report.Checks)
}

func TestStatusReportsFailingDependency(t *testing.T) {
	svc := NewService(
		pingFunc(func(context.Context) error { return nil }),
		checkFunc(func(context.Context) error { return errors.New("connection refused") }),
	)
	report := svc.Status(context.Background())
	assert.False(t, report.OK)
	assert.Equal(t, "ok", report.Checks["database"])
	assert.Equal(t, "unavailable", report.Checks["redis"])
}

func TestHealthRouteStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := gin.New()
	NewService(nil, nil).RegisterRoutes(healthy.Group("/api/v1"))
	resp := httptest.NewRecorder()
	healthy.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	broken := gin.New()
	NewService(pingFunc(func(context.Context) error { return errors.New("down") }), nil).
		RegisterRoutes(broken.Group("/api/v1"))
	resp = httptest.NewRecorder()
	broken.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
