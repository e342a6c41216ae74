package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/server/respond"
	"expiry-backend/internal/shared/telemetry"
)

const checkTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker is satisfied by the Redis client.
type Checker interface {
	Health(ctx context.Context) error
}

// Service encapsulates health-related checks. Nil dependencies are reported
// as "memory" since the app then runs on in-memory stores.
type Service struct {
	DB    Pinger
	Cache Checker
}

// NewService constructs a new health service.
func NewService(db Pinger, cache Checker) *Service {
	return &Service{DB: db, Cache: cache}
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Status runs every configured check.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	report := Report{OK: true, Checks: map[string]string{}}
	check := func(name string, run func(context.Context) error) {
		if run == nil {
			report.Checks[name] = "memory"
			return
		}
		if err := run(ctx); err != nil {
			report.OK = false
			report.Checks[name] = "unavailable"
			telemetry.Warn("health.check_failed", map[string]any{"check": name, "error": err.Error()})
			return
		}
		report.Checks[name] = "ok"
	}
	var dbCheck, cacheCheck func(context.Context) error
	if s.DB != nil {
		dbCheck = s.DB.PingContext
	}
	if s.Cache != nil {
		cacheCheck = s.Cache.Health
	}
	check("database", dbCheck)
	check("redis", cacheCheck)
	return report
}

// RegisterRoutes attaches GET /health.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		report := s.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
}
