package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/config"
	"expiry-backend/internal/shared/metrics"
	"expiry-backend/internal/shared/server/middleware"
)

const (
	apiPrefix = "/api/v1"

	rateGroupOTP     = "OTP"
	rateGroupRead    = "READ"
	rateGroupDefault = "DEFAULT"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps lists everything the router needs. Nil registrars are skipped.
type RouterDeps struct {
	Config      config.Config
	Verifier    middleware.TokenVerifier
	Revocations middleware.RevocationChecker
	RateLimiter *middleware.RateLimiter

	Health    RouteRegistrar
	Auth      RouteRegistrar
	Profile   RouteRegistrar
	Documents RouteRegistrar
	Views     RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.Use(
		middleware.Auth(deps.Verifier, deps.Revocations, apiPrefix+"/health", apiPrefix+"/auth/"),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupOTP:     middleware.PerMinute(deps.Config.OTPPerIPPerMinute),
				rateGroupRead:    middleware.PerMinute(deps.Config.ReadPerMinute),
				rateGroupDefault: middleware.PerMinute(deps.Config.WritePerMinute),
			},
		}),
	)

	for _, registrar := range []RouteRegistrar{deps.Health, deps.Auth, deps.Profile, deps.Documents, deps.Views} {
		if registrar != nil {
			registrar.RegisterRoutes(api)
		}
	}
	return r
}

func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	switch {
	case strings.HasPrefix(path, apiPrefix+"/auth/otp/"):
		return rateGroupOTP
	case c.Request.Method == http.MethodGet:
		return rateGroupRead
	default:
		return rateGroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
