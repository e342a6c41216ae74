package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	otpRequestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expiry_otp_requested_total",
		Help: "OTP send attempts by result",
	}, []string{"result"})

	otpVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expiry_otp_verified_total",
		Help: "OTP verification attempts by result",
	}, []string{"result"})

	documentWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expiry_document_writes_total",
		Help: "Document create/update/delete operations by result",
	}, []string{"op", "result"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "expiry_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "route", "status"})
)

// IncOTPRequested records an OTP send attempt.
func IncOTPRequested(result string) {
	otpRequestedTotal.WithLabelValues(result).Inc()
}

// IncOTPVerified records an OTP verification attempt.
func IncOTPVerified(result string) {
	otpVerifiedTotal.WithLabelValues(result).Inc()
}

// IncDocumentWrite records a document mutation.
func IncDocumentWrite(op, result string) {
	documentWritesTotal.WithLabelValues(op, result).Inc()
}

// ObserveRequestDurationMs records request latency for a matched route.
func ObserveRequestDurationMs(method, route string, status int, value float64) {
	if value < 0 {
		value = 0
	}
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
