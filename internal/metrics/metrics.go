package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobportal"

var PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "payment",
	Name:      "initiated_total",
	Help:      "Count of payment initiations by plan",
}, []string{"plan"})

var CallbackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "payment",
	Name:      "callbacks_total",
	Help:      "Count of gateway callbacks by kind and terminal outcome",
}, []string{"kind", "outcome"})

var StatusCheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "esewa",
	Name:      "status_check_duration_seconds",
	Help:      "Duration of eSewa status-check calls",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
}, []string{"result"})

var SubscriptionsActivated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "subscription",
	Name:      "activated_total",
	Help:      "Count of subscriptions created by activation",
}, []string{"plan"})

var WorkerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "worker",
	Name:      "runs_total",
	Help:      "Count of background worker runs",
}, []string{"worker", "status"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "Duration of HTTP requests",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// ObserveStatusCheck records one status-check call
func ObserveStatusCheck(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "unavailable"
	}
	StatusCheckDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// Middleware measures request duration per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, http.StatusText(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
