// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phonehub"

var (
	authFlows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_flow_total",
		Help:      "Completed auth flows by flow and outcome.",
	}, []string{"flow", "outcome"})

	gateOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_gate_total",
		Help:      "Bearer tokens seen by the authentication gate, by outcome.",
	}, []string{"outcome"})

	accessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Requests rejected by the access enforcer, by status.",
	}, []string{"status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Flow outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Gate outcomes.
const (
	GateAuthenticated = "authenticated"
	GateRefreshed     = "refreshed"
	GateRefreshFailed = "refresh_failed"
	GateUserNotFound  = "user_not_found"
	GateRejected      = "rejected"
	GateError         = "error"
)

// ObserveFlow counts one run of an auth flow. outcome is OutcomeSuccess or
// a short failure reason.
func ObserveFlow(flow, outcome string) {
	authFlows.WithLabelValues(flow, outcome).Inc()
}

func ObserveGate(outcome string) {
	gateOutcomes.WithLabelValues(outcome).Inc()
}

func ObserveDenied(status int) {
	accessDenials.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Middleware records request latency keyed by the registered route pattern.
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if err != nil && errors.As(err, &he) {
			status = he.Code
		} else if err != nil {
			status = http.StatusInternalServerError
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		requestDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
