package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the mutation counter.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics holds the queue's prometheus collectors on a private registry.
type Metrics struct {
	registry  *prom.Registry
	mutations *prom.CounterVec
	deadlines prom.Counter
	released  prom.Counter
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		mutations: prom.NewCounterVec(
			prom.CounterOpts{
				Namespace: "taskaction",
				Subsystem: "queue",
				Name:      "mutations_total",
				Help:      "Queue mutations by operation and outcome.",
			}, []string{"operation", "outcome"},
		),
		deadlines: prom.NewCounter(
			prom.CounterOpts{
				Namespace: "taskaction",
				Subsystem: "queue",
				Name:      "deadline_exceeded_total",
				Help:      "Tasks resolved as exception because their deadline passed.",
			},
		),
		released: prom.NewCounter(
			prom.CounterOpts{
				Namespace: "taskaction",
				Subsystem: "queue",
				Name:      "dependents_scheduled_total",
				Help:      "Tasks scheduled after their dependencies resolved.",
			},
		),
	}
	m.registry.MustRegister(m.mutations, m.deadlines, m.released)
	return m
}

func (m *Metrics) observe(operation string, status int) {
	outcome := outcomeOK
	switch {
	case status >= http.StatusInternalServerError:
		outcome = outcomeError
	case status >= http.StatusBadRequest:
		outcome = outcomeRejected
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// count wraps a mutating handler so its response status is recorded.
func (m *Metrics) count(operation string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		m.observe(operation, status)
		return err
	}
}
