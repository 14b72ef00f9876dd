// Package metrics exposes Prometheus counters for the HTTP layer and the
// lead lifecycle.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and every collector registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	LeadsCreated       prometheus.Counter
	LeadsAssigned      prometheus.Counter
	LeadsUnassigned    prometheus.Counter
	AssignmentRaces    prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
	BudgetSpend        *prometheus.CounterVec
	BudgetExceeded     prometheus.Counter
	ContactPurchases   *prometheus.CounterVec
	UnknownStatusInput prometheus.Counter
}

// New creates a registry with the Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		LeadsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_leads_created_total",
			Help: "Leads submitted",
		}),
		LeadsAssigned: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_leads_assigned_total",
			Help: "Leads assigned to a company by distribution",
		}),
		LeadsUnassigned: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_leads_unassigned_total",
			Help: "Distribution attempts that found no eligible company",
		}),
		AssignmentRaces: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_lead_assignment_races_total",
			Help: "Assignments lost to a concurrent distributor",
		}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "homni_lead_status_transitions_total",
			Help: "Lead status transitions by target status",
		}, []string{"to"}),
		BudgetSpend: f.NewCounterVec(prometheus.CounterOpts{
			Name: "homni_budget_spend_ore_total",
			Help: "Budget spend in øre by kind",
		}, []string{"kind"}),
		BudgetExceeded: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_budget_exceeded_total",
			Help: "Spends that pushed a company over a budget limit",
		}),
		ContactPurchases: f.NewCounterVec(prometheus.CounterOpts{
			Name: "homni_contact_purchases_total",
			Help: "Contact access purchases by level",
		}, []string{"level"}),
		UnknownStatusInput: f.NewCounter(prometheus.CounterOpts{
			Name: "homni_unknown_status_values_total",
			Help: "Raw status values that could not be normalized",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return gin.WrapH(h)
}

// Middleware records request counts and latency keyed by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
