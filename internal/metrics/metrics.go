// Package metrics exposes Prometheus counters for backend traffic and visitors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like
type Collector struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	visitors    prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retaildash_api_requests_total",
			Help: "Backend API requests by method and status. Status 0 means no response.",
		}, []string{"method", "status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "retaildash_api_refresh_total",
			Help: "Session refresh attempts by outcome.",
		}, []string{"outcome"}),
		visitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "retaildash_visitors_active",
			Help: "Visitors with a live session in this process.",
		}),
	}
	c.registry.MustRegister(c.apiRequests, c.refreshes, c.visitors)
	return c
}

func (c *Collector) ObserveRequest(method string, status int) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (c *Collector) ObserveRefresh(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetVisitors(n int) {
	c.visitors.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
