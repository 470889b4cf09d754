// Package metrics exposes prometheus instruments for lifecycle actions and document work.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fixed_asset"

type metrics struct {
	transitions    *prometheus.CounterVec
	documentRender *prometheus.HistogramVec
	mailDelivery   *prometheus.CounterVec
	reportCache    *prometheus.CounterVec
	assetsCreated  prometheus.Counter
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Total number of committed asset request status transitions.",
		}, []string{"from", "to"}),
		documentRender: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_seconds",
			Help:      "Latency distribution for PDF and XLSX rendering.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"document", "result"}),
		mailDelivery: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_delivery_total",
			Help:      "Total number of purchase order mail deliveries.",
		}, []string{"result"}),
		reportCache: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups.",
		}, []string{"report", "result"}),
		assetsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_registered_total",
			Help:      "Total number of asset rows registered.",
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveTransition(from, to string) {
	getMetrics().transitions.WithLabelValues(from, to).Inc()
}

// ObserveRender records how long rendering document took since start.
func ObserveRender(document string, start time.Time, err error) {
	getMetrics().documentRender.WithLabelValues(document, result(err)).Observe(time.Since(start).Seconds())
}

func ObserveMail(err error) {
	getMetrics().mailDelivery.WithLabelValues(result(err)).Inc()
}

func ObserveCache(report string, hit bool) {
	r := "miss"
	if hit {
		r = "hit"
	}
	getMetrics().reportCache.WithLabelValues(report, r).Inc()
}

func AddAssetsRegistered(n int) {
	getMetrics().assetsCreated.Add(float64(n))
}
