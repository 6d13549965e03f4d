package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the sympol2d collectors. It is separate from the prometheus
// default registry so tests can gather from it without global noise.
var Registry = prometheus.NewRegistry()

var (
	scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sympol2d",
		Name:      "scans_total",
		Help:      "Stacking scans by layer group and outcome.",
	}, []string{"layer_group", "outcome"})

	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sympol2d",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a full grid scan.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	pairsFound = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sympol2d",
		Name:      "pairs_found_total",
		Help:      "AB/BA pairs emitted, by polarization direction.",
	}, []string{"direction"})

	advisories = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sympol2d",
		Name:      "advisories_total",
		Help:      "Advisories raised while scanning, by kind.",
	}, []string{"kind"})
)

func init() {
	Registry.MustRegister(scansTotal, scanDuration, pairsFound, advisories)
}

// ObserveScan records the outcome of one scan. outcome is "ok" or an error
// class such as "unknown_layer_group".
func ObserveScan(layerGroup, outcome string, elapsed time.Duration) {
	scansTotal.WithLabelValues(layerGroup, outcome).Inc()
	if outcome == "ok" {
		scanDuration.Observe(elapsed.Seconds())
	}
}

// ObservePairs adds n emitted pairs for direction.
func ObservePairs(direction string, n int) {
	if n > 0 {
		pairsFound.WithLabelValues(direction).Add(float64(n))
	}
}

// ObserveAdvisory counts one advisory of the given kind.
func ObserveAdvisory(kind string) {
	advisories.WithLabelValues(kind).Inc()
}

// Handler serves the Registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
