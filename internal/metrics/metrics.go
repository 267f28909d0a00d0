package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the converter's collectors. It is separate from the default
// registry so the textfile only carries conversion metrics.
var Registry = prometheus.NewRegistry()

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pt2rknn",
			Name:      "conversions_total",
			Help:      "Total number of conversion runs",
		},
		[]string{"platform", "result"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pt2rknn",
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage", "result"},
	)

	artifactBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pt2rknn",
			Name:      "artifact_bytes",
			Help:      "Size of the last exported RKNN artifact",
		},
		[]string{"platform"},
	)

	lastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pt2rknn",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful conversion",
		},
		[]string{"platform"},
	)
)

func init() {
	Registry.MustRegister(conversionsTotal, stageDuration, artifactBytes, lastSuccess)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStage records how long a stage took and whether it failed.
func ObserveStage(stage string, d time.Duration, err error) {
	stageDuration.WithLabelValues(stage, resultLabel(err)).Observe(d.Seconds())
}

// ObserveConversion records the outcome of a whole run.
func ObserveConversion(platform string, size int64, err error) {
	if platform == "" {
		platform = "unknown"
	}
	conversionsTotal.WithLabelValues(platform, resultLabel(err)).Inc()
	if err == nil {
		artifactBytes.WithLabelValues(platform).Set(float64(size))
		lastSuccess.WithLabelValues(platform).SetToCurrentTime()
	}
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, Registry)
}
