package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus builds the registry served on the metrics listener: go
// runtime and process collectors, a constant version gauge, and any extra
// collectors such as the db pool stats.
func SetupPrometheus(version string, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if version == "" {
		version = "unknown"
	}
	versionGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "backend",
		Subsystem:   "fitdiary",
		Name:        "version_info",
		Help:        "Running fitdiary version, always 1.",
		ConstLabels: prometheus.Labels{"version": version},
	})
	versionGauge.Set(1)
	promRegistry.MustRegister(versionGauge)

	for _, c := range extraCollectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}
