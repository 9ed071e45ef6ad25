package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streamspigot/mastofeeder/internal/common"
)

// NewHandler serves the service metrics on a private registry, so that tests
// can build several handlers in one process.
func NewHandler(extra ...prometheus.Collector) http.Handler {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)

	for _, counter := range common.PromCounters {
		registry.MustRegister(counter)
	}

	for _, histogram := range common.PromHistograms {
		registry.MustRegister(histogram)
	}

	registry.MustRegister(extra...)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
