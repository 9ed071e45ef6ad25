package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	TimelinePagesFetched       = "timeline_pages_fetched_total"
	TimelineStatusesServed     = "timeline_statuses_served_total"
	UpstreamFailures           = "upstream_failures_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "status_code"}),
		TimelinePagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TimelinePagesFetched,
			Help: "Count of timeline pages requested from instances",
		}, []string{"timeline"}),
		TimelineStatusesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: TimelineStatusesServed,
			Help: "Count of statuses written into feeds",
		}, []string{"timeline"}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: UpstreamFailures,
			Help: "Count of failed calls to instances",
		}, []string{"operation"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "status_code"}),
	}
)
