package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WAQIAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smokewatch_waqi_api_calls_total",
			Help: "Total WAQI bounding-box API calls",
		},
		[]string{"endpoint", "status"},
	)

	WAQIAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smokewatch_waqi_api_latency_seconds",
			Help:    "WAQI API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smokewatch_evaluations_total",
			Help: "Total evaluation cycles run",
		},
		[]string{"source", "status"},
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smokewatch_alerts_fired_total",
			Help: "City alerts fired, by city and triggering rule",
		},
		[]string{"city", "rule"},
	)

	StationsMatched = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "smokewatch_stations_matched",
			Help: "Stations assigned a reading in the latest cycle, per city",
		},
		[]string{"city"},
	)
)
