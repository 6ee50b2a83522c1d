package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "descstore_loads_total",
			Help: "Number of load attempts by result",
		},
		[]string{"table", "result"},
	)
	metricLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "descstore_load_duration_seconds",
			Help:    "Duration of load attempts, including parsing",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"table"},
	)
	metricLoadInputBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "descstore_load_input_bytes_total",
			Help: "Number of input bytes read by loads",
		},
		[]string{"table"},
	)
	metricLoadLastRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "descstore_load_last_rows",
			Help: "Number of rows in the last successful load",
		},
		[]string{"table"},
	)
	metricLoadLastTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "descstore_load_last_success_unix_seconds",
			Help: "UNIX timestamp of the last successful load",
		},
		[]string{"table"},
	)
	metricRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "descstore_rows",
			Help: "Number of rows in the table after the last load",
		},
		[]string{"table"},
	)
	metricQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "descstore_queries_total",
			Help: "Number of queries by operation and result",
		},
		[]string{"table", "op", "result"},
	)
)

func init() {
	prometheus.MustRegister(metricLoads)
	prometheus.MustRegister(metricLoadDuration)
	prometheus.MustRegister(metricLoadInputBytes)
	prometheus.MustRegister(metricLoadLastRows)
	prometheus.MustRegister(metricLoadLastTimestamp)
	prometheus.MustRegister(metricRows)
	prometheus.MustRegister(metricQueries)
}
