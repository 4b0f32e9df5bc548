package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "momo_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "momo_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "momo_submissions_total",
		Help: "Transaction submissions by kind and result",
	}, []string{"kind", "result"})

	WorkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "momo_work_items_total",
		Help: "Work items handled by the queue processor",
	}, []string{"kind", "result"})

	ChannelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "momo_channel_call_duration_seconds",
		Help:    "Execution channel latency",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"kind"})

	ConfirmationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "momo_confirmations_total",
		Help: "Inbound confirmation notices by result",
	}, []string{"result"}) // matched, unmatched, dropped, duplicate

	SweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "momo_swept_transactions_total",
		Help: "Transactions failed by the stale sweeper",
	})
)
