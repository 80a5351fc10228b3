package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for query submission and pagination.
var (
	bqQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bq_queries_total",
		Help: "Total query submissions by result (ok, error, invalid)",
	}, []string{"result"})

	bqPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bq_pages_fetched_total",
		Help: "Total result pages received, including the first page of each query",
	})

	bqRowsDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bq_rows_delivered_total",
		Help: "Total result rows handed to callers",
	})
)
