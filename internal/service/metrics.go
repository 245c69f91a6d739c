package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/catalog/internal/reconcile"
)

var reconcileRows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_reconcile_rows_total",
		Help: "Child rows touched by product writes, by collection and outcome",
	},
	[]string{"collection", "outcome"},
)

func recordCounts(collection string, c reconcile.Counts) {
	reconcileRows.WithLabelValues(collection, "inserted").Add(float64(c.Inserted))
	reconcileRows.WithLabelValues(collection, "updated").Add(float64(c.Updated))
	reconcileRows.WithLabelValues(collection, "deleted").Add(float64(c.Deleted))
	reconcileRows.WithLabelValues(collection, "unchanged").Add(float64(c.Unchanged))
	reconcileRows.WithLabelValues(collection, "skipped").Add(float64(c.Skipped))
}
