package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTreeMetrics() {
	r.NodesVisited = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelgraph_nodes_visited",
			Help:    "Number of nodes visited per traversal",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
		[]string{"operation"},
	)

	r.CloneFallbacksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "modelgraph_clone_fallbacks_total",
			Help: "Total number of properties shared by reference during a clone",
		},
	)

	r.MalformedGeometry = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgraph_malformed_geometry_total",
			Help: "Total number of vertex buffers whose length is not a multiple of three",
		},
		[]string{"operation"},
	)

	r.ObjectsExported = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelgraph_objects_exported",
			Help:    "Number of objects written per export",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
	)

	r.ExportBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelgraph_export_bytes",
			Help:    "Size of written export documents in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	r.IdentitiesAssigned = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "modelgraph_identities_assigned_total",
			Help: "Total number of content identities computed",
		},
	)

	r.PropertiesAssigned = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgraph_properties_assigned_total",
			Help: "Total number of property writes",
		},
		[]string{"scope"},
	)
}
