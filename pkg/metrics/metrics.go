package metrics

import (
	"io"
	"runtime"
	"time"

	"github.com/prometheus/common/expfmt"
)

// Operation status labels
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// StatusFor maps an operation outcome to a status label
func StatusFor(found bool, err error) string {
	switch {
	case err != nil:
		return StatusError
	case !found:
		return StatusNotFound
	default:
		return StatusSuccess
	}
}

// RecordOperation records one tree operation with its duration
func (r *Registry) RecordOperation(operation, status string, duration time.Duration) {
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveNodesVisited records how many nodes a traversal touched
func (r *Registry) ObserveNodesVisited(operation string, n int) {
	r.NodesVisited.WithLabelValues(operation).Observe(float64(n))
}

// RecordCloneFallbacks counts properties shared by reference
func (r *Registry) RecordCloneFallbacks(n int) {
	if n > 0 {
		r.CloneFallbacksTotal.Add(float64(n))
	}
}

// RecordMalformedGeometry counts rejected vertex buffers
func (r *Registry) RecordMalformedGeometry(operation string, n int) {
	if n > 0 {
		r.MalformedGeometry.WithLabelValues(operation).Add(float64(n))
	}
}

// RecordExport records the size of a written export
func (r *Registry) RecordExport(objects int, bytes int64) {
	r.ObjectsExported.Observe(float64(objects))
	if bytes > 0 {
		r.ExportBytes.Observe(float64(bytes))
	}
}

// RecordIdentities counts computed content identities
func (r *Registry) RecordIdentities(n int) {
	if n > 0 {
		r.IdentitiesAssigned.Add(float64(n))
	}
}

// RecordPropertyWrites counts property writes for a scope ("root" or "child")
func (r *Registry) RecordPropertyWrites(scope string, n int) {
	if n > 0 {
		r.PropertiesAssigned.WithLabelValues(scope).Add(float64(n))
	}
}

// UpdateSystemMetrics samples the runtime
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(ms.Alloc))
	r.MemorySysBytes.Set(float64(ms.Sys))
}

// WriteText gathers every metric and writes it in the Prometheus text format
func (r *Registry) WriteText(w io.Writer) error {
	r.UpdateSystemMetrics()

	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
