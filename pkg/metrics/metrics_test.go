package metrics

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.OperationsTotal == nil {
		t.Error("OperationsTotal not initialized")
	}
	if r.OperationDuration == nil {
		t.Error("OperationDuration not initialized")
	}
	if r.NodesVisited == nil {
		t.Error("NodesVisited not initialized")
	}
	if r.CloneFallbacksTotal == nil {
		t.Error("CloneFallbacksTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordOperation(t *testing.T) {
	r := NewRegistry()

	r.RecordOperation("duplicate", StatusSuccess, 10*time.Millisecond)
	r.RecordOperation("duplicate", StatusSuccess, 20*time.Millisecond)
	r.RecordOperation("duplicate", StatusNotFound, 5*time.Millisecond)

	success, err := r.OperationsTotal.GetMetricWithLabelValues("duplicate", StatusSuccess)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, success); got != 2 {
		t.Errorf("Success counter = %v, want 2", got)
	}

	notFound, _ := r.OperationsTotal.GetMetricWithLabelValues("duplicate", StatusNotFound)
	if got := counterValue(t, notFound); got != 1 {
		t.Errorf("Not found counter = %v, want 1", got)
	}

	histogram, err := r.OperationDuration.GetMetricWithLabelValues("duplicate")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := histogram.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("Sample count = %v, want 3", metric.Histogram.GetSampleCount())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		found bool
		err   error
		want  string
	}{
		{true, nil, StatusSuccess},
		{false, nil, StatusNotFound},
		{true, errors.New("boom"), StatusError},
		{false, errors.New("boom"), StatusError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.found, tt.err); got != tt.want {
			t.Errorf("StatusFor(%v, %v) = %q, want %q", tt.found, tt.err, got, tt.want)
		}
	}
}

func TestTreeCounters(t *testing.T) {
	r := NewRegistry()

	r.RecordCloneFallbacks(2)
	r.RecordCloneFallbacks(0)
	r.RecordIdentities(5)
	r.RecordMalformedGeometry("offset", 1)
	r.RecordPropertyWrites("child", 3)

	if got := counterValue(t, r.CloneFallbacksTotal); got != 2 {
		t.Errorf("CloneFallbacksTotal = %v, want 2", got)
	}
	if got := counterValue(t, r.IdentitiesAssigned); got != 5 {
		t.Errorf("IdentitiesAssigned = %v, want 5", got)
	}

	malformed, _ := r.MalformedGeometry.GetMetricWithLabelValues("offset")
	if got := counterValue(t, malformed); got != 1 {
		t.Errorf("MalformedGeometry = %v, want 1", got)
	}

	writes, _ := r.PropertiesAssigned.GetMetricWithLabelValues("child")
	if got := counterValue(t, writes); got != 3 {
		t.Errorf("PropertiesAssigned = %v, want 3", got)
	}
}

func TestRecordExport(t *testing.T) {
	r := NewRegistry()
	r.RecordExport(42, 2048)

	var metric dto.Metric
	if err := r.ObjectsExported.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleSum() != 42 {
		t.Errorf("Objects sum = %v, want 42", metric.Histogram.GetSampleSum())
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	var metric dto.Metric
	if err := r.GoRoutines.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() < 1 {
		t.Errorf("GoRoutines = %v, want at least 1", metric.Gauge.GetValue())
	}

	if err := r.MemorySysBytes.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() <= 0 {
		t.Errorf("MemorySysBytes = %v, want > 0", metric.Gauge.GetValue())
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.RecordOperation("find", StatusSuccess, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	counter, _ := r.OperationsTotal.GetMetricWithLabelValues("find", StatusSuccess)
	if got := counterValue(t, counter); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordOperation("find", StatusSuccess, time.Millisecond)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("No metrics registered")
	}

	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), "modelgraph_") {
			t.Errorf("Metric %s does not have modelgraph_ prefix", m.GetName())
		}
	}
}

func TestWriteText(t *testing.T) {
	r := NewRegistry()
	r.RecordOperation("export", StatusSuccess, time.Millisecond)

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`modelgraph_operations_total{operation="export",status="success"} 1`,
		"modelgraph_uptime_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func BenchmarkRecordOperation(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordOperation("find", StatusSuccess, time.Millisecond)
	}
}
