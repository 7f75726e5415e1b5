package export

import (
	"io"
	"time"

	"github.com/dd0wney/cluso-modelgraph/pkg/config"
	"github.com/dd0wney/cluso-modelgraph/pkg/logging"
	"github.com/dd0wney/cluso-modelgraph/pkg/metrics"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/parallel"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

const opExport = "export"

// Exporter writes export documents with the configured settings
type Exporter struct {
	config  config.ExportConfig
	walker  traverse.Walker
	pool    *parallel.WorkerPool
	logger  logging.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewExporter creates an exporter. pool may be nil for a sequential walk.
func NewExporter(cfg *config.Config, pool *parallel.WorkerPool, logger logging.Logger, reg *metrics.Registry) *Exporter {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Exporter{
		config:  cfg.Export,
		walker:  cfg.Walker(),
		pool:    pool,
		logger:  logging.OrDefault(logger).With(logging.Component("exporter")),
		metrics: reg,
		now:     time.Now,
	}
}

// Export flattens root and writes the document to w. versionID and message
// describe the source version and may be empty.
func (e *Exporter) Export(w io.Writer, root *model.Node, versionID, message string) (*Document, error) {
	start := time.Now()
	timer := logging.StartTimer(e.logger, "export model", logging.Operation(opExport))

	objects, err := CollectParallel(root, e.walker, e.pool)
	if err != nil {
		timer.EndError(err)
		e.metrics.RecordOperation(opExport, metrics.StatusError, time.Since(start))
		return nil, err
	}
	e.metrics.ObserveNodesVisited(opExport, len(objects))

	doc := &Document{
		ProjectID:      e.config.ProjectID,
		ModelID:        e.config.ModelID,
		VersionID:      versionID,
		VersionMessage: message,
		ExportedAt:     e.now().UTC(),
		Objects:        objects,
	}

	n, err := Write(w, doc, Options{Indent: e.config.Indent, Compress: e.config.Compress})
	if err != nil {
		timer.EndError(err)
		e.metrics.RecordOperation(opExport, metrics.StatusError, time.Since(start))
		return nil, err
	}

	e.metrics.RecordExport(len(objects), n)
	e.metrics.RecordOperation(opExport, metrics.StatusSuccess, time.Since(start))
	timer.End(logging.Count(len(objects)), logging.Int("bytes", int(n)), logging.Bool("compressed", e.config.Compress))
	return doc, nil
}
