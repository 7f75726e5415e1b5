// Package edit composes traversal, cloning and transforms into the model
// editing workflows: duplicating an object beside itself, stamping metadata on
// the root and rewriting child properties inside a named collection.
package edit

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-modelgraph/pkg/clone"
	"github.com/dd0wney/cluso-modelgraph/pkg/config"
	"github.com/dd0wney/cluso-modelgraph/pkg/logging"
	"github.com/dd0wney/cluso-modelgraph/pkg/metrics"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/transform"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
	"github.com/dd0wney/cluso-modelgraph/pkg/validation"
)

// Operation names used for logs and metrics
const (
	OpDuplicate       = "duplicate"
	OpSetRootProps    = "set_root_properties"
	OpAssignChildProp = "assign_child_properties"
)

// DefaultCopyName names a copy whose source has no name
const DefaultCopyName = "Object"

// Editor runs editing workflows against an in-memory model tree
type Editor struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
	walker  traverse.Walker
}

// NewEditor creates an editor. A nil config uses the defaults, a nil logger
// the default logger and a nil registry the default registry.
func NewEditor(cfg *config.Config, logger logging.Logger, reg *metrics.Registry) *Editor {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Editor{
		config:  cfg,
		logger:  logging.OrDefault(logger).With(logging.Component("editor")),
		metrics: reg,
		walker:  cfg.Walker(),
	}
}

// Walker returns the traversal walker the editor uses
func (e *Editor) Walker() traverse.Walker {
	return e.walker
}

// Duplicate is the outcome of a duplicate-with-offset workflow
type Duplicate struct {
	// Source is the matched node inside the live tree.
	Source *model.Node
	// Copy is the detached clone now appended to the root's children.
	Copy *model.Node
	// Report lists clone degradations.
	Report *clone.Report
	// GeometryErr holds malformed buffers the offset skipped, if any.
	GeometryErr error
	// Message is a human readable change summary.
	Message string
}

// Duplicate finds the node with the given application id, clones it with a
// fresh identity, renames it with the configured suffix, shifts it along X by
// dx and appends it to root's children. Root loses its identity since its
// children changed. A missing target returns nil, nil.
//
// Malformed geometry does not stop the splice; it is returned in
// Duplicate.GeometryErr.
func (e *Editor) Duplicate(root *model.Node, applicationID string, dx float64) (*Duplicate, error) {
	start := time.Now()
	timer := logging.StartTimer(e.logger, "duplicate object",
		logging.Operation(OpDuplicate), logging.ApplicationID(applicationID), logging.Offset(dx))

	if root == nil {
		err := model.NewError(OpDuplicate).Cause(model.ErrNilNode).Err()
		timer.EndError(err)
		e.metrics.RecordOperation(OpDuplicate, metrics.StatusError, time.Since(start))
		return nil, err
	}

	target, err := e.walker.FindFirst(root, traverse.ApplicationIDEquals(applicationID))
	if err != nil {
		timer.EndError(err)
		e.metrics.RecordOperation(OpDuplicate, metrics.StatusError, time.Since(start))
		return nil, err
	}
	if target == nil {
		e.logger.Warn("object not found", logging.ApplicationID(applicationID))
		e.metrics.RecordOperation(OpDuplicate, metrics.StatusNotFound, time.Since(start))
		return nil, nil
	}

	copied, report := clone.WithNewIdentity(target,
		clone.WithMaxDepth(e.walker.MaxDepth),
		clone.WithFallbackHook(func(f clone.Fallback) {
			e.logger.Warn("property copied by reference", logging.Path(f.Path), logging.Error(f.Reason))
		}))
	if report.Err != nil {
		timer.EndError(report.Err)
		e.metrics.RecordOperation(OpDuplicate, metrics.StatusError, time.Since(start))
		return nil, report.Err
	}
	copied.Name = e.copyName(target)

	geomErr := transform.OffsetX(copied, dx)
	if geomErr != nil {
		e.logger.Warn("malformed geometry skipped", logging.NodeName(copied.Name), logging.Error(geomErr))
	}

	root.AppendChild(copied)
	root.ID = ""

	e.metrics.RecordCloneFallbacks(len(report.Fallbacks))
	e.metrics.RecordMalformedGeometry(OpDuplicate, model.CountMalformedGeometry(geomErr))
	e.metrics.RecordOperation(OpDuplicate, metrics.StatusSuccess, time.Since(start))
	timer.End(logging.NodeName(copied.Name), logging.String("copy_application_id", copied.ApplicationID))

	return &Duplicate{
		Source:      target,
		Copy:        copied,
		Report:      report,
		GeometryErr: geomErr,
		Message:     fmt.Sprintf("Duplicated object %s with X offset %g", applicationID, dx),
	}, nil
}

func (e *Editor) copyName(src *model.Node) string {
	name := src.Name
	if name == "" {
		name = DefaultCopyName
	}
	return name + validation.DefaultOr(e.config.CopySuffix, config.DefaultCopySuffix)
}

// SetRootProperties writes each entry as a property of root and clears the
// root's identity. Keys are validated before anything is written, so a bad key
// leaves root untouched.
func (e *Editor) SetRootProperties(root *model.Node, props map[string]model.Value) error {
	start := time.Now()
	if root == nil {
		e.metrics.RecordOperation(OpSetRootProps, metrics.StatusError, time.Since(start))
		return model.NewError(OpSetRootProps).Cause(model.ErrNilNode).Err()
	}

	for key := range props {
		if err := validation.ValidatePropertyKey(key); err != nil {
			e.metrics.RecordOperation(OpSetRootProps, metrics.StatusError, time.Since(start))
			return model.NewError(OpSetRootProps).Node(root).Field(key).Cause(fmt.Errorf("%w: %v", model.ErrInvalidProperty, err)).Err()
		}
	}

	for key, val := range props {
		if err := root.SetProperty(key, val); err != nil {
			e.metrics.RecordOperation(OpSetRootProps, metrics.StatusError, time.Since(start))
			return err
		}
	}
	if len(props) > 0 {
		root.ID = ""
	}

	e.metrics.RecordPropertyWrites("root", len(props))
	e.metrics.RecordOperation(OpSetRootProps, metrics.StatusSuccess, time.Since(start))
	e.logger.Info("root properties set", logging.Operation(OpSetRootProps), logging.Count(len(props)))
	return nil
}

// AssignChildProperties finds the first collection named collection and pairs
// its children, in order, with values. For every child that carries a nested
// node property bagKey, field is set inside that bag. Extra children or extra
// values are ignored. Updated children and their ancestors lose their
// identity. It returns the
// number of children updated; a missing collection updates nothing and is not
// an error.
func (e *Editor) AssignChildProperties(root *model.Node, collection, bagKey, field string, values []model.Value) (int, error) {
	start := time.Now()
	if err := validation.ValidatePropertyKey(field); err != nil {
		e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusError, time.Since(start))
		return 0, model.NewError(OpAssignChildProp).Field(field).Cause(fmt.Errorf("%w: %v", model.ErrInvalidProperty, err)).Err()
	}

	target, err := e.walker.FindFirst(root, traverse.CollectionNamed(collection))
	if err != nil {
		e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusError, time.Since(start))
		return 0, err
	}
	if target == nil {
		e.logger.Warn("collection not found", logging.String("collection", collection))
		e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusNotFound, time.Since(start))
		return 0, nil
	}

	updated := 0
	for i, child := range target.Children {
		if i >= len(values) {
			break
		}
		if child == nil {
			continue
		}
		bag, ok := child.Properties[bagKey].AsNode()
		if !ok || bag == nil {
			continue
		}
		if err := bag.SetProperty(field, values[i]); err != nil {
			e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusError, time.Since(start))
			return updated, err
		}
		// Stale identities are recomputed on the next identity pass.
		bag.ID = ""
		child.ID = ""
		updated++
	}
	if updated > 0 {
		if _, err := InvalidatePath(root, target, e.walker); err != nil {
			e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusError, time.Since(start))
			return updated, err
		}
	}

	e.metrics.RecordPropertyWrites("child", updated)
	e.metrics.RecordOperation(OpAssignChildProp, metrics.StatusSuccess, time.Since(start))
	e.logger.Info("child properties assigned",
		logging.String("collection", collection),
		logging.String("field", bagKey+"."+field),
		logging.Count(updated))
	return updated, nil
}
