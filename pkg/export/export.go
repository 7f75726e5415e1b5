// Package export flattens a model tree into object records and writes them as
// a JSON document, optionally snappy-compressed.
package export

import (
	"strings"
	"time"

	"github.com/dd0wney/cluso-modelgraph/pkg/codec"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/parallel"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

// Object is one flattened node
type Object struct {
	ID            string         `json:"id"`
	Type          string         `json:"speckle_type"`
	ApplicationID string         `json:"applicationId"`
	Name          string         `json:"name"`
	Depth         int            `json:"depth"`
	Properties    map[string]any `json:"properties"`
}

// Document is the exported file
type Document struct {
	ProjectID      string    `json:"project_id"`
	ModelID        string    `json:"model_id"`
	VersionID      string    `json:"version_id,omitempty"`
	VersionMessage string    `json:"version_message,omitempty"`
	ExportedAt     time.Time `json:"exported_at"`
	Objects        []Object  `json:"objects"`
}

// Collect flattens root in pre-order into object records
func Collect(root *model.Node, w traverse.Walker) ([]Object, error) {
	entries, err := w.Flatten(root)
	if err != nil {
		return nil, err
	}
	return toObjects(entries), nil
}

// CollectParallel is Collect with child subtrees flattened on pool.
// The output order is identical to Collect.
func CollectParallel(root *model.Node, w traverse.Walker, pool *parallel.WorkerPool) ([]Object, error) {
	entries, err := w.FlattenParallel(root, pool)
	if err != nil {
		return nil, err
	}
	return toObjects(entries), nil
}

func toObjects(entries []traverse.Entry) []Object {
	objects := make([]Object, len(entries))
	for i, e := range entries {
		objects[i] = NewObject(e.Node, e.Depth)
	}
	return objects
}

// NewObject builds the record for a single node. Only non-null scalar and
// non-empty scalar list properties are kept; keys starting with an underscore
// are private and skipped. A node that is itself a mesh also carries its
// vertices, faces and units.
func NewObject(n *model.Node, depth int) Object {
	obj := Object{
		ID:            n.ID,
		Type:          n.Type,
		ApplicationID: n.ApplicationID,
		Name:          n.Name,
		Depth:         depth,
		Properties:    make(map[string]any),
	}
	for key, val := range n.Properties {
		if strings.HasPrefix(key, "_") {
			continue
		}
		switch val.Kind {
		case model.KindScalar:
			if s, _ := val.AsScalar(); s.Type == model.TypeNull {
				continue
			}
		case model.KindScalarList:
			if s, _ := val.AsScalars(); len(s) == 0 {
				continue
			}
		}
		if v, ok := val.Interface(); ok {
			obj.Properties[key] = v
		}
	}
	addMesh(obj.Properties, n.Mesh)
	return obj
}

func addMesh(props map[string]any, m *model.Mesh) {
	if m == nil {
		return
	}
	if len(m.Vertices) > 0 {
		props[codec.KeyVertices] = append([]float64(nil), m.Vertices...)
	}
	if len(m.Faces) > 0 {
		props[codec.KeyFaces] = append([]int(nil), m.Faces...)
	}
	if m.Units != "" {
		props[codec.KeyUnits] = m.Units
	}
}
