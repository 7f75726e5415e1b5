// Package transform moves geometry attached to model nodes.
//
// Transforms are shallow: only geometry owned by the given node is touched,
// never its children. Use ApplyTree for a subtree-wide move.
package transform

import (
	"errors"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

// Policy maps one point to another.
type Policy interface {
	Point(x, y, z float64) (float64, float64, float64)
	// IsIdentity reports whether the policy leaves every point untouched.
	IsIdentity() bool
}

// Translate shifts points by a fixed offset. A zero component leaves that
// coordinate bit-for-bit unchanged, including negative zero.
type Translate struct {
	DX, DY, DZ float64
}

// Point applies the translation
func (t Translate) Point(x, y, z float64) (float64, float64, float64) {
	if t.DX != 0 {
		x += t.DX
	}
	if t.DY != 0 {
		y += t.DY
	}
	if t.DZ != 0 {
		z += t.DZ
	}
	return x, y, z
}

// IsIdentity reports whether all components are zero
func (t Translate) IsIdentity() bool {
	return t.DX == 0 && t.DY == 0 && t.DZ == 0
}

// OffsetX adds delta to the X coordinate of every point owned by n.
// Repeated calls compound.
func OffsetX(n *model.Node, delta float64) error {
	return Apply(n, Translate{DX: delta})
}

// Apply transforms every geometry shape n carries, in priority order: display
// meshes, the node's own mesh, base point, location. All present shapes are
// transformed. A malformed vertex buffer is left untouched and reported;
// remaining buffers are still processed. A node without geometry is a no-op.
func Apply(n *model.Node, p Policy) error {
	if n == nil {
		return model.NewError("transform").Cause(model.ErrNilNode).Err()
	}
	if p.IsIdentity() {
		return validate(n)
	}

	var errs []error
	if n.Display != nil {
		for i, m := range n.Display.Meshes {
			if err := applyMesh(m, p); err != nil {
				errs = append(errs, model.NewError("transform").Node(n).Field("displayValue").Index(i).Length(len(m.Vertices)).Cause(err).Err())
			}
		}
	}
	if n.Mesh != nil {
		if err := applyMesh(n.Mesh, p); err != nil {
			errs = append(errs, model.NewError("transform").Node(n).Field("vertices").Length(len(n.Mesh.Vertices)).Cause(err).Err())
		}
	}
	applyPoint(n.BasePoint, p)
	applyPoint(n.Location, p)

	return errors.Join(errs...)
}

// ApplyTree applies p to every node of the subtree rooted at root.
// Geometry errors are collected; a traversal error stops the walk.
func ApplyTree(root *model.Node, w traverse.Walker, p Policy) error {
	var errs []error
	err := w.Walk(root, func(e traverse.Entry) error {
		if err := Apply(e.Node, p); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// validate reports malformed buffers without moving anything.
func validate(n *model.Node) error {
	var errs []error
	if n.Display != nil {
		for i, m := range n.Display.Meshes {
			if err := m.Validate(); err != nil {
				errs = append(errs, model.NewError("transform").Node(n).Field("displayValue").Index(i).Length(len(m.Vertices)).Cause(model.ErrMalformedGeometry).Err())
			}
		}
	}
	if err := n.Mesh.Validate(); err != nil {
		errs = append(errs, model.NewError("transform").Node(n).Field("vertices").Length(len(n.Mesh.Vertices)).Cause(model.ErrMalformedGeometry).Err())
	}
	return errors.Join(errs...)
}

func applyMesh(m *model.Mesh, p Policy) error {
	if m == nil {
		return nil
	}
	v := m.Vertices
	if len(v)%3 != 0 {
		return model.ErrMalformedGeometry
	}
	for i := 0; i < len(v); i += 3 {
		v[i], v[i+1], v[i+2] = p.Point(v[i], v[i+1], v[i+2])
	}
	return nil
}

func applyPoint(pt *model.Point, p Policy) {
	if pt == nil {
		return
	}
	pt.X, pt.Y, pt.Z = p.Point(pt.X, pt.Y, pt.Z)
}
