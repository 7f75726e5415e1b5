package model

// Point is a single location in model space
type Point struct {
	X     float64
	Y     float64
	Z     float64
	Units string
}

// Mesh is a display mesh. Vertices is a flat buffer of x, y, z triples.
type Mesh struct {
	Vertices []float64
	Faces    []int
	Units    string
}

// Display is a node's visual geometry: one mesh, or an ordered list of meshes.
type Display struct {
	Meshes []*Mesh
	// List records whether the source held a sequence rather than a single payload.
	List bool
}

// SingleDisplay wraps one mesh as a display payload
func SingleDisplay(m *Mesh) *Display {
	return &Display{Meshes: []*Mesh{m}}
}

// ListDisplay wraps meshes as a display sequence
func ListDisplay(meshes ...*Mesh) *Display {
	return &Display{Meshes: meshes, List: true}
}

// NewMesh creates a mesh from a vertex buffer
func NewMesh(vertices ...float64) *Mesh {
	return &Mesh{Vertices: vertices}
}

// Validate checks the vertex buffer holds whole points.
func (m *Mesh) Validate() error {
	if m == nil {
		return nil
	}
	if len(m.Vertices)%3 != 0 {
		return NewError("validate").Field("vertices").Length(len(m.Vertices)).Cause(ErrMalformedGeometry).Err()
	}
	return nil
}

// PointCount returns the number of whole points in the buffer
func (m *Mesh) PointCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 3
}

// Clone creates a deep copy of a mesh. The buffer is copied verbatim even when malformed.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	clone := &Mesh{Units: m.Units}
	if m.Vertices != nil {
		clone.Vertices = make([]float64, len(m.Vertices))
		copy(clone.Vertices, m.Vertices)
	}
	if m.Faces != nil {
		clone.Faces = make([]int, len(m.Faces))
		copy(clone.Faces, m.Faces)
	}
	return clone
}

// Clone creates a deep copy of a display payload
func (d *Display) Clone() *Display {
	if d == nil {
		return nil
	}
	clone := &Display{List: d.List, Meshes: make([]*Mesh, len(d.Meshes))}
	for i, m := range d.Meshes {
		clone.Meshes[i] = m.Clone()
	}
	return clone
}

// Clone creates a copy of a point
func (p *Point) Clone() *Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
