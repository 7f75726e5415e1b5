package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "field with index",
			err:      NewError("offset").Node(&Node{Name: "Floor B"}).Field("displayValue").Index(2).Length(5).Cause(ErrMalformedGeometry).Err(),
			expected: `offset node "Floor B" (field displayValue[2]) length 5: ` + ErrMalformedGeometry.Error(),
		},
		{
			name:     "field without index",
			err:      NewError("validate").Field("vertices").Cause(fmt.Errorf("bad")).Err(),
			expected: "validate (field vertices): bad",
		},
		{
			name:     "depth",
			err:      NewError("flatten").Depth(17).Cause(ErrDepthExceeded).Err(),
			expected: "flatten at depth 17: " + ErrDepthExceeded.Error(),
		},
		{
			name:     "minimal",
			err:      NewError("clone").Cause(ErrNilNode).Err(),
			expected: "clone: nil node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	err := NewError("offset").Cause(ErrMalformedGeometry).Err()
	wrapped := fmt.Errorf("duplicate: %w", err)

	if !IsMalformedGeometry(wrapped) {
		t.Error("IsMalformedGeometry should see through wrapping")
	}
	if IsDepthExceeded(wrapped) {
		t.Error("IsDepthExceeded should be false")
	}

	var me *Error
	if !errors.As(wrapped, &me) || me.Op != "offset" {
		t.Errorf("errors.As failed: %v", me)
	}
	if me.Is(nil) {
		t.Error("Is(nil) should be false")
	}

	joined := errors.Join(errors.New("other"), NewError("flatten").Cause(ErrDepthExceeded).Err())
	if !IsDepthExceeded(joined) {
		t.Error("IsDepthExceeded should see through errors.Join")
	}
}

func TestMeshValidate(t *testing.T) {
	if err := NewMesh(1, 2, 3, 4, 5, 6).Validate(); err != nil {
		t.Errorf("valid mesh: %v", err)
	}
	if err := NewMesh().Validate(); err != nil {
		t.Errorf("empty mesh: %v", err)
	}
	var nilMesh *Mesh
	if err := nilMesh.Validate(); err != nil {
		t.Errorf("nil mesh: %v", err)
	}
	if err := NewMesh(1, 2, 3, 4, 5).Validate(); !IsMalformedGeometry(err) {
		t.Errorf("length 5: expected malformed geometry, got %v", err)
	}
	if NewMesh(1, 2, 3, 4, 5, 6, 7).PointCount() != 2 {
		t.Error("PointCount should count whole points")
	}
}

func TestGeometryClone(t *testing.T) {
	m := &Mesh{Vertices: []float64{1, 2, 3}, Faces: []int{3, 0, 1, 2}, Units: "mm"}
	d := ListDisplay(m)
	c := d.Clone()

	c.Meshes[0].Vertices[0] = 99
	c.Meshes[0].Faces[0] = 4
	if m.Vertices[0] != 1 || m.Faces[0] != 3 {
		t.Error("display clone aliases the source mesh")
	}
	if !c.List || c.Meshes[0].Units != "mm" {
		t.Error("display clone lost metadata")
	}

	p := &Point{X: 1, Y: 2, Z: 3}
	pc := p.Clone()
	pc.X = 5
	if p.X != 1 {
		t.Error("point clone aliases the source")
	}

	var nilDisplay *Display
	if nilDisplay.Clone() != nil {
		t.Error("nil display clone should be nil")
	}
}

func TestCountMalformedGeometry(t *testing.T) {
	bad := func(i int) error {
		return NewError("transform").Index(i).Cause(ErrMalformedGeometry).Err()
	}
	depth := NewError("walk").Cause(ErrDepthExceeded).Err()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"single", bad(0), 1},
		{"joined", errors.Join(bad(0), bad(1)), 2},
		{"nested joins", errors.Join(errors.Join(bad(0), bad(1)), bad(2), depth), 3},
		{"unrelated", depth, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountMalformedGeometry(tt.err); got != tt.want {
				t.Errorf("CountMalformedGeometry() = %d, want %d", got, tt.want)
			}
		})
	}
}
