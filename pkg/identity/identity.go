// Package identity derives content identities for model nodes.
//
// A node's identity is a blake2b-128 digest of its own content plus the
// identities of its children, so any change below a node changes the node's
// identity. Assign fills in identities that are unset after an edit, such as
// on a fresh clone and on every ancestor it was spliced under.
package identity

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"math"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

// Size is the digest length in bytes; identities are twice as many hex characters.
const Size = 16

// Value tags in the canonical encoding
const (
	tagNode byte = iota + 1
	tagScalar
	tagScalarList
	tagNodeValue
	tagNodeList
	tagHandle
	tagMesh
	tagPoint
	tagChildren
	tagEnd
)

// Assign sets the identity of every node whose ID is unset, and of every
// ancestor of such a node, using the default depth bound. It returns the
// number of identities written.
func Assign(root *model.Node) (int, error) {
	return AssignWith(root, traverse.Walker{})
}

// AssignWith is Assign bounded by w.MaxDepth.
func AssignWith(root *model.Node, w traverse.Walker) (int, error) {
	if root == nil {
		return 0, nil
	}
	limit := w.MaxDepth
	if limit <= 0 {
		limit = traverse.DefaultMaxDepth
	}
	a := &assigner{limit: limit}
	if _, err := a.visit(root, 0); err != nil {
		return a.count, err
	}
	return a.count, nil
}

type assigner struct {
	limit int
	count int
}

// visit assigns identities below n first and reports whether n changed.
func (a *assigner) visit(n *model.Node, depth int) (bool, error) {
	if depth > a.limit {
		return false, model.NewError("assign_identity").Node(n).Depth(depth).Cause(model.ErrDepthExceeded).Err()
	}

	dirty := !n.HasID()
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		changed, err := a.visit(child, depth+1)
		if err != nil {
			return false, err
		}
		dirty = dirty || changed
	}
	if !dirty {
		return false, nil
	}

	id := Compute(n)
	if id == n.ID {
		return false, nil
	}
	n.ID = id
	a.count++
	return true, nil
}

// Compute returns the content identity of n from its current fields and the
// current IDs of its children. n is not modified.
func Compute(n *model.Node) string {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		// Size is a valid constant digest length.
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	e := &encoder{h: h}
	e.node(n)

	e.tag(tagChildren)
	e.uint(uint64(len(n.Children)))
	for _, child := range n.Children {
		if child == nil {
			e.str("")
			continue
		}
		e.str(child.ID)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type encoder struct {
	h   hash.Hash
	buf [8]byte
}

func (e *encoder) tag(t byte) {
	e.h.Write([]byte{t})
}

func (e *encoder) uint(v uint64) {
	binary.BigEndian.PutUint64(e.buf[:], v)
	e.h.Write(e.buf[:])
}

func (e *encoder) float(f float64) {
	e.uint(math.Float64bits(f))
}

func (e *encoder) str(s string) {
	e.uint(uint64(len(s)))
	e.h.Write([]byte(s))
}

// node writes the content of n without its identity or children. Nested
// node-valued properties are written inline by content.
func (e *encoder) node(n *model.Node) {
	e.tag(tagNode)
	e.str(n.ApplicationID)
	e.str(n.Name)
	e.str(n.Type)

	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.uint(uint64(len(keys)))
	for _, k := range keys {
		e.str(k)
		e.value(n.Properties[k])
	}

	if n.Display != nil {
		e.uint(uint64(len(n.Display.Meshes)))
		for _, m := range n.Display.Meshes {
			e.mesh(m)
		}
	} else {
		e.uint(0)
	}
	e.mesh(n.Mesh)
	e.point(n.BasePoint)
	e.point(n.Location)
	e.tag(tagEnd)
}

func (e *encoder) value(v model.Value) {
	switch v.Kind {
	case model.KindScalar:
		s, _ := v.AsScalar()
		e.tag(tagScalar)
		e.scalar(s)
	case model.KindScalarList:
		list, _ := v.AsScalars()
		e.tag(tagScalarList)
		e.uint(uint64(len(list)))
		for _, s := range list {
			e.scalar(s)
		}
	case model.KindNode:
		n, _ := v.AsNode()
		e.tag(tagNodeValue)
		e.nested(n)
	case model.KindNodeList:
		list, _ := v.AsNodes()
		e.tag(tagNodeList)
		e.uint(uint64(len(list)))
		for _, n := range list {
			e.nested(n)
		}
	case model.KindHandle:
		h, _ := v.AsHandle()
		e.tag(tagHandle)
		e.str(fmt.Sprintf("%T", h))
	}
}

// nested writes a property node. Nodes that already carry an identity are
// referenced by it; the rest are written by content.
func (e *encoder) nested(n *model.Node) {
	switch {
	case n == nil:
		e.str("")
	case n.HasID():
		e.str(n.ID)
	default:
		e.node(n)
	}
}

func (e *encoder) scalar(s model.Scalar) {
	e.tag(byte(s.Type))
	switch s.Type {
	case model.TypeBool:
		b, _ := s.AsBool()
		if b {
			e.uint(1)
		} else {
			e.uint(0)
		}
	case model.TypeInt:
		i, _ := s.AsInt()
		e.uint(uint64(i))
	case model.TypeFloat:
		f, _ := s.AsFloat()
		e.float(f)
	case model.TypeString:
		str, _ := s.AsString()
		e.str(str)
	}
}

func (e *encoder) mesh(m *model.Mesh) {
	e.tag(tagMesh)
	if m == nil {
		e.uint(0)
		return
	}
	e.uint(uint64(len(m.Vertices)) + 1)
	for _, v := range m.Vertices {
		e.float(v)
	}
	e.uint(uint64(len(m.Faces)))
	for _, f := range m.Faces {
		e.uint(uint64(f))
	}
	e.str(m.Units)
}

func (e *encoder) point(p *model.Point) {
	e.tag(tagPoint)
	if p == nil {
		e.uint(0)
		return
	}
	e.uint(1)
	e.float(p.X)
	e.float(p.Y)
	e.float(p.Z)
	e.str(p.Units)
}
