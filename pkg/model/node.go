package model

import (
	"sort"
)

// ChildrenKey is the reserved property key under which a node's children are reachable.
const ChildrenKey = "@elements"

// Node is a vertex of a design model tree.
//
// ID is the persisted identity and is empty until a persistence step assigns one.
// ApplicationID is a caller-chosen correlation key and is not guaranteed unique.
type Node struct {
	ID            string
	ApplicationID string
	Name          string
	Type          string
	Properties    map[string]Value
	Children      []*Node

	// Geometry shapes, resolved in this order by the transform engine.
	Display   *Display
	Mesh      *Mesh
	BasePoint *Point
	Location  *Point
}

// NewNode creates a named node with an empty property map
func NewNode(name string) *Node {
	return &Node{
		Name:       name,
		Properties: make(map[string]Value),
	}
}

// HasID reports whether the node has been assigned an identity
func (n *Node) HasID() bool {
	return n.ID != ""
}

// HasProperties reports whether the node carries at least one property
func (n *Node) HasProperties() bool {
	return len(n.Properties) > 0
}

// HasChildren reports whether the node has at least one child
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// HasGeometry reports whether any recognised geometry shape is attached
func (n *Node) HasGeometry() bool {
	return (n.Display != nil && len(n.Display.Meshes) > 0) ||
		n.Mesh != nil || n.BasePoint != nil || n.Location != nil
}

// Label returns a human-readable handle for logs and errors.
func (n *Node) Label() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.ApplicationID != "":
		return n.ApplicationID
	default:
		return n.ID
	}
}

// Property gets a property value. ChildrenKey yields the children as a node list.
func (n *Node) Property(key string) (Value, bool) {
	if key == ChildrenKey {
		if n.Children == nil {
			return Value{}, false
		}
		return Nodes(n.Children...), true
	}
	val, ok := n.Properties[key]
	return val, ok
}

// SetProperty sets a property value. Setting ChildrenKey replaces the children
// and requires a node or node list value.
func (n *Node) SetProperty(key string, val Value) error {
	if key == "" {
		return NewError("set_property").Node(n).Cause(ErrInvalidProperty).Err()
	}
	if key == ChildrenKey {
		switch val.Kind {
		case KindNodeList:
			n.Children = val.nodes
		case KindNode:
			n.Children = []*Node{val.node}
		default:
			return NewError("set_property").Node(n).Field(key).Cause(ErrInvalidProperty).Err()
		}
		return nil
	}
	if n.Properties == nil {
		n.Properties = make(map[string]Value)
	}
	n.Properties[key] = val
	return nil
}

// DeleteProperty removes a property and reports whether it was present
func (n *Node) DeleteProperty(key string) bool {
	if _, ok := n.Properties[key]; !ok {
		return false
	}
	delete(n.Properties, key)
	return true
}

// PropertyKeys returns the property keys in sorted order.
func (n *Node) PropertyKeys() []string {
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendChild adds a child at the end of the children list
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// InsertChild inserts a child at position i. Out-of-range positions append.
func (n *Node) InsertChild(i int, child *Node) {
	if i < 0 || i >= len(n.Children) {
		n.AppendChild(child)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// RemoveChild detaches and returns the child at position i
func (n *Node) RemoveChild(i int) (*Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	child := n.Children[i]
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return child, true
}

// ChildAt returns the child at position i
func (n *Node) ChildAt(i int) (*Node, bool) {
	if i < 0 || i >= len(n.Children) {
		return nil, false
	}
	return n.Children[i], true
}
