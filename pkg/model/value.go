package model

import (
	"fmt"
)

// ScalarType represents the type of a scalar property value
type ScalarType uint8

const (
	TypeNull ScalarType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
)

// String returns the name of the scalar type
func (t ScalarType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Scalar is a single typed leaf value.
// Scalars are plain values: copying the struct copies the value.
type Scalar struct {
	Type ScalarType
	b    bool
	i    int64
	f    float64
	s    string
}

// Helper functions to create typed scalars
func NullScalar() Scalar           { return Scalar{Type: TypeNull} }
func BoolScalar(b bool) Scalar     { return Scalar{Type: TypeBool, b: b} }
func IntScalar(i int64) Scalar     { return Scalar{Type: TypeInt, i: i} }
func FloatScalar(f float64) Scalar { return Scalar{Type: TypeFloat, f: f} }
func StringScalar(s string) Scalar { return Scalar{Type: TypeString, s: s} }

// AsString returns the string payload
func (s Scalar) AsString() (string, error) {
	if s.Type != TypeString {
		return "", fmt.Errorf("scalar is not a string")
	}
	return s.s, nil
}

// AsInt returns the integer payload
func (s Scalar) AsInt() (int64, error) {
	if s.Type != TypeInt {
		return 0, fmt.Errorf("scalar is not an int")
	}
	return s.i, nil
}

// AsFloat returns the numeric payload; ints are widened.
func (s Scalar) AsFloat() (float64, error) {
	switch s.Type {
	case TypeFloat:
		return s.f, nil
	case TypeInt:
		return float64(s.i), nil
	default:
		return 0, fmt.Errorf("scalar is not a number")
	}
}

// AsBool returns the boolean payload
func (s Scalar) AsBool() (bool, error) {
	if s.Type != TypeBool {
		return false, fmt.Errorf("scalar is not a bool")
	}
	return s.b, nil
}

// Interface returns the scalar as a plain Go value (nil, bool, int64, float64 or string).
func (s Scalar) Interface() any {
	switch s.Type {
	case TypeBool:
		return s.b
	case TypeInt:
		return s.i
	case TypeFloat:
		return s.f
	case TypeString:
		return s.s
	default:
		return nil
	}
}

// Kind discriminates the variants of Value
type Kind uint8

const (
	KindScalar Kind = iota
	KindScalarList
	KindNode
	KindNodeList
	// KindHandle holds an external resource the model does not own.
	KindHandle
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindScalarList:
		return "scalar_list"
	case KindNode:
		return "node"
	case KindNodeList:
		return "node_list"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Value is a property value. Exactly one payload is populated, selected by Kind.
type Value struct {
	Kind    Kind
	scalar  Scalar
	scalars []Scalar
	node    *Node
	nodes   []*Node
	handle  any
}

// Copier is implemented by handle payloads that know how to duplicate themselves.
type Copier interface {
	CopyValue() (any, error)
}

// Value constructors
func ScalarValue(s Scalar) Value { return Value{Kind: KindScalar, scalar: s} }
func String(s string) Value      { return ScalarValue(StringScalar(s)) }
func Int(i int64) Value          { return ScalarValue(IntScalar(i)) }
func Float(f float64) Value      { return ScalarValue(FloatScalar(f)) }
func Bool(b bool) Value          { return ScalarValue(BoolScalar(b)) }
func Null() Value                { return ScalarValue(NullScalar()) }
func Scalars(s ...Scalar) Value  { return Value{Kind: KindScalarList, scalars: s} }
func NodeValue(n *Node) Value    { return Value{Kind: KindNode, node: n} }
func Nodes(n ...*Node) Value     { return Value{Kind: KindNodeList, nodes: n} }
func Handle(h any) Value         { return Value{Kind: KindHandle, handle: h} }

// Floats builds a scalar list of floats
func Floats(fs ...float64) Value {
	s := make([]Scalar, len(fs))
	for i, f := range fs {
		s[i] = FloatScalar(f)
	}
	return Scalars(s...)
}

// Strings builds a scalar list of strings
func Strings(ss ...string) Value {
	s := make([]Scalar, len(ss))
	for i, v := range ss {
		s[i] = StringScalar(v)
	}
	return Scalars(s...)
}

// Accessors
func (v Value) AsScalar() (Scalar, bool) {
	return v.scalar, v.Kind == KindScalar
}

func (v Value) AsScalars() ([]Scalar, bool) {
	return v.scalars, v.Kind == KindScalarList
}

func (v Value) AsNode() (*Node, bool) {
	return v.node, v.Kind == KindNode
}

func (v Value) AsNodes() ([]*Node, bool) {
	return v.nodes, v.Kind == KindNodeList
}

func (v Value) AsHandle() (any, bool) {
	return v.handle, v.Kind == KindHandle
}

// IsStructural reports whether the value holds graph nodes.
func (v Value) IsStructural() bool {
	return v.Kind == KindNode || v.Kind == KindNodeList
}

// Interface returns scalar and scalar list values as plain Go values.
// Structural and handle values return nil, false.
func (v Value) Interface() (any, bool) {
	switch v.Kind {
	case KindScalar:
		return v.scalar.Interface(), true
	case KindScalarList:
		out := make([]any, len(v.scalars))
		for i, s := range v.scalars {
			out[i] = s.Interface()
		}
		return out, true
	default:
		return nil, false
	}
}
