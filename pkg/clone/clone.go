// Package clone produces detached deep copies of model subtrees with fresh identity.
package clone

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

var (
	ErrNotCopyable = errors.New("handle does not implement model.Copier")
	ErrUnknownKind = errors.New("unknown value kind")
)

// Fallback records a property that could not be copied by value and is shared
// by reference between source and copy.
type Fallback struct {
	Path   string
	Reason error
}

// Report describes degradations that did not abort a clone.
type Report struct {
	// Fallbacks lists properties copied by reference, in visit order.
	Fallbacks []Fallback
	// GeometryErrors lists malformed buffers that were copied verbatim.
	GeometryErrors []error
	// Err is set when the source nests deeper than the depth bound, which
	// also catches cycles. No copy is returned in that case.
	Err error
}

// Degraded reports whether anything fell short of a faithful value copy
func (r *Report) Degraded() bool {
	return len(r.Fallbacks) > 0 || len(r.GeometryErrors) > 0
}

// FallbackPaths returns the property paths that fell back to reference copy
func (r *Report) FallbackPaths() []string {
	paths := make([]string, len(r.Fallbacks))
	for i, f := range r.Fallbacks {
		paths[i] = f.Path
	}
	return paths
}

// Option configures a clone
type Option func(*cloner)

// WithIDGenerator replaces the application id generator (UUIDv4 by default).
func WithIDGenerator(gen func() string) Option {
	return func(c *cloner) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithFallbackHook registers a callback invoked for every reference-copied property.
func WithFallbackHook(hook func(Fallback)) Option {
	return func(c *cloner) {
		c.hook = hook
	}
}

// WithMaxDepth bounds how deep the copy may nest, counting nested node
// properties as well as children. Zero or less uses traverse.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *cloner) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithDeepIdentity also clears identity and regenerates application ids on
// every descendant, not only on the cloned node itself.
func WithDeepIdentity() Option {
	return func(c *cloner) {
		c.deep = true
	}
}

type cloner struct {
	newID    func() string
	hook     func(Fallback)
	deep     bool
	maxDepth int
	path     []string
	report   *Report
}

// WithNewIdentity deep-copies n and its whole subtree. No reference is shared
// with the source except properties recorded in the report as fallbacks.
// The copy's identity is cleared and its application id regenerated; the name
// is left for the caller to change. A nil node clones to nil, as does a source
// deeper than the depth bound (see Report.Err).
func WithNewIdentity(n *model.Node, opts ...Option) (*model.Node, *Report) {
	c := &cloner{
		newID:    func() string { return uuid.NewString() },
		maxDepth: traverse.DefaultMaxDepth,
		report:   &Report{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c.run(n, true)
}

// Deep copies a subtree keeping every identity. Fallbacks still apply.
func Deep(n *model.Node, opts ...Option) (*model.Node, *Report) {
	c := &cloner{maxDepth: traverse.DefaultMaxDepth, report: &Report{}}
	for _, opt := range opts {
		opt(c)
	}
	return c.run(n, false)
}

func (c *cloner) run(n *model.Node, reidentify bool) (*model.Node, *Report) {
	if n == nil {
		return nil, c.report
	}
	c.push(n.Label())
	copied := c.node(n, reidentify, 0)
	c.pop()
	if c.report.Err != nil {
		return nil, c.report
	}
	return copied, c.report
}

// push and pop maintain the property path of the value being copied. The
// path is only joined when a fallback is reported.
func (c *cloner) push(segment string) { c.path = append(c.path, segment) }
func (c *cloner) pop()                { c.path = c.path[:len(c.path)-1] }

func (c *cloner) currentPath() string {
	return strings.Join(c.path, "")
}

func (c *cloner) node(src *model.Node, reidentify bool, depth int) *model.Node {
	if c.report.Err != nil {
		return nil
	}
	if depth > c.maxDepth {
		c.report.Err = model.NewError("clone").Node(src).Depth(depth).Cause(model.ErrDepthExceeded).Err()
		return nil
	}

	dst := &model.Node{
		ID:            src.ID,
		ApplicationID: src.ApplicationID,
		Name:          src.Name,
		Type:          src.Type,
		Display:       src.Display.Clone(),
		Mesh:          src.Mesh.Clone(),
		BasePoint:     src.BasePoint.Clone(),
		Location:      src.Location.Clone(),
	}
	if reidentify {
		dst.ID = ""
		dst.ApplicationID = c.newID()
	}

	c.checkGeometry(src)

	if src.Properties != nil {
		dst.Properties = make(map[string]model.Value, len(src.Properties))
		for _, k := range src.PropertyKeys() {
			c.push("." + k)
			dst.Properties[k] = c.value(src.Properties[k], depth)
			c.pop()
		}
	}

	if src.Children != nil {
		dst.Children = make([]*model.Node, len(src.Children))
		for i, child := range src.Children {
			if child == nil {
				continue
			}
			c.push("." + model.ChildrenKey + index(i))
			dst.Children[i] = c.node(child, reidentify && c.deep, depth+1)
			c.pop()
		}
	}
	return dst
}

func (c *cloner) checkGeometry(src *model.Node) {
	if src.Display != nil {
		for i, m := range src.Display.Meshes {
			if err := m.Validate(); err != nil {
				c.report.GeometryErrors = append(c.report.GeometryErrors,
					model.NewError("clone").Node(src).Field("displayValue").Index(i).Length(len(m.Vertices)).Cause(model.ErrMalformedGeometry).Err())
			}
		}
	}
	if err := src.Mesh.Validate(); err != nil {
		c.report.GeometryErrors = append(c.report.GeometryErrors,
			model.NewError("clone").Node(src).Field("vertices").Length(len(src.Mesh.Vertices)).Cause(model.ErrMalformedGeometry).Err())
	}
}

func (c *cloner) value(v model.Value, depth int) model.Value {
	switch v.Kind {
	case model.KindScalar:
		return v
	case model.KindScalarList:
		src, _ := v.AsScalars()
		if src == nil {
			return v
		}
		dst := make([]model.Scalar, len(src))
		copy(dst, src)
		return model.Scalars(dst...)
	case model.KindNode:
		n, _ := v.AsNode()
		if n == nil {
			return v
		}
		return model.NodeValue(c.node(n, false, depth+1))
	case model.KindNodeList:
		src, _ := v.AsNodes()
		if src == nil {
			return v
		}
		dst := make([]*model.Node, len(src))
		for i, n := range src {
			if n != nil {
				c.push(index(i))
				dst[i] = c.node(n, false, depth+1)
				c.pop()
			}
		}
		return model.Nodes(dst...)
	case model.KindHandle:
		return c.handle(v)
	default:
		c.fallback(ErrUnknownKind)
		return v
	}
}

func (c *cloner) handle(v model.Value) model.Value {
	h, _ := v.AsHandle()
	copier, ok := h.(model.Copier)
	if !ok {
		c.fallback(ErrNotCopyable)
		return v
	}
	dup, err := copier.CopyValue()
	if err != nil {
		c.fallback(err)
		return v
	}
	return model.Handle(dup)
}

func (c *cloner) fallback(reason error) {
	f := Fallback{Path: c.currentPath(), Reason: reason}
	c.report.Fallbacks = append(c.report.Fallbacks, f)
	if c.hook != nil {
		c.hook(f)
	}
}

func index(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
