// Package traverse searches and flattens model trees depth-first, pre-order.
//
// Traversal is bounded by Walker.MaxDepth. A tree deeper than the bound, which
// includes any cyclic structure, yields model.ErrDepthExceeded instead of
// exhausting the stack.
package traverse

import (
	"errors"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// DefaultMaxDepth bounds recursion for trees received from outside the process.
const DefaultMaxDepth = 4096

// errStop ends a walk early without reporting an error to the caller.
var errStop = errors.New("stop walk")

// Entry is a node paired with its depth below the traversal root.
type Entry struct {
	Node  *model.Node
	Depth int
}

// VisitFunc is called once per node in pre-order.
type VisitFunc func(Entry) error

// Walker performs bounded depth-first traversals.
// The zero value uses DefaultMaxDepth.
type Walker struct {
	MaxDepth int
}

// NewWalker creates a walker with the given depth bound
func NewWalker(maxDepth int) Walker {
	return Walker{MaxDepth: maxDepth}
}

func (w Walker) maxDepth() int {
	if w.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return w.MaxDepth
}

// Walk visits root and every descendant in pre-order, children left to right.
// A nil root is an empty tree. An error from fn stops the walk and is returned.
func (w Walker) Walk(root *model.Node, fn VisitFunc) error {
	if root == nil {
		return nil
	}
	err := w.walk(root, 0, w.maxDepth(), fn)
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func (w Walker) walk(n *model.Node, depth, limit int, fn VisitFunc) error {
	if depth > limit {
		return model.NewError("walk").Node(n).Depth(depth).Cause(model.ErrDepthExceeded).Err()
	}
	if err := fn(Entry{Node: n, Depth: depth}); err != nil {
		return err
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		if err := w.walk(child, depth+1, limit, fn); err != nil {
			return err
		}
	}
	return nil
}

// FindFirst returns the leftmost node in pre-order for which pred holds.
// The result aliases the live tree and stays valid until the tree is next
// restructured. A nil node with a nil error means nothing matched.
func (w Walker) FindFirst(root *model.Node, pred Predicate) (*model.Node, error) {
	var found *model.Node
	err := w.Walk(root, func(e Entry) error {
		if pred(e.Node) {
			found = e.Node
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Flatten lists every reachable node exactly once with its depth, in the same
// order FindFirst visits them. The root has depth 0.
func (w Walker) Flatten(root *model.Node) ([]Entry, error) {
	var entries []Entry
	err := w.Walk(root, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FindFirst searches with a default walker
func FindFirst(root *model.Node, pred Predicate) (*model.Node, error) {
	return Walker{}.FindFirst(root, pred)
}

// Flatten flattens with a default walker
func Flatten(root *model.Node) ([]Entry, error) {
	return Walker{}.Flatten(root)
}
