package traverse

import (
	"strings"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// Predicate selects nodes during a search.
type Predicate func(*model.Node) bool

// NameEquals matches nodes whose name is exactly name.
func NameEquals(name string) Predicate {
	return func(n *model.Node) bool {
		return n.Name == name
	}
}

// ApplicationIDEquals matches nodes carrying the given application id.
// An empty id never matches, since unset ids are not correlation keys.
func ApplicationIDEquals(id string) Predicate {
	return func(n *model.Node) bool {
		return id != "" && n.ApplicationID == id
	}
}

// IsCollection reports whether a node groups other nodes: it either has
// children or declares a collection type.
func IsCollection(n *model.Node) bool {
	return n.HasChildren() || strings.Contains(strings.ToLower(n.Type), "collection")
}

// CollectionNamed matches collection nodes with the given name.
func CollectionNamed(name string) Predicate {
	return And(IsCollection, NameEquals(name))
}

// And matches when every predicate matches
func And(preds ...Predicate) Predicate {
	return func(n *model.Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches
func Or(preds ...Predicate) Predicate {
	return func(n *model.Node) bool {
		for _, p := range preds {
			if p(n) {
				return true
			}
		}
		return false
	}
}
