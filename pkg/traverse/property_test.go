package traverse

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// buildTree turns a parent list into a tree: node i (i > 0) hangs under node
// parents[i-1] % i. Names repeat modulo 5 so searches see duplicates.
func buildTree(parents []uint) (*model.Node, []*model.Node, map[*model.Node]*model.Node) {
	nodes := []*model.Node{model.NewNode("n0")}
	parentOf := map[*model.Node]*model.Node{}
	for i, p := range parents {
		idx := i + 1
		n := model.NewNode("n" + strconv.Itoa(idx%5))
		parent := nodes[int(p)%idx]
		parent.AppendChild(n)
		parentOf[n] = parent
		nodes = append(nodes, n)
	}
	return nodes[0], nodes, parentOf
}

func TestTraversalProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("flatten visits every node exactly once", prop.ForAll(
		func(parents []uint) bool {
			root, nodes, _ := buildTree(parents)
			entries, err := Flatten(root)
			if err != nil || len(entries) != len(nodes) {
				return false
			}
			seen := map[*model.Node]bool{}
			for _, e := range entries {
				if seen[e.Node] {
					return false
				}
				seen[e.Node] = true
			}
			return true
		},
		gen.SliceOf(gen.UInt()),
	))

	properties.Property("child depth is parent depth plus one, root is zero", prop.ForAll(
		func(parents []uint) bool {
			root, _, parentOf := buildTree(parents)
			entries, err := Flatten(root)
			if err != nil || entries[0].Node != root || entries[0].Depth != 0 {
				return false
			}
			depth := map[*model.Node]int{}
			for _, e := range entries {
				depth[e.Node] = e.Depth
			}
			for child, parent := range parentOf {
				if depth[child] != depth[parent]+1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt()),
	))

	properties.Property("find first returns the leftmost pre-order match", prop.ForAll(
		func(parents []uint, target int) bool {
			root, _, _ := buildTree(parents)
			name := "n" + strconv.Itoa(target)
			pred := NameEquals(name)

			found, err := FindFirst(root, pred)
			if err != nil {
				return false
			}
			entries, _ := Flatten(root)
			for _, e := range entries {
				if pred(e.Node) {
					return found == e.Node
				}
			}
			return found == nil
		},
		gen.SliceOf(gen.UInt()),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
