package identity

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-modelgraph/pkg/clone"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

func tree() *model.Node {
	bag := model.NewNode("")
	bag.Properties["Designer"] = model.String("Zeynep")

	floor := &model.Node{
		Name:          "Floor B",
		ApplicationID: "17cc627f",
		Properties:    map[string]model.Value{"properties": model.NodeValue(bag), "level": model.Int(2)},
		Display:       model.SingleDisplay(model.NewMesh(1, 2, 3)),
	}
	block := &model.Node{Name: "Block B", Children: []*model.Node{floor}}
	root := model.NewNode("root")
	root.AppendChild(block)
	root.AppendChild(model.NewNode("empty"))
	return root
}

func TestAssignFillsEveryUnsetID(t *testing.T) {
	root := tree()

	n, err := Assign(root)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	entries, err := traverse.Flatten(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Regexp(t, hexID, e.Node.ID, e.Node.Name)
	}

	again, err := Assign(root)
	require.NoError(t, err)
	assert.Zero(t, again, "a fully identified tree is left alone")
}

func TestComputeIsDeterministic(t *testing.T) {
	a, b := tree(), tree()
	_, err := Assign(a)
	require.NoError(t, err)
	_, err = Assign(b)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.ID, Compute(a), "Compute matches the assigned identity")
}

func TestContentChangesIdentity(t *testing.T) {
	base := tree()
	_, err := Assign(base)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*model.Node)
	}{
		{"vertex", func(r *model.Node) { r.Children[0].Children[0].Display.Meshes[0].Vertices[0] = 9 }},
		{"property", func(r *model.Node) { r.Children[0].Children[0].Properties["level"] = model.Int(3) }},
		{"nested bag", func(r *model.Node) {
			bag, _ := r.Children[0].Children[0].Properties["properties"].AsNode()
			bag.Properties["Designer"] = model.String("David Agudelo")
		}},
		{"name", func(r *model.Node) { r.Children[0].Children[0].Name = "Floor C" }},
		{"child order", func(r *model.Node) { r.Children[0], r.Children[1] = r.Children[1], r.Children[0] }},
		{"location", func(r *model.Node) { r.Children[0].Children[0].Location = &model.Point{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tree()
			tt.mutate(r)
			_, err := Assign(r)
			require.NoError(t, err)
			assert.NotEqual(t, base.ID, r.ID)
		})
	}
}

func TestSplicedCloneRefreshesAncestors(t *testing.T) {
	root := tree()
	_, err := Assign(root)
	require.NoError(t, err)
	rootID := root.ID
	blockID := root.Children[0].ID
	siblingID := root.Children[1].ID
	floor := root.Children[0].Children[0]

	dup, _ := clone.WithNewIdentity(floor)
	root.Children[0].AppendChild(dup)

	n, err := Assign(root)
	require.NoError(t, err)

	assert.Equal(t, 3, n, "the clone, its parent and the root")
	assert.Regexp(t, hexID, dup.ID)
	assert.NotEqual(t, floor.ID, dup.ID)
	assert.NotEqual(t, blockID, root.Children[0].ID)
	assert.NotEqual(t, rootID, root.ID)
	assert.Equal(t, siblingID, root.Children[1].ID, "untouched subtrees keep their identity")
}

func TestAssignDepthBound(t *testing.T) {
	_, err := AssignWith(tree(), traverse.NewWalker(1))
	assert.True(t, model.IsDepthExceeded(err))
}

func TestAssignNil(t *testing.T) {
	n, err := Assign(nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestAssignProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	build := func(parents []uint) *model.Node {
		nodes := []*model.Node{model.NewNode("n0")}
		for i, p := range parents {
			n := model.NewNode("n" + strconv.Itoa(i+1))
			n.Mesh = model.NewMesh(float64(i), 0, 0)
			nodes[int(p)%len(nodes)].AppendChild(n)
			nodes = append(nodes, n)
		}
		return nodes[0]
	}

	properties.Property("assign is idempotent and identities are distinct per content", prop.ForAll(
		func(parents []uint) bool {
			root := build(parents)
			first, err := Assign(root)
			if err != nil || first != len(parents)+1 {
				return false
			}
			second, err := Assign(root)
			if err != nil || second != 0 {
				return false
			}
			entries, _ := traverse.Flatten(root)
			seen := map[string]bool{}
			for _, e := range entries {
				if seen[e.Node.ID] {
					return false
				}
				seen[e.Node.ID] = true
			}
			return true
		},
		gen.SliceOf(gen.UInt()),
	))

	properties.TestingRun(t)
}
