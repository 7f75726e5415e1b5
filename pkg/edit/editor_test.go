package edit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-modelgraph/pkg/config"
	"github.com/dd0wney/cluso-modelgraph/pkg/logging"
	"github.com/dd0wney/cluso-modelgraph/pkg/metrics"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

const floorB = "17cc627f-f5df-44d2-908e-1cdaf96fe76c"

func newTestEditor(t *testing.T) (*Editor, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	return NewEditor(config.Default(), logging.NewNopLogger(), reg), reg
}

func counter(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := vec.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.Counter.GetValue()
}

// twoBlocks builds a small model: root > [block A > floor A, block B > floor B]
func twoBlocks() *model.Node {
	floorA := &model.Node{Name: "Floor A", ApplicationID: "floor-a", Display: model.SingleDisplay(model.NewMesh(0, 0, 0))}
	floor := &model.Node{
		ID:            "b7f1",
		Name:          "Floor B",
		ApplicationID: floorB,
		Type:          "Objects.BuiltElements.Floor",
		Display:       model.SingleDisplay(model.NewMesh(1, 2, 3, 4, 5, 6)),
	}
	root := model.NewNode("Two blocks")
	root.AppendChild(&model.Node{Name: "Block A", Children: []*model.Node{floorA}})
	root.AppendChild(&model.Node{Name: "Block B", Children: []*model.Node{floor}})
	return root
}

func TestDuplicate(t *testing.T) {
	ed, reg := newTestEditor(t)
	root := twoBlocks()

	dup, err := ed.Duplicate(root, floorB, 1000)
	require.NoError(t, err)
	require.NotNil(t, dup)

	assert.Equal(t, "Floor B_Copy", dup.Copy.Name)
	assert.Empty(t, dup.Copy.ID)
	_, err = uuid.Parse(dup.Copy.ApplicationID)
	assert.NoError(t, err)
	assert.NotEqual(t, floorB, dup.Copy.ApplicationID)

	assert.Equal(t, []float64{1001, 2, 3, 1004, 5, 6}, dup.Copy.Display.Meshes[0].Vertices)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, dup.Source.Display.Meshes[0].Vertices)

	require.Len(t, root.Children, 3)
	assert.Same(t, dup.Copy, root.Children[2], "copy is appended to the root")
	assert.Empty(t, root.ID)
	assert.NoError(t, dup.GeometryErr)
	assert.Equal(t, "Duplicated object "+floorB+" with X offset 1000", dup.Message)

	assert.Equal(t, 1.0, counter(t, reg.OperationsTotal, OpDuplicate, metrics.StatusSuccess))
}

func TestDuplicateCopyIsIndependent(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := twoBlocks()

	dup, err := ed.Duplicate(root, floorB, 0)
	require.NoError(t, err)

	dup.Copy.Display.Meshes[0].Vertices[0] = 99
	assert.Equal(t, 1.0, dup.Source.Display.Meshes[0].Vertices[0])
}

func TestDuplicateNotFound(t *testing.T) {
	ed, reg := newTestEditor(t)
	root := twoBlocks()

	dup, err := ed.Duplicate(root, "missing", 10)
	assert.NoError(t, err)
	assert.Nil(t, dup)
	assert.Len(t, root.Children, 2, "tree is left untouched")
	assert.Equal(t, 1.0, counter(t, reg.OperationsTotal, OpDuplicate, metrics.StatusNotFound))

	dup, err = ed.Duplicate(root, "", 10)
	assert.NoError(t, err)
	assert.Nil(t, dup, "empty application id never matches")
}

func TestDuplicateNames(t *testing.T) {
	cfg := config.Default()
	cfg.CopySuffix = "-2"
	ed := NewEditor(cfg, logging.NewNopLogger(), metrics.NewRegistry())

	root := model.NewNode("root")
	root.AppendChild(&model.Node{ApplicationID: "anon"})

	dup, err := ed.Duplicate(root, "anon", 1)
	require.NoError(t, err)
	assert.Equal(t, "Object-2", dup.Copy.Name)
}

func TestDuplicateMalformedGeometry(t *testing.T) {
	ed, reg := newTestEditor(t)
	root := model.NewNode("root")
	root.AppendChild(&model.Node{
		Name:          "bad",
		ApplicationID: "bad",
		Display:       model.ListDisplay(model.NewMesh(1, 2, 3, 4, 5), model.NewMesh(0, 0, 0)),
		Location:      &model.Point{X: 1},
	})

	dup, err := ed.Duplicate(root, "bad", 10)
	require.NoError(t, err)
	require.NotNil(t, dup)

	assert.True(t, model.IsMalformedGeometry(dup.GeometryErr))
	assert.True(t, dup.Report.Degraded())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, dup.Copy.Display.Meshes[0].Vertices)
	assert.Equal(t, []float64{10, 0, 0}, dup.Copy.Display.Meshes[1].Vertices)
	assert.Equal(t, 11.0, dup.Copy.Location.X)
	assert.Len(t, root.Children, 2)
	assert.Equal(t, 1.0, counter(t, reg.MalformedGeometry, OpDuplicate))
}

func TestDuplicateNilRoot(t *testing.T) {
	ed, _ := newTestEditor(t)
	_, err := ed.Duplicate(nil, floorB, 1)
	assert.ErrorIs(t, err, model.ErrNilNode)
}

func TestDuplicateCyclicSubtree(t *testing.T) {
	ed, reg := newTestEditor(t)
	loop := &model.Node{Name: "A", ApplicationID: "a"}
	loop.Children = []*model.Node{loop}
	root := model.NewNode("root")
	root.AppendChild(loop)

	dup, err := ed.Duplicate(root, "a", 1)
	require.Error(t, err)
	assert.Nil(t, dup)
	assert.True(t, model.IsDepthExceeded(err))
	assert.Len(t, root.Children, 1, "nothing is spliced when the copy fails")
	assert.Equal(t, 1.0, counter(t, reg.OperationsTotal, OpDuplicate, metrics.StatusError))
}

func TestSetRootProperties(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := model.NewNode("root")
	root.ID = "r1"

	err := ed.SetRootProperties(root, map[string]model.Value{
		"custom_property": model.String("Team_02.1"),
		"analysis_date":   model.String("2026-02-02"),
		"processed_by":    model.String("Zeynep Sezen Dursun"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"analysis_date", "custom_property", "processed_by"}, root.PropertyKeys())
	assert.Empty(t, root.ID, "edited root needs a new identity")

	s, _ := root.Properties["custom_property"].AsScalar()
	v, _ := s.AsString()
	assert.Equal(t, "Team_02.1", v)
}

func TestSetRootPropertiesRejectsBadKeys(t *testing.T) {
	ed, _ := newTestEditor(t)

	for _, key := range []string{"", "@elements", "applicationId", "has space"} {
		t.Run(key, func(t *testing.T) {
			root := model.NewNode("root")
			err := ed.SetRootProperties(root, map[string]model.Value{
				"ok": model.Int(1),
				key:  model.Int(2),
			})
			assert.ErrorIs(t, err, model.ErrInvalidProperty)
			assert.False(t, root.HasProperties(), "nothing is written on a bad key")
		})
	}
}

// oldModules mirrors a model with an "Old modules" collection of three modules,
// the middle one lacking a property bag.
func oldModules() (*model.Node, []*model.Node) {
	bag := func(designer string) model.Value {
		b := model.NewNode("")
		b.Properties["Designer"] = model.String(designer)
		return model.NodeValue(b)
	}

	m1 := model.NewNode("Module 1")
	m1.Properties["properties"] = bag("Original A")
	m2 := model.NewNode("Module 2")
	m3 := model.NewNode("Module 3")
	m3.Properties["properties"] = bag("Original C")

	coll := &model.Node{Name: "Old modules", Type: "Speckle.Core.Models.Collection", Children: []*model.Node{m1, m2, m3}}
	root := model.NewNode("root")
	root.AppendChild(model.NewNode("New modules"))
	root.AppendChild(coll)
	return root, []*model.Node{m1, m2, m3}
}

func designer(t *testing.T, n *model.Node) string {
	t.Helper()
	bag, ok := n.Properties["properties"].AsNode()
	require.True(t, ok)
	s, _ := bag.Properties["Designer"].AsScalar()
	v, err := s.AsString()
	require.NoError(t, err)
	return v
}

func TestAssignChildProperties(t *testing.T) {
	ed, reg := newTestEditor(t)
	root, modules := oldModules()
	root.ID = "r"
	root.Children[0].ID = "new"
	modules[0].ID = "m1"
	modules[2].ID = "m3"

	n, err := ed.AssignChildProperties(root, "Old modules", "properties", "Designer",
		[]model.Value{model.String("Aditye Kossambe"), model.String("David Agudelo")})
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, "Aditye Kossambe", designer(t, modules[0]))
	assert.False(t, modules[1].HasProperties(), "child without a bag is skipped")
	assert.Equal(t, "Original C", designer(t, modules[2]), "children beyond the values are untouched")
	assert.Empty(t, modules[0].ID)
	assert.Equal(t, "m3", modules[2].ID)
	assert.Empty(t, root.ID, "ancestors of an edited child are stale")
	assert.Equal(t, "new", root.Children[0].ID, "siblings off the edited path keep their identity")
	assert.Equal(t, 1.0, counter(t, reg.PropertiesAssigned, "child"))
}

func TestAssignChildPropertiesMoreValuesThanChildren(t *testing.T) {
	ed, _ := newTestEditor(t)
	root, modules := oldModules()

	values := []model.Value{model.String("a"), model.String("b"), model.String("c"), model.String("d")}
	n, err := ed.AssignChildProperties(root, "Old modules", "properties", "Designer", values)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "a", designer(t, modules[0]))
	assert.Equal(t, "c", designer(t, modules[2]))
}

func TestAssignChildPropertiesMissingCollection(t *testing.T) {
	ed, reg := newTestEditor(t)
	root, _ := oldModules()

	n, err := ed.AssignChildProperties(root, "Retired modules", "properties", "Designer", []model.Value{model.String("x")})
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, counter(t, reg.OperationsTotal, OpAssignChildProp, metrics.StatusNotFound))
}

func TestAssignChildPropertiesRejectsBadField(t *testing.T) {
	ed, _ := newTestEditor(t)
	root, _ := oldModules()

	_, err := ed.AssignChildProperties(root, "Old modules", "properties", "@elements", nil)
	assert.ErrorIs(t, err, model.ErrInvalidProperty)
}

func TestNewEditorDefaults(t *testing.T) {
	ed := NewEditor(nil, logging.NewNopLogger(), nil)
	assert.Equal(t, config.DefaultCopySuffix, ed.config.CopySuffix)
	assert.Same(t, metrics.DefaultRegistry(), ed.metrics)
	assert.Equal(t, config.Default().MaxDepth, ed.Walker().MaxDepth)
}

func TestInvalidatePath(t *testing.T) {
	root := twoBlocks()
	root.ID = "r"
	blockA, blockB := root.Children[0], root.Children[1]
	blockA.ID = "a"
	blockB.ID = "b"
	floor := blockB.Children[0]

	found, err := InvalidatePath(root, floor, traverse.Walker{})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, root.ID)
	assert.Empty(t, blockB.ID)
	assert.Empty(t, floor.ID)
	assert.Equal(t, "a", blockA.ID)

	found, err = InvalidatePath(root, model.NewNode("elsewhere"), traverse.Walker{})
	require.NoError(t, err)
	assert.False(t, found)
}
