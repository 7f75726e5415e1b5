package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// Encode writes root as an indented JSON object tree that Decode reads back.
// Handle properties cannot be encoded and fail with ErrUnsupportedValue.
func Encode(w io.Writer, root *model.Node) error {
	if root == nil {
		return model.NewError("encode").Cause(model.ErrNilNode).Err()
	}
	obj, err := encodeNode(root, "$")
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(obj); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func encodeNode(n *model.Node, path string) (map[string]any, error) {
	obj := make(map[string]any, len(n.Properties)+8)
	for key, val := range n.Properties {
		v, err := encodeValue(val, path+"."+key)
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}

	setString(obj, KeyID, n.ID)
	setString(obj, KeyApplicationID, n.ApplicationID)
	setString(obj, KeyName, n.Name)
	setString(obj, KeyType, n.Type)

	if n.Children != nil {
		children, err := encodeNodeList(n.Children, path+"."+model.ChildrenKey)
		if err != nil {
			return nil, err
		}
		obj[model.ChildrenKey] = children
	}

	if d := n.Display; d != nil {
		if d.List || len(d.Meshes) != 1 {
			meshes := make([]any, len(d.Meshes))
			for i, m := range d.Meshes {
				meshes[i] = encodeMesh(m)
			}
			obj[KeyDisplay] = meshes
		} else {
			obj[KeyDisplay] = encodeMesh(d.Meshes[0])
		}
	}

	if n.Mesh != nil {
		for k, v := range meshFields(n.Mesh) {
			obj[k] = v
		}
	}
	if n.BasePoint != nil {
		obj[KeyBasePoint] = encodePoint(n.BasePoint)
	}
	if n.Location != nil {
		obj[KeyLocation] = encodePoint(n.Location)
	}
	return obj, nil
}

func setString(obj map[string]any, key, value string) {
	if value != "" {
		obj[key] = value
	}
}

func encodeNodeList(nodes []*model.Node, path string) ([]any, error) {
	out := make([]any, len(nodes))
	for i, child := range nodes {
		if child == nil {
			continue
		}
		v, err := encodeNode(child, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeValue(v model.Value, path string) (any, error) {
	switch v.Kind {
	case model.KindScalar, model.KindScalarList:
		out, _ := v.Interface()
		return out, nil
	case model.KindNode:
		n, _ := v.AsNode()
		if n == nil {
			return nil, nil
		}
		return encodeNode(n, path)
	case model.KindNodeList:
		nodes, _ := v.AsNodes()
		return encodeNodeList(nodes, path)
	default:
		return nil, unsupported(path, "cannot encode "+v.Kind.String())
	}
}

func meshFields(m *model.Mesh) map[string]any {
	fields := map[string]any{KeyVertices: m.Vertices}
	if m.Vertices == nil {
		fields[KeyVertices] = []float64{}
	}
	if m.Faces != nil {
		fields[KeyFaces] = m.Faces
	}
	if m.Units != "" {
		fields[KeyUnits] = m.Units
	}
	return fields
}

func encodeMesh(m *model.Mesh) any {
	if m == nil {
		return nil
	}
	obj := meshFields(m)
	obj[KeyType] = MeshType
	return obj
}

func encodePoint(p *model.Point) map[string]any {
	obj := map[string]any{
		KeyType: PointType,
		"x":     p.X,
		"y":     p.Y,
		"z":     p.Z,
	}
	if p.Units != "" {
		obj[KeyUnits] = p.Units
	}
	return obj
}
