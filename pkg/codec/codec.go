// Package codec converts between generic JSON object trees and model nodes.
//
// Recognised keys map onto node fields: id, applicationId, name, speckle_type,
// @elements (or elements) for children, displayValue (or @displayValue) for
// display meshes, vertices/faces/units for a node that is itself a mesh, and
// basePoint/location for points. Every other key becomes a property.
//
// When both spellings of children or display are present, the preferred one
// (@elements, displayValue) is decoded into the node and the other is kept as
// an ordinary property so its data survives a round trip. Display meshes keep
// only their vertices, faces and units; any other keys on a display mesh
// object, including its id and applicationId, are dropped.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// ErrUnsupportedValue is returned for JSON the property model cannot hold,
// such as lists mixing scalars and objects.
var ErrUnsupportedValue = errors.New("unsupported value")

// JSON keys with a fixed meaning
const (
	KeyID            = "id"
	KeyApplicationID = "applicationId"
	KeyName          = "name"
	KeyType          = "speckle_type"
	KeyElements      = "elements"
	KeyDisplay       = "displayValue"
	KeyVertices      = "vertices"
	KeyFaces         = "faces"
	KeyUnits         = "units"
	KeyBasePoint     = "basePoint"
	KeyLocation      = "location"
)

// Speckle type names written for geometry
const (
	MeshType  = "Objects.Geometry.Mesh"
	PointType = "Objects.Geometry.Point"
)

// Decode reads one JSON object and converts it into a node tree
func Decode(r io.Reader) (*model.Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, model.NewError("decode").Field("$").Cause(fmt.Errorf("%w: root must be an object", ErrUnsupportedValue)).Err()
	}
	return decodeNode(obj, "$")
}

func decodeNode(obj map[string]any, path string) (*model.Node, error) {
	n := &model.Node{}

	var err error
	if n.ID, err = stringField(obj, KeyID, path); err != nil {
		return nil, err
	}
	if n.ApplicationID, err = stringField(obj, KeyApplicationID, path); err != nil {
		return nil, err
	}
	if n.Name, err = stringField(obj, KeyName, path); err != nil {
		return nil, err
	}
	if n.Type, err = stringField(obj, KeyType, path); err != nil {
		return nil, err
	}

	childKey := pickKey(obj, model.ChildrenKey, KeyElements)
	if n.Children, err = decodeNodeList(obj[childKey], path+"."+childKey); err != nil {
		return nil, err
	}
	displayKey := pickKey(obj, KeyDisplay, "@"+KeyDisplay)
	if n.Display, err = decodeDisplay(obj[displayKey], path+"."+displayKey); err != nil {
		return nil, err
	}

	_, hasVertices := obj[KeyVertices]

	for key, raw := range obj {
		p := path + "." + key
		switch key {
		case KeyID, KeyApplicationID, KeyName, KeyType:
			continue
		case model.ChildrenKey, KeyElements, KeyDisplay, "@" + KeyDisplay:
			if key == childKey || key == displayKey || isEmpty(raw) {
				continue
			}
		case KeyVertices:
			mesh, err := decodeMesh(obj, path)
			if err != nil {
				return nil, err
			}
			n.Mesh = mesh
			continue
		case KeyFaces:
			if hasVertices {
				continue
			}
		case KeyUnits:
			if hasVertices {
				continue
			}
		case KeyBasePoint, KeyLocation:
			if pt, ok, err := decodePoint(raw, p); err != nil {
				return nil, err
			} else if ok {
				if key == KeyBasePoint {
					n.BasePoint = pt
				} else {
					n.Location = pt
				}
				continue
			}
		}

		val, err := decodeValue(raw, p)
		if err != nil {
			return nil, err
		}
		if n.Properties == nil {
			n.Properties = make(map[string]model.Value)
		}
		n.Properties[key] = val
	}
	return n, nil
}

// isEmpty reports whether raw is null or an empty list
func isEmpty(raw any) bool {
	if raw == nil {
		return true
	}
	list, ok := raw.([]any)
	return ok && len(list) == 0
}

// pickKey returns primary when it holds a non-empty value, otherwise fallback.
func pickKey(obj map[string]any, primary, fallback string) string {
	switch v := obj[primary].(type) {
	case nil:
		return fallback
	case []any:
		if len(v) == 0 {
			if _, ok := obj[fallback]; ok {
				return fallback
			}
		}
	}
	return primary
}

func stringField(obj map[string]any, key, path string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", unsupported(path+"."+key, "expected a string")
	}
	return s, nil
}

func decodeNodeList(raw any, path string) ([]*model.Node, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, unsupported(path, "expected a list of objects")
	}
	nodes := make([]*model.Node, len(list))
	for i, item := range list {
		if item == nil {
			continue
		}
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, unsupported(indexPath(path, i), "expected an object")
		}
		child, err := decodeNode(obj, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		nodes[i] = child
	}
	return nodes, nil
}

func decodeDisplay(raw any, path string) (*model.Display, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		m, err := decodeMesh(v, path)
		if err != nil {
			return nil, err
		}
		return model.SingleDisplay(m), nil
	case []any:
		meshes := make([]*model.Mesh, 0, len(v))
		for i, item := range v {
			if item == nil {
				meshes = append(meshes, nil)
				continue
			}
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, unsupported(indexPath(path, i), "expected a mesh object")
			}
			m, err := decodeMesh(obj, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, m)
		}
		return model.ListDisplay(meshes...), nil
	default:
		return nil, unsupported(path, "expected a mesh or a list of meshes")
	}
}

// decodeMesh reads vertices, faces and units from obj. The vertex count is
// not validated here; transforms report malformed buffers.
func decodeMesh(obj map[string]any, path string) (*model.Mesh, error) {
	m := &model.Mesh{}
	var err error
	if m.Vertices, err = floatList(obj[KeyVertices], path+"."+KeyVertices); err != nil {
		return nil, err
	}
	faces, err := floatList(obj[KeyFaces], path+"."+KeyFaces)
	if err != nil {
		return nil, err
	}
	if faces != nil {
		m.Faces = make([]int, len(faces))
		for i, f := range faces {
			m.Faces[i] = int(f)
		}
	}
	if m.Units, err = stringField(obj, KeyUnits, path); err != nil {
		return nil, err
	}
	return m, nil
}

// decodePoint reads an object with numeric x, y and z. ok is false when raw
// is not point shaped, so the caller keeps it as a plain property.
func decodePoint(raw any, path string) (*model.Point, bool, error) {
	obj, isObj := raw.(map[string]any)
	if !isObj {
		return nil, false, nil
	}
	if _, hasX := obj["x"].(json.Number); !hasX {
		return nil, false, nil
	}
	pt := &model.Point{}
	for key, dst := range map[string]*float64{"x": &pt.X, "y": &pt.Y, "z": &pt.Z} {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		num, ok := raw.(json.Number)
		if !ok {
			return nil, false, unsupported(path+"."+key, "expected a number")
		}
		f, err := num.Float64()
		if err != nil {
			return nil, false, unsupported(path+"."+key, err.Error())
		}
		*dst = f
	}
	units, err := stringField(obj, KeyUnits, path)
	if err != nil {
		return nil, false, err
	}
	pt.Units = units
	return pt, true, nil
}

func floatList(raw any, path string) ([]float64, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, unsupported(path, "expected a list of numbers")
	}
	out := make([]float64, len(list))
	for i, item := range list {
		num, ok := item.(json.Number)
		if !ok {
			return nil, unsupported(indexPath(path, i), "expected a number")
		}
		f, err := num.Float64()
		if err != nil {
			return nil, unsupported(indexPath(path, i), err.Error())
		}
		out[i] = f
	}
	return out, nil
}

func decodeValue(raw any, path string) (model.Value, error) {
	switch v := raw.(type) {
	case map[string]any:
		n, err := decodeNode(v, path)
		if err != nil {
			return model.Value{}, err
		}
		return model.NodeValue(n), nil
	case []any:
		return decodeList(v, path)
	default:
		s, err := decodeScalar(raw, path)
		if err != nil {
			return model.Value{}, err
		}
		return model.ScalarValue(s), nil
	}
}

// decodeList accepts all-scalar or all-object lists. Nulls are allowed in
// either and an empty list is an empty scalar list.
func decodeList(list []any, path string) (model.Value, error) {
	objects, scalars := 0, 0
	for _, item := range list {
		switch item.(type) {
		case nil:
		case map[string]any:
			objects++
		default:
			scalars++
		}
	}
	if objects > 0 && scalars > 0 {
		return model.Value{}, unsupported(path, "list mixes scalars and objects")
	}

	if objects > 0 {
		nodes, err := decodeNodeList(list, path)
		if err != nil {
			return model.Value{}, err
		}
		return model.Nodes(nodes...), nil
	}

	out := make([]model.Scalar, len(list))
	for i, item := range list {
		s, err := decodeScalar(item, indexPath(path, i))
		if err != nil {
			return model.Value{}, err
		}
		out[i] = s
	}
	return model.Scalars(out...), nil
}

func decodeScalar(raw any, path string) (model.Scalar, error) {
	switch v := raw.(type) {
	case nil:
		return model.NullScalar(), nil
	case bool:
		return model.BoolScalar(v), nil
	case string:
		return model.StringScalar(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return model.IntScalar(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return model.Scalar{}, unsupported(path, err.Error())
		}
		return model.FloatScalar(f), nil
	case []any:
		return model.Scalar{}, unsupported(path, "nested list")
	default:
		return model.Scalar{}, unsupported(path, fmt.Sprintf("type %T", raw))
	}
}

func unsupported(path, reason string) error {
	return model.NewError("decode").Field(path).Cause(fmt.Errorf("%w: %s", ErrUnsupportedValue, reason)).Err()
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
