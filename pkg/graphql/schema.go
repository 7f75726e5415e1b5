package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-modelgraph/pkg/export"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

// modelIndex is a snapshot of the tree taken when the schema is generated
type modelIndex struct {
	root    *model.Node
	walker  traverse.Walker
	entries []traverse.Entry
	depth   map[*model.Node]int
}

func newModelIndex(root *model.Node, w traverse.Walker) (*modelIndex, error) {
	entries, err := w.Flatten(root)
	if err != nil {
		return nil, err
	}
	idx := &modelIndex{
		root:    root,
		walker:  w,
		entries: entries,
		depth:   make(map[*model.Node]int, len(entries)),
	}
	for _, e := range entries {
		idx.depth[e.Node] = e.Depth
	}
	return idx, nil
}

// GenerateSchema generates a GraphQL schema over an in-memory model tree.
// The tree is indexed once; restructuring it afterwards needs a new schema.
func GenerateSchema(root *model.Node, w traverse.Walker) (graphql.Schema, error) {
	idx, err := newModelIndex(root, w)
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to index model: %w", err)
	}

	nodeType := createNodeType(idx)

	queryFields := graphql.Fields{
		// Always include a health check query
		"health": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "ok", nil
			},
		},

		// root: Node
		"root": &graphql.Field{
			Type: nodeType,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if idx.root == nil {
					return nil, nil
				}
				return idx.root, nil
			},
		},

		// node(applicationId: String!): Node
		"node": &graphql.Field{
			Type: nodeType,
			Args: graphql.FieldConfigArgument{
				"applicationId": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: createFindResolver(idx, "applicationId", traverse.ApplicationIDEquals),
		},

		// named(name: String!): Node
		"named": &graphql.Field{
			Type: nodeType,
			Args: graphql.FieldConfigArgument{
				"name": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: createFindResolver(idx, "name", traverse.NameEquals),
		},

		// collection(name: String!): Node
		"collection": &graphql.Field{
			Type: nodeType,
			Args: graphql.FieldConfigArgument{
				"name": &graphql.ArgumentConfig{
					Type: graphql.NewNonNull(graphql.String),
				},
			},
			Resolve: createFindResolver(idx, "name", traverse.CollectionNamed),
		},

		// objects(limit: Int, offset: Int): [Node]
		"objects": &graphql.Field{
			Type: graphql.NewList(nodeType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{
					Type: graphql.Int,
				},
				"offset": &graphql.ArgumentConfig{
					Type:         graphql.Int,
					DefaultValue: 0,
				},
			},
			Resolve: createObjectsResolver(idx),
		},

		// count: Int
		"count": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return len(idx.entries), nil
			},
		},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}

	return schema, nil
}

// createNodeType creates the recursive Node object type
func createNodeType(idx *modelIndex) *graphql.Object {
	var nodeType *graphql.Object
	nodeType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type:    graphql.ID,
					Resolve: stringResolver(func(n *model.Node) string { return n.ID }),
				},
				"applicationId": &graphql.Field{
					Type:    graphql.String,
					Resolve: stringResolver(func(n *model.Node) string { return n.ApplicationID }),
				},
				"name": &graphql.Field{
					Type:    graphql.String,
					Resolve: stringResolver(func(n *model.Node) string { return n.Name }),
				},
				"type": &graphql.Field{
					Type:    graphql.String,
					Resolve: stringResolver(func(n *model.Node) string { return n.Type }),
				},
				"depth": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						node, ok := p.Source.(*model.Node)
						if !ok {
							return nil, nil
						}
						if d, ok := idx.depth[node]; ok {
							return d, nil
						}
						return nil, nil
					},
				},
				// Scalar properties as a JSON object string
				"properties": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						node, ok := p.Source.(*model.Node)
						if !ok {
							return nil, nil
						}
						data, err := json.Marshal(export.NewObject(node, 0).Properties)
						if err != nil {
							return nil, fmt.Errorf("failed to encode properties: %w", err)
						}
						return string(data), nil
					},
				},
				"hasGeometry": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if node, ok := p.Source.(*model.Node); ok {
							return node.HasGeometry(), nil
						}
						return nil, nil
					},
				},
				"vertexCount": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if node, ok := p.Source.(*model.Node); ok {
							return vertexCount(node), nil
						}
						return nil, nil
					},
				},
				"childCount": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if node, ok := p.Source.(*model.Node); ok {
							return len(node.Children), nil
						}
						return nil, nil
					},
				},
				"children": &graphql.Field{
					Type: graphql.NewList(nodeType),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						node, ok := p.Source.(*model.Node)
						if !ok {
							return nil, nil
						}
						children := make([]interface{}, 0, len(node.Children))
						for _, child := range node.Children {
							if child != nil {
								children = append(children, child)
							}
						}
						return children, nil
					},
				},
			}
		}),
	})
	return nodeType
}

func stringResolver(get func(*model.Node) string) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		node, ok := p.Source.(*model.Node)
		if !ok {
			return nil, nil
		}
		if v := get(node); v != "" {
			return v, nil
		}
		return nil, nil
	}
}

// createFindResolver creates a resolver returning the first node matching a
// predicate built from a string argument
func createFindResolver(idx *modelIndex, arg string, pred func(string) traverse.Predicate) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		value, ok := p.Args[arg].(string)
		if !ok {
			return nil, fmt.Errorf("%s argument is required", arg)
		}
		found, err := idx.walker.FindFirst(idx.root, pred(value))
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, nil
		}
		return found, nil
	}
}

// createObjectsResolver lists nodes in pre-order with optional paging
func createObjectsResolver(idx *modelIndex) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		offset, _ := p.Args["offset"].(int)
		if offset < 0 {
			return nil, fmt.Errorf("offset must be non-negative, got %d", offset)
		}
		end := len(idx.entries)
		if limit, ok := p.Args["limit"].(int); ok {
			if limit < 0 {
				return nil, fmt.Errorf("limit must be non-negative, got %d", limit)
			}
			if offset+limit < end {
				end = offset + limit
			}
		}

		nodes := []interface{}{}
		for i := offset; i < end; i++ {
			nodes = append(nodes, idx.entries[i].Node)
		}
		return nodes, nil
	}
}

func vertexCount(n *model.Node) int {
	count := n.Mesh.PointCount()
	if n.Display != nil {
		for _, m := range n.Display.Meshes {
			count += m.PointCount()
		}
	}
	return count
}
