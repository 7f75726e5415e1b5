package graphql

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxQueryDepth bounds nested children selections
const DefaultMaxQueryDepth = 32

// calculateQueryDepth calculates the maximum depth of a GraphQL query.
// Leaf fields do not add depth; fragment spreads are expanded.
func calculateQueryDepth(document *ast.Document) int {
	fragments := make(map[string]*ast.FragmentDefinition)
	for _, definition := range document.Definitions {
		if frag, ok := definition.(*ast.FragmentDefinition); ok {
			fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, definition := range document.Definitions {
		if op, ok := definition.(*ast.OperationDefinition); ok {
			depth := selectionSetDepth(op.SelectionSet, 0, fragments, map[string]bool{})
			if depth > maxDepth {
				maxDepth = depth
			}
		}
	}
	return maxDepth
}

func selectionSetDepth(set *ast.SelectionSet, current int, fragments map[string]*ast.FragmentDefinition, visiting map[string]bool) int {
	if set == nil {
		return current
	}

	maxDepth := current
	for _, selection := range set.Selections {
		depth := current
		switch sel := selection.(type) {
		case *ast.Field:
			// Skip introspection fields
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			depth = selectionSetDepth(sel.SelectionSet, current+1, fragments, visiting)
		case *ast.InlineFragment:
			depth = selectionSetDepth(sel.SelectionSet, current, fragments, visiting)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := fragments[name]
			if !ok || visiting[name] {
				continue
			}
			visiting[name] = true
			depth = selectionSetDepth(frag.SelectionSet, current, fragments, visiting)
			delete(visiting, name)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

// ValidateQueryDepth validates a query against the depth limit
func ValidateQueryDepth(query string, maxDepth int) error {
	document, err := parser.Parse(parser.ParseParams{
		Source: query,
	})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}

	if queryDepth := calculateQueryDepth(document); queryDepth > maxDepth {
		return fmt.Errorf("query depth %d exceeds maximum allowed depth %d", queryDepth, maxDepth)
	}
	return nil
}

// ExecuteWithDepthLimit executes a GraphQL query after depth validation.
// A non-positive maxDepth uses DefaultMaxQueryDepth.
func ExecuteWithDepthLimit(ctx context.Context, schema graphql.Schema, query string, maxDepth int, variables map[string]any) *graphql.Result {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxQueryDepth
	}
	if err := ValidateQueryDepth(query, maxDepth); err != nil {
		return &graphql.Result{
			Errors: []gqlerrors.FormattedError{
				gqlerrors.FormatError(err),
			},
		}
	}
	return ExecuteQueryContext(ctx, query, schema, variables)
}
