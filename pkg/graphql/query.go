// Package graphql exposes an in-memory model tree through a read-only
// GraphQL schema.
package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// ExecuteQuery executes a GraphQL query against a schema
func ExecuteQuery(query string, schema graphql.Schema) *graphql.Result {
	return ExecuteQueryContext(context.Background(), query, schema, nil)
}

// ExecuteQueryWithVariables executes a GraphQL query with variables
func ExecuteQueryWithVariables(query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	return ExecuteQueryContext(context.Background(), query, schema, variables)
}

// ExecuteQueryContext executes a GraphQL query with variables under ctx
func ExecuteQueryContext(ctx context.Context, query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	params := graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	}
	if len(variables) > 0 {
		params.VariableValues = variables
	}
	return graphql.Do(params)
}
