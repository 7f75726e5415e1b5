package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-modelgraph/pkg/edit"
	"github.com/dd0wney/cluso-modelgraph/pkg/export"
	"github.com/dd0wney/cluso-modelgraph/pkg/graphql"
	"github.com/dd0wney/cluso-modelgraph/pkg/logging"
	"github.com/dd0wney/cluso-modelgraph/pkg/metrics"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
	"github.com/dd0wney/cluso-modelgraph/pkg/parallel"
	"github.com/dd0wney/cluso-modelgraph/pkg/transform"
	"github.com/dd0wney/cluso-modelgraph/pkg/traverse"
)

var errFound = errors.New("found")

func (a *app) editor() *edit.Editor {
	return edit.NewEditor(a.cfg, a.logger, a.registry)
}

func (a *app) writeJSON(v any) error {
	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func addAssignIDsFlag(cmd *cobra.Command, a *app) {
	cmd.Flags().BoolVar(&a.assignIDs, "assign-ids", false, "compute content identities for unset nodes before writing")
}

// --- find ---

func newFindCmd(a *app) *cobra.Command {
	var appID, name, collection string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the first object matching an application id, name or collection name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pred traverse.Predicate
			switch {
			case appID != "":
				pred = traverse.ApplicationIDEquals(appID)
			case name != "":
				pred = traverse.NameEquals(name)
			case collection != "":
				pred = traverse.CollectionNamed(collection)
			default:
				return errors.New("one of --app-id, --name, --collection must be non-empty")
			}

			root, err := a.readTree()
			if err != nil {
				return err
			}

			start := time.Now()
			var found *export.Object
			visited := 0
			err = a.cfg.Walker().Walk(root, func(e traverse.Entry) error {
				visited++
				if pred(e.Node) {
					obj := export.NewObject(e.Node, e.Depth)
					found = &obj
					return errFound
				}
				return nil
			})
			if err != nil && !errors.Is(err, errFound) {
				a.registry.RecordOperation("find", metrics.StatusError, time.Since(start))
				return err
			}
			a.registry.ObserveNodesVisited("find", visited)
			a.registry.RecordOperation("find", metrics.StatusFor(found != nil, nil), time.Since(start))

			if found == nil {
				a.logger.Warn("no match")
			}
			return a.writeJSON(found)
		},
	}
	cmd.Flags().StringVar(&appID, "app-id", "", "match on applicationId")
	cmd.Flags().StringVar(&name, "name", "", "match on name")
	cmd.Flags().StringVar(&collection, "collection", "", "match a collection by name")
	cmd.MarkFlagsMutuallyExclusive("app-id", "name", "collection")
	cmd.MarkFlagsOneRequired("app-id", "name", "collection")
	return cmd
}

// --- duplicate ---

func newDuplicateCmd(a *app) *cobra.Command {
	var appID string
	var dx float64

	cmd := &cobra.Command{
		Use:   "duplicate",
		Short: "Copy an object beside itself, shifted along X, and append it to the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.readTree()
			if err != nil {
				return err
			}

			dup, err := a.editor().Duplicate(root, appID, dx)
			if err != nil {
				return err
			}
			if dup == nil {
				return fmt.Errorf("no object with applicationId %q", appID)
			}
			if dup.GeometryErr != nil {
				a.logger.Warn("copy has malformed geometry", logging.Error(dup.GeometryErr))
			}
			a.logger.Info(dup.Message, logging.ApplicationID(dup.Copy.ApplicationID), logging.NodeName(dup.Copy.Name))
			return a.writeTree(root)
		},
	}
	cmd.Flags().StringVar(&appID, "app-id", "", "applicationId of the object to copy")
	cmd.Flags().Float64Var(&dx, "dx", 0, "X offset applied to the copy, in model units")
	_ = cmd.MarkFlagRequired("app-id")
	addAssignIDsFlag(cmd, a)
	return cmd
}

// --- offset ---

func newOffsetCmd(a *app) *cobra.Command {
	var appID string
	var dx, dy, dz float64
	var subtree bool

	cmd := &cobra.Command{
		Use:   "offset",
		Short: "Translate an object's geometry in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.readTree()
			if err != nil {
				return err
			}

			start := time.Now()
			target, err := a.cfg.Walker().FindFirst(root, traverse.ApplicationIDEquals(appID))
			if err != nil {
				return err
			}
			if target == nil {
				a.registry.RecordOperation("offset", metrics.StatusNotFound, time.Since(start))
				return fmt.Errorf("no object with applicationId %q", appID)
			}

			policy := transform.Translate{DX: dx, DY: dy, DZ: dz}
			if subtree {
				err = transform.ApplyTree(target, a.cfg.Walker(), policy)
			} else {
				err = transform.Apply(target, policy)
			}
			if err != nil {
				if model.IsDepthExceeded(err) || !model.IsMalformedGeometry(err) {
					a.registry.RecordOperation("offset", metrics.StatusError, time.Since(start))
					return err
				}
				a.registry.RecordMalformedGeometry("offset", model.CountMalformedGeometry(err))
				a.logger.Warn("malformed geometry skipped", logging.Error(err))
			}
			if subtree {
				_ = a.cfg.Walker().Walk(target, func(e traverse.Entry) error {
					e.Node.ID = ""
					return nil
				})
			}
			if _, err := edit.InvalidatePath(root, target, a.cfg.Walker()); err != nil {
				return err
			}
			a.registry.RecordOperation("offset", metrics.StatusSuccess, time.Since(start))
			return a.writeTree(root)
		},
	}
	cmd.Flags().StringVar(&appID, "app-id", "", "applicationId of the object to move")
	cmd.Flags().Float64Var(&dx, "dx", 0, "X offset")
	cmd.Flags().Float64Var(&dy, "dy", 0, "Y offset")
	cmd.Flags().Float64Var(&dz, "dz", 0, "Z offset")
	cmd.Flags().BoolVar(&subtree, "subtree", false, "also move every descendant")
	_ = cmd.MarkFlagRequired("app-id")
	addAssignIDsFlag(cmd, a)
	return cmd
}

// --- set-props ---

func newSetPropsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-props key=value...",
		Short: "Set properties on the root object",
		Long: `Set properties on the root object. Values that parse as integers,
floats or booleans are stored with that type; everything else is a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := parseAssignments(args)
			if err != nil {
				return err
			}
			root, err := a.readTree()
			if err != nil {
				return err
			}
			if err := a.editor().SetRootProperties(root, props); err != nil {
				return err
			}
			return a.writeTree(root)
		},
	}
	addAssignIDsFlag(cmd, a)
	return cmd
}

// --- assign ---

func newAssignCmd(a *app) *cobra.Command {
	var collection, bag, field string

	cmd := &cobra.Command{
		Use:   "assign value...",
		Short: "Set a field inside each child's property bag in a named collection",
		Long: `Pairs the children of the first collection with the given name, in
order, with the values and sets the field inside each child's property bag.
Children without the bag are skipped; extra children or values are ignored.`,
		Example: `  modelgraph assign -i model.json --collection "Old modules" --field Designer "Aditye Kossambe" "David Agudelo"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.readTree()
			if err != nil {
				return err
			}
			values := make([]model.Value, len(args))
			for i, arg := range args {
				values[i] = model.String(arg)
			}
			if _, err := a.editor().AssignChildProperties(root, collection, bag, field, values); err != nil {
				return err
			}
			return a.writeTree(root)
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection name")
	cmd.Flags().StringVar(&bag, "bag", "properties", "property holding the nested bag")
	cmd.Flags().StringVar(&field, "field", "", "field to set inside the bag")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("field")
	addAssignIDsFlag(cmd, a)
	return cmd
}

// --- assign-ids ---

func newAssignIDsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-ids",
		Short: "Compute content identities for every node without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.readTree()
			if err != nil {
				return err
			}
			a.assignIDs = true
			return a.writeTree(root)
		},
	}
}

// --- export ---

func newExportCmd(a *app) *cobra.Command {
	var versionID, message string
	var compress, indent bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every object with its depth and scalar properties as a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("compress") {
				a.cfg.Export.Compress = compress
			}
			if cmd.Flags().Changed("indent") {
				a.cfg.Export.Indent = indent
			}

			root, err := a.readTree()
			if err != nil {
				return err
			}

			var pool *parallel.WorkerPool
			if a.cfg.Workers != 1 {
				pool, err = parallel.NewWorkerPool(a.cfg.Workers, a.logger)
				if err != nil {
					return err
				}
				defer pool.Close()
			}

			w, closeFn, err := a.output()
			if err != nil {
				return err
			}
			doc, err := export.NewExporter(a.cfg, pool, a.logger, a.registry).Export(w, root, versionID, message)
			if err != nil {
				closeFn()
				return err
			}
			a.logger.Info("objects exported", logging.Count(len(doc.Objects)))
			return closeFn()
		},
	}
	cmd.Flags().StringVar(&versionID, "version-id", "", "source version recorded in the document")
	cmd.Flags().StringVar(&message, "message", "", "source version message recorded in the document")
	cmd.Flags().BoolVar(&compress, "compress", false, "snappy-compress the document")
	cmd.Flags().BoolVar(&indent, "indent", true, "indent the JSON document")
	return cmd
}

// --- query ---

func newQueryCmd(a *app) *cobra.Command {
	var vars []string
	var maxDepth int

	cmd := &cobra.Command{
		Use:     "query <graphql>",
		Short:   "Run a read-only GraphQL query against the model",
		Example: `  modelgraph query -i model.json '{ node(applicationId: "17cc627f") { name depth properties } }'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variables, err := parseVariables(vars)
			if err != nil {
				return err
			}
			root, err := a.readTree()
			if err != nil {
				return err
			}

			start := time.Now()
			schema, err := graphql.GenerateSchema(root, a.cfg.Walker())
			if err != nil {
				a.registry.RecordOperation("query", metrics.StatusError, time.Since(start))
				return err
			}
			result := graphql.ExecuteWithDepthLimit(context.Background(), schema, args[0], maxDepth, variables)
			status := metrics.StatusSuccess
			if result.HasErrors() {
				status = metrics.StatusError
			}
			a.registry.RecordOperation("query", status, time.Since(start))

			if err := a.writeJSON(result); err != nil {
				return err
			}
			if result.HasErrors() {
				return fmt.Errorf("query failed: %s", result.Errors[0].Message)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "query variable as name=value (repeatable)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", graphql.DefaultMaxQueryDepth, "maximum selection depth")
	return cmd
}

// parseAssignments parses key=value arguments into typed property values
func parseAssignments(args []string) (map[string]model.Value, error) {
	props := make(map[string]model.Value, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", arg)
		}
		props[key] = model.ScalarValue(parseScalar(raw))
	}
	return props, nil
}

func parseVariables(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	vars := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected name=value", arg)
		}
		vars[key] = parseScalar(raw).Interface()
	}
	return vars, nil
}

func parseScalar(raw string) model.Scalar {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return model.IntScalar(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return model.FloatScalar(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return model.BoolScalar(b)
	}
	return model.StringScalar(raw)
}
