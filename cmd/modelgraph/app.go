package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-modelgraph/pkg/codec"
	"github.com/dd0wney/cluso-modelgraph/pkg/config"
	"github.com/dd0wney/cluso-modelgraph/pkg/identity"
	"github.com/dd0wney/cluso-modelgraph/pkg/logging"
	"github.com/dd0wney/cluso-modelgraph/pkg/metrics"
	"github.com/dd0wney/cluso-modelgraph/pkg/model"
)

// app carries state shared by every subcommand
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Flags
	configPath  string
	inputPath   string
	outputPath  string
	logLevel    string
	metricsPath string
	assignIDs   bool

	cfg      *config.Config
	logger   logging.Logger
	registry *metrics.Registry
}

// setup loads configuration and builds the logger and metrics registry
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = strings.ToLower(a.logLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = logging.NewJSONLogger(a.stderr, logging.ParseLevel(cfg.LogLevel)).
		With(logging.Component("modelgraph"), logging.Operation(cmd.Name()))
	a.registry = metrics.NewRegistry()
	return nil
}

// teardown writes collected metrics when requested
func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.metricsPath == "" || a.registry == nil {
		return nil
	}
	if a.metricsPath == "-" {
		return a.registry.WriteText(a.stderr)
	}
	f, err := os.Create(a.metricsPath)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()
	return a.registry.WriteText(f)
}

// readTree decodes the input file, or stdin for "-" or an empty path
func (a *app) readTree() (*model.Node, error) {
	var r io.Reader = a.stdin
	if a.inputPath != "" && a.inputPath != "-" {
		f, err := os.Open(a.inputPath)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	timer := logging.StartTimer(a.logger, "read model", logging.Path(a.inputPath))
	root, err := codec.Decode(r)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End()
	return root, nil
}

// output opens the output file, or stdout for "-" or an empty path
func (a *app) output() (io.Writer, func() error, error) {
	if a.outputPath == "" || a.outputPath == "-" {
		return a.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// writeTree optionally assigns content identities, then encodes root
func (a *app) writeTree(root *model.Node) error {
	if a.assignIDs {
		n, err := identity.AssignWith(root, a.cfg.Walker())
		if err != nil {
			return err
		}
		a.registry.RecordIdentities(n)
		a.logger.Info("identities assigned", logging.Count(n))
	}

	w, closeFn, err := a.output()
	if err != nil {
		return err
	}
	if err := codec.Encode(w, root); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
