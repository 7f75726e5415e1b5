package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "modelgraph",
		Short: "Search, duplicate, annotate and export design-model object trees",
		Long: `modelgraph reads a model object tree as JSON, applies one operation
and writes the result. Logs go to stderr as JSON lines.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVarP(&a.inputPath, "input", "i", "-", "input model JSON (- for stdin)")
	flags.StringVarP(&a.outputPath, "output", "o", "-", "output file (- for stdout)")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	flags.StringVar(&a.metricsPath, "metrics", "", "write Prometheus metrics to this file after the run (- for stderr)")

	rootCmd.AddCommand(
		newFindCmd(a),
		newDuplicateCmd(a),
		newOffsetCmd(a),
		newSetPropsCmd(a),
		newAssignCmd(a),
		newAssignIDsCmd(a),
		newExportCmd(a),
		newQueryCmd(a),
	)
	return rootCmd
}
