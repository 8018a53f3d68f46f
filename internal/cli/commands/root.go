package commands

import (
	"errors"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/querymodel/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	// Global flags
	configPath string
	modelPath  string
	noColor    bool
)

// errReported marks an error whose message has already been written
var errReported = errors.New("error already reported")

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "querymodel",
		Short: "Query-model compiler for mapped entity models",
		Long: color.CyanString(`querymodel - query-model compiler

querymodel compiles the navigational part of object queries against a mapped
entity model: it resolves dotted paths into joins between query spaces and
decides how every association reachable from a root is fetched.

Commands:
  • plan      build the load plan of an entity or collection
  • resolve   resolve paths against a from clause
  • validate  check a model file`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./querymodel.yml)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "Model file, overrides model.path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewValidateCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the querymodel version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			kv.AddRow("querymodel version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			rootCmd.PrintErr(ui.FormatCommandError(err, noColor))
		}
		return err
	}
	return nil
}
