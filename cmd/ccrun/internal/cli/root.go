// Package cli implements the ccrun command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/runner"
	"github.com/albertocavalcante/ccrun/internal/log"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
	mode      string
	dir       string
	buildPath string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ccrun",
	Short: "Incremental build and run for C/C++ projects",
	Long: `ccrun compiles, links and runs a C/C++ project with an external toolchain
(gcc, clang, mingw). Only sources whose content, paired header or compile
settings changed since the last successful build are recompiled.

Configuration is read from ccrun.toml (or .ccrun/config.toml) in the project,
~/.config/ccrun/config.toml and CCRUN_* environment variables.`,
	SilenceUsage: true,
	// Default behavior: show help
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ccrun %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.mode, "mode", "m", "",
		"Build mode (debug, release); overrides build.mode")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.dir, "dir", "C", "",
		"Project directory (default: nearest project root above the working directory)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.buildPath, "build-path", "",
		"Build output directory; overrides build.path")

	// Hook to apply flags before command runs
	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	format, err := log.ParseFormat(globalFlags.logFormat)
	if err != nil {
		format = log.FormatText
	}
	log.Init(globalFlags.verbosity, format)
	if err != nil {
		log.Component("cli").Warn(err.Error())
	}
}

// Execute runs the root command. A failing toolchain or program exit code
// becomes the exit code of ccrun.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *runner.ExitError
		if errors.As(err, &exitErr) && exitErr.Code > 0 {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
