package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/watch"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild incrementally whenever sources change",
	Long: `Watches the project for source, header and resource changes and runs an
incremental build after each burst of edits. A failed build is reported and
the watcher keeps running; the next change retries it.

Example output:

  $ ccrun watch

  ccrun: watching 42 files in /path/to/project (debug)
  ccrun: ready

  [14:32:15] ~ lib/net.h
  [14:32:15] building...
  [14:32:17] ✓ 3 compiled, linked in 1.8s

Press Ctrl+C to stop watching.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 300,
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Toolchain output goes to stderr so --json keeps stdout machine-readable.
	b, err := newBuilder(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	b.Out = nil

	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Root:     b.Root,
		Target:   b,
		Mode:     string(b.Mode()),
		Debounce: watchFlags.debounce,
		Verbose:  watchFlags.verbose,
		NoColor:  watchFlags.noColor,
		JSON:     watchFlags.json,
		Writer:   cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}
