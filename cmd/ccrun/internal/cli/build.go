package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/build"
)

var buildFlags struct {
	run  bool
	json bool
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile and link what changed since the last successful build",
	Long: `Compiles every source whose content, paired header or compile settings
changed since the last successful build, then links the binary.

A changed header (.h/.hpp) recompiles every source of the same bucket: files
under the library prefix (default "lib/") or everything else.

The fingerprint record is only updated when every toolchain step succeeds, so
a failed build is retried in full next time.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildFlags.run, "run", "r", false,
		"Run the binary after a successful build")
	buildCmd.Flags().BoolVar(&buildFlags.json, "json", false,
		"Output the build report as JSON")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// Toolchain output goes to stderr so --json keeps stdout machine-readable.
	out := cmd.OutOrStdout()
	if buildFlags.json {
		out = cmd.ErrOrStderr()
	}
	b, err := newBuilder(out, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if buildFlags.json {
		b.Out = nil
	}

	report, err := b.Build(ctx)
	if buildFlags.json && report != nil {
		if jerr := outputJSON(cmd.OutOrStdout(), report); jerr != nil {
			return jerr
		}
	} else if err == nil {
		printReport(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}

	if buildFlags.run {
		return b.Run(ctx, nil)
	}
	return nil
}

// printReport writes a one-line build summary plus warnings.
func printReport(w io.Writer, r *build.Report) {
	if r.UpToDate {
		fmt.Fprintf(w, "%s: up to date\n", r.Mode)
	} else {
		fmt.Fprintf(w, "%s: %d compiled, linked %s in %s\n",
			r.Mode, r.Compiled, r.Binary, r.Duration.Round(time.Millisecond))
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %v\n", warn)
	}
}

// signalContext is cancelled on interrupt so a running toolchain step is
// killed and the record is left untouched.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
