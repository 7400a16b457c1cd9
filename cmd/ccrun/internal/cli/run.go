package cli

import (
	"github.com/spf13/cobra"
)

var runFlags struct {
	noBuild bool
}

var runCmd = &cobra.Command{
	Use:   "run [-- args...]",
	Short: "Build if needed, then run the binary",
	Long: `Brings the binary up to date and runs it from its output directory with
run.args from the configuration followed by any arguments after "--".

Use --no-build to run the existing binary as is.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.noBuild, "no-build", false,
		"Run the existing binary without building")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := newBuilder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if !runFlags.noBuild {
		report, err := b.Build(ctx)
		if err != nil {
			return err
		}
		printReport(cmd.ErrOrStderr(), report)
	}
	return b.Run(ctx, args)
}
