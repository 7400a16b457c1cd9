package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rebuildFlags struct {
	yes bool
	run bool
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Delete all build output and build from scratch",
	Long: `Removes the build output directory, including the fingerprint record of
every mode, and builds everything again. This can take a while on large
projects, so an interactive terminal is asked for confirmation.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVarP(&rebuildFlags.yes, "yes", "y", false,
		"Do not ask for confirmation")
	rebuildCmd.Flags().BoolVarP(&rebuildFlags.run, "run", "r", false,
		"Run the binary after a successful build")

	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := newBuilder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if !rebuildFlags.yes && isInteractive() {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(),
			fmt.Sprintf("Delete %s and rebuild everything?", b.BuildRoot()))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	report, err := b.Rebuild(ctx)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), report)

	if rebuildFlags.run {
		return b.Run(ctx, nil)
	}
	return nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// confirm asks a yes/no question; anything but y/yes is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
