package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build output directory",
	Long: `Removes the build output directory with the objects, binaries and the
fingerprint record of every mode. The next build compiles everything.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if w := b.Clean(); !w.Empty() {
		return fmt.Errorf("clean incomplete: %w", w.Err())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", b.BuildRoot())
	return nil
}
