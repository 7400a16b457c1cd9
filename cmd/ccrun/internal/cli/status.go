package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusFlags struct {
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which files would be recompiled",
	Long: `Compares the current sources and configuration against the record of the
last successful build of the active mode, without running the toolchain.

The --verbose flag lists every file that would be recompiled.
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"List every file that would be recompiled")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for ccrun status.
type StatusOutput struct {
	Mode       string   `json:"mode"`
	Stale      bool     `json:"stale"`
	HasState   bool     `json:"has_state"`
	Files      int      `json:"files"`
	Tracked    int      `json:"tracked"`
	DiffFiles  []string `json:"diff_files"`
	Rebuild    bool     `json:"rebuild"`
	RebuildRes bool     `json:"rebuild_res"`
	Relink     bool     `json:"relink"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	b, err := newBuilder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	st, err := b.Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to detect staleness: %w", err)
	}

	out := cmd.OutOrStdout()
	if statusFlags.json {
		diff := st.Analysis.DiffFiles
		if diff == nil {
			diff = []string{}
		}
		return outputJSON(out, StatusOutput{
			Mode:       string(st.Mode),
			Stale:      !st.Analysis.IsEmpty(),
			HasState:   st.HasState,
			Files:      st.Files,
			Tracked:    st.Tracked,
			DiffFiles:  diff,
			Rebuild:    st.Analysis.Rebuild,
			RebuildRes: st.Analysis.RebuildRes,
			Relink:     st.Analysis.Relink,
		})
	}

	if !st.HasState {
		fmt.Fprintf(out, "No build record at %s. The next build compiles everything.\n", st.Record)
		return nil
	}
	if st.Analysis.IsEmpty() {
		fmt.Fprintf(out, "%s: up to date (%d files tracked)\n", st.Mode, st.Tracked)
		return nil
	}

	a := st.Analysis
	fmt.Fprintf(out, "%s: %d changed file(s)\n", st.Mode, len(a.DiffFiles))
	if a.Rebuild {
		fmt.Fprintln(out, "  compile settings changed: all sources will be recompiled")
	}
	if a.RebuildRes {
		fmt.Fprintln(out, "  resource compiler changed: all resources will be recompiled")
	}
	if a.Relink {
		fmt.Fprintln(out, "  binary will be relinked")
	}
	if statusFlags.verbose {
		for _, f := range a.DiffFiles {
			fmt.Fprintf(out, "  ~ %s\n", f)
		}
	}
	return nil
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
