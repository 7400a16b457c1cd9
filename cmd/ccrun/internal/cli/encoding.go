package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/fsutil"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/transcode"
)

var encodingFlags struct {
	from string
	to   string
	json bool
}

var encodingCmd = &cobra.Command{
	Use:   "encoding [files...]",
	Short: "Convert source files to another text encoding",
	Long: `Converts the given files, or every file selected by the include rules plus
their headers, from one text encoding to another in place.

Encodings are named by their WHATWG labels (utf-8, gbk, shift_jis,
windows-1252, ...). Without --from, the source encoding of each file is
detected: byte order marks and UTF-8 directly, legacy code pages (GBK,
Big5, Shift_JIS, ...) statistically. Short files may need --from.

Example:

  ccrun encoding --from gbk --to utf-8`,
	RunE: runEncoding,
}

func init() {
	encodingCmd.Flags().StringVar(&encodingFlags.from, "from", "",
		"Source encoding (default: detect)")
	encodingCmd.Flags().StringVar(&encodingFlags.to, "to", "",
		"Target encoding")
	encodingCmd.Flags().BoolVar(&encodingFlags.json, "json", false,
		"Output as JSON")
	_ = encodingCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(encodingCmd)
}

// EncodingOutput is the JSON output format for ccrun encoding.
type EncodingOutput struct {
	Converted []transcode.Result `json:"converted"`
	Skipped   []transcode.Result `json:"skipped"`
	Failed    []EncodingFailure  `json:"failed"`
}

// EncodingFailure is a file that could not be converted.
type EncodingFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func runEncoding(cmd *cobra.Command, args []string) error {
	t, err := transcode.New(encodingFlags.from, encodingFlags.to)
	if err != nil {
		return err
	}

	b, err := newBuilder(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	paths := args
	root := b.Root
	if len(paths) == 0 {
		files, err := b.Scan(context.Background())
		if err != nil {
			return fmt.Errorf("failed to scan project: %w", err)
		}
		paths = withHeaders(b.Root, files)
	} else {
		// Explicit paths are taken as given, relative to the working directory.
		root = ""
	}

	results := t.Files(root, paths)

	out := EncodingOutput{
		Converted: []transcode.Result{},
		Skipped:   []transcode.Result{},
		Failed:    []EncodingFailure{},
	}
	for _, r := range results {
		switch r.Status {
		case transcode.Converted:
			out.Converted = append(out.Converted, r)
		case transcode.Skipped:
			out.Skipped = append(out.Skipped, r)
		default:
			out.Failed = append(out.Failed, EncodingFailure{Path: r.Path, Error: r.Err.Error()})
		}
	}

	w := cmd.OutOrStdout()
	if encodingFlags.json {
		if err := outputJSON(w, out); err != nil {
			return err
		}
	} else {
		for _, r := range out.Converted {
			fmt.Fprintf(w, "converted %s (%s -> %s)\n", r.Path, r.From, r.To)
		}
		for _, f := range out.Failed {
			fmt.Fprintf(w, "failed    %s: %s\n", f.Path, f.Error)
		}
		fmt.Fprintf(w, "%d converted, %d skipped, %d failed\n",
			len(out.Converted), len(out.Skipped), len(out.Failed))
	}

	if len(out.Failed) > 0 {
		return fmt.Errorf("%d file(s) could not be converted", len(out.Failed))
	}
	return nil
}

// withHeaders adds the existing paired header of every source to files.
func withHeaders(root string, files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, f := range files {
		add(f)
		if h, ok := langs.PairedHeader(f); ok && fsutil.Exists(filepath.Join(root, filepath.FromSlash(h))) {
			add(h)
		}
	}
	return out
}
