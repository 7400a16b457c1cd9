// Package transcode converts the text encoding of project source files.
package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/albertocavalcante/ccrun/internal/log"
)

// ErrUnknownSource is returned when the source encoding was not given and
// cannot be inferred from the file content.
var ErrUnknownSource = errors.New("cannot detect source encoding, pass it explicitly")

// Common lists frequently used encoding names for help output. Any WHATWG
// label is accepted.
var Common = []string{"utf-8", "gbk", "gb18030", "big5", "shift_jis", "euc-kr", "windows-1252", "utf-16le", "utf-16be"}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Lookup resolves an encoding label to its encoding and canonical name.
func Lookup(label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q", label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	return enc, name, nil
}

// charsetLabels maps detector charset names that are not WHATWG labels.
var charsetLabels = map[string]string{
	"GB-18030": "gb18030",
}

// Detect infers the encoding of data. A byte order mark or valid UTF-8
// wins; anything else goes through statistical charset detection, so
// legacy code pages such as GBK, Big5 or Shift_JIS are recognized when the
// file has enough text.
func Detect(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return "utf-8", nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return "utf-16le", nil
	case bytes.HasPrefix(data, bomUTF16BE):
		return "utf-16be", nil
	case utf8.Valid(data):
		return "utf-8", nil
	}

	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", ErrUnknownSource
	}
	label := best.Charset
	if l, ok := charsetLabels[label]; ok {
		label = l
	}
	label = strings.ToLower(label)
	if _, err := htmlindex.Get(label); err != nil {
		return "", fmt.Errorf("%w: detected unsupported charset %s", ErrUnknownSource, best.Charset)
	}
	log.Component("transcode").Debug("detected encoding",
		"charset", best.Charset, "confidence", best.Confidence)
	return label, nil
}

// Convert decodes data from one encoding and re-encodes it in another.
// A leading byte order mark is dropped. Characters the target cannot
// represent are an error.
func Convert(data []byte, from, to encoding.Encoding) ([]byte, error) {
	text, err := from.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	text = bytes.TrimPrefix(text, bomUTF8)
	out, err := to.NewEncoder().Bytes(text)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

// Status is the outcome of converting one file.
type Status int

const (
	Converted Status = iota
	Skipped          // already in the target encoding
	Failed
)

func (s Status) String() string {
	switch s {
	case Converted:
		return "converted"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result reports what happened to one file.
type Result struct {
	Path   string `json:"path"`
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Status Status `json:"-"`
	Err    error  `json:"-"`
}

// Transcoder converts files in place.
type Transcoder struct {
	from     encoding.Encoding // nil means detect per file
	fromName string
	to       encoding.Encoding
	toName   string
}

// New creates a transcoder. from may be empty to detect the source
// encoding of each file.
func New(from, to string) (*Transcoder, error) {
	t := &Transcoder{}
	var err error
	if t.to, t.toName, err = Lookup(to); err != nil {
		return nil, err
	}
	if from != "" {
		if t.from, t.fromName, err = Lookup(from); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// File converts the file at path in place. The file is left untouched on
// any failure.
func (t *Transcoder) File(path string) Result {
	res := Result{Path: path, To: t.toName}
	logger := log.Component("transcode")

	data, err := os.ReadFile(path)
	if err != nil {
		res.Status, res.Err = Failed, err
		return res
	}

	from, fromName := t.from, t.fromName
	if from == nil {
		label, err := Detect(data)
		if err != nil {
			res.Status, res.Err = Failed, err
			return res
		}
		if from, fromName, err = Lookup(label); err != nil {
			res.Status, res.Err = Failed, err
			return res
		}
	}
	res.From = fromName

	if fromName == t.toName {
		res.Status = Skipped
		logger.Debug("already in target encoding", "path", path, "encoding", fromName)
		return res
	}

	out, err := Convert(data, from, t.to)
	if err != nil {
		res.Status, res.Err = Failed, err
		return res
	}
	if err := writeFileAtomic(path, out); err != nil {
		res.Status, res.Err = Failed, err
		return res
	}

	res.Status = Converted
	logger.Info("converted", "path", path, "from", fromName, "to", t.toName)
	return res
}

// Files converts each project-relative path under root.
func (t *Transcoder) Files(root string, paths []string) []Result {
	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		r := t.File(filepath.Join(root, filepath.FromSlash(p)))
		r.Path = p
		results = append(results, r)
	}
	return results
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
