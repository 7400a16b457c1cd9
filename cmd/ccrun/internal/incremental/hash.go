package incremental

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io/fs"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DigestLen is the length of every fingerprint in hex characters.
const DigestLen = 16

// HashBytes computes xxHash64 of bytes, returns hex string.
func HashBytes(data []byte) string {
	h := xxhash.Sum64(data)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return hex.EncodeToString(buf[:])
}

// HashText fingerprints file content read as UTF-8 text. Invalid byte
// sequences decode to U+FFFD and trailing whitespace is ignored, so a
// trailing newline added by an editor does not make a file stale.
func HashText(data []byte) string {
	text := bytes.ToValidUTF8(data, []byte("\uFFFD"))
	text = bytes.TrimRightFunc(text, unicode.IsSpace)
	return HashBytes(text)
}

// HashFile fingerprints the file at the slash-separated path within fsys.
func HashFile(fsys fs.FS, path string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return HashText(data), nil
}
