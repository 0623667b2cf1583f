package loader

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
)

// FallbackEncodings are tried in order after the detected encoding fails
var FallbackEncodings = []string{"utf-8", "cp949", "euc-kr", "latin1"}

// detectionSampleSize bounds how much of the file the detector inspects
const detectionSampleSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFunc returns the best-guess charset name for raw bytes, or "" when unsure
type DetectFunc func(data []byte) string

// DetectCharset runs the byte-statistics detector over the head of data
func DetectCharset(data []byte) string {
	sample := data
	if len(sample) > detectionSampleSize {
		sample = sample[:detectionSampleSize]
	}
	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return ""
	}
	return result.Charset
}

// lookupEncoding maps a charset label to a decoder. UTF-8 returns nil because it is
// validated rather than transcoded.
func lookupEncoding(name string) (encoding.Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return nil, true
	case "cp949", "euc-kr", "windows-949", "uhc":
		return korean.EUCKR, true
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, true
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, false
	}
	return enc, true
}

// decode converts data from the named charset to UTF-8, failing on bytes the
// charset cannot represent
func decode(data []byte, name string) (string, error) {
	enc, ok := lookupEncoding(name)
	if !ok {
		return "", fmt.Errorf("unknown encoding %q", name)
	}
	if enc == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 input")
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	// x/text substitutes U+FFFD for undecodable input instead of failing
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(data, []byte(string(utf8.RuneError))) {
		return "", fmt.Errorf("input is not valid %s", name)
	}
	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}

// candidateEncodings lists the detected charset first, followed by the fallbacks
func candidateEncodings(detected string) []string {
	out := make([]string, 0, len(FallbackEncodings)+1)
	if detected != "" {
		out = append(out, detected)
	}
	return append(out, FallbackEncodings...)
}
