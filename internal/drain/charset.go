package drain

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

const defaultCharset = "UTF-8"

// Detector guesses the character set of raw process output.
type Detector interface {
	Detect(b []byte) (charset string, ok bool)
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(b []byte) (string, bool)

func (f DetectorFunc) Detect(b []byte) (string, bool) { return f(b) }

// ChardetDetector sniffs with saintfish/chardet. Output that is already
// valid UTF-8 is reported as such without running the heuristic, which is
// unreliable on short samples.
type ChardetDetector struct {
	MinConfidence int
}

func (d ChardetDetector) Detect(b []byte) (string, bool) {
	if len(b) == 0 {
		return "", false
	}
	if utf8.Valid(b) {
		return defaultCharset, true
	}
	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || res == nil || res.Charset == "" {
		return "", false
	}
	if res.Confidence < d.MinConfidence {
		return "", false
	}
	return res.Charset, true
}

// Decode converts b from charset to a Go string. Unknown charsets and
// decoding failures fall back to interpreting b as UTF-8.
func Decode(b []byte, charset string) string {
	if charset == "" || strings.EqualFold(charset, defaultCharset) {
		return string(b)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// incompleteTail is the length of a rune prefix at the end of p that still
// needs continuation bytes.
func incompleteTail(p []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		c := p[len(p)-i]
		if c < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(c) {
			if utf8.FullRune(p[len(p)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}
