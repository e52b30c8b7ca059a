package translit

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"banglakey/internal/keymap"
)

// Convert retokenizes and renders the whole buffer.
func Convert(t *keymap.Table, buf []rune) string {
	return Resolve(t, Tokenize(t, buf))
}

// ConvertString is Convert for a string buffer.
func ConvertString(t *keymap.Table, s string) string {
	return Convert(t, []rune(s))
}

// IsConvertible reports whether r can be part of a word buffer. It is the
// pattern alphabet of keymap.
func IsConvertible(r rune) bool {
	return keymap.IsPatternRune(r)
}

// IsBoundary reports whether r ends a word and commits it.
func IsBoundary(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// ConvertText converts running text the way an interactive session would
// commit it: every maximal run of convertible runes is converted as one
// word and everything else is copied unchanged.
func ConvertText(t *keymap.Table, text string) string {
	var (
		out  strings.Builder
		word []rune
	)
	out.Grow(len(text) * 2)
	flush := func() {
		if len(word) > 0 {
			out.WriteString(Convert(t, word))
			word = word[:0]
		}
	}
	for _, r := range text {
		if IsConvertible(r) {
			word = append(word, r)
			continue
		}
		flush()
		out.WriteRune(r)
	}
	flush()
	return out.String()
}

// ConvertStream applies ConvertText to in line by line and writes the
// result to out.
func ConvertStream(t *keymap.Table, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if _, werr := w.WriteString(ConvertText(t, line)); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return w.Flush()
		}
		if err != nil {
			return err
		}
	}
}
