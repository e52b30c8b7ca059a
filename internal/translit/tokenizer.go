// Package translit turns Latin key sequences into Bengali text using a
// keymap.Table.
//
// Conversion is two passes over the buffer: Tokenize splits it into the
// longest patterns the table knows, and Resolve renders the tokens, picking
// the vowel sign instead of the full vowel letter when a vowel follows a
// consonant. Both passes are pure; the same buffer and table always give
// the same output.
package translit

import (
	"banglakey/internal/keymap"
)

// Token is one unit of the tokenized buffer. Either it matched a table
// entry, or it is a single rune the table does not know.
type Token struct {
	Pattern     string
	Entry       keymap.Entry
	Literal     rune
	Passthrough bool
	// Width is the number of buffer runes the token consumed.
	Width int
}

// Text returns the token's rendering without context.
func (tk Token) Text() string {
	if tk.Passthrough {
		return string(tk.Literal)
	}
	return tk.Entry.Glyph
}

// NextToken returns the token starting at pos. Lengths are tried from the
// longest the table allows down to one rune; the first exact match wins.
// A position with no match yields a one-rune passthrough token.
func NextToken(t *keymap.Table, buf []rune, pos int) Token {
	remaining := len(buf) - pos
	maxLen := min(t.MaxPatternLen(), remaining)
	for n := maxLen; n >= 1; n-- {
		candidate := string(buf[pos : pos+n])
		if e, ok := t.Lookup(candidate); ok {
			return Token{Pattern: candidate, Entry: e, Width: n}
		}
	}
	return Token{
		Pattern:     string(buf[pos]),
		Literal:     buf[pos],
		Passthrough: true,
		Width:       1,
	}
}

// Tokenize splits buf into tokens by maximal munch.
func Tokenize(t *keymap.Table, buf []rune) []Token {
	tokens := make([]Token, 0, len(buf))
	for pos := 0; pos < len(buf); {
		tk := NextToken(t, buf, pos)
		tokens = append(tokens, tk)
		pos += tk.Width
	}
	return tokens
}
