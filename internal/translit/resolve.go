package translit

import (
	"strings"

	"banglakey/internal/keymap"
)

// Resolve renders tokens left to right. A vowel directly after a consonant
// is written with its vowel sign when the table has one; the inherent vowel
// has none and keeps its full letter. Only consonants set the memory, every
// other token clears it.
func Resolve(t *keymap.Table, tokens []Token) string {
	var sb strings.Builder
	afterConsonant := false
	for _, tk := range tokens {
		if tk.Passthrough {
			sb.WriteRune(tk.Literal)
			afterConsonant = false
			continue
		}
		switch tk.Entry.Role {
		case keymap.RoleIndependentVowel:
			if afterConsonant {
				if sign, ok := t.Diacritic(tk.Pattern); ok {
					sb.WriteString(sign)
					afterConsonant = false
					continue
				}
			}
			sb.WriteString(tk.Entry.Glyph)
			afterConsonant = false
		case keymap.RoleConsonant:
			sb.WriteString(tk.Entry.Glyph)
			afterConsonant = true
		default:
			sb.WriteString(tk.Entry.Glyph)
			afterConsonant = false
		}
	}
	return sb.String()
}
