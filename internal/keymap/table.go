// Package keymap holds the phonetic pattern table that maps Latin key
// sequences to Bengali glyphs.
//
// A Table is built once and never mutated afterwards, so it can be shared
// between sessions and goroutines without locking. Reloading a layout means
// building a new Table and swapping the pointer.
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"
)

// MaxPatternLen is the longest pattern a table accepts, in runes.
const MaxPatternLen = 5

// InherentVowel is carried implicitly by every consonant, so it is the only
// independent vowel without a vowel sign.
const InherentVowel = "o"

// Role tags what a glyph is. A pattern has exactly one role for the life of
// the table.
type Role uint8

const (
	// RoleOther covers digits, punctuation and modifiers such as anusvara.
	RoleOther Role = iota
	// RoleIndependentVowel is a free-standing vowel letter.
	RoleIndependentVowel
	// RoleConsonant is a consonant or a conjunct cluster.
	RoleConsonant
)

// String returns the role name used in overlays and listings.
func (r Role) String() string {
	switch r {
	case RoleIndependentVowel:
		return "vowel"
	case RoleConsonant:
		return "consonant"
	default:
		return "other"
	}
}

// ParseRole parses a role name as written in an overlay file.
func ParseRole(s string) (Role, error) {
	switch s {
	case "vowel", "independent_vowel":
		return RoleIndependentVowel, nil
	case "consonant":
		return RoleConsonant, nil
	case "other":
		return RoleOther, nil
	default:
		return RoleOther, fmt.Errorf("keymap: unknown role %q", s)
	}
}

// IsPatternRune reports whether r may appear in a pattern: ASCII letters
// and digits, plus . : $ _. Hosts only buffer these runes, so a pattern
// with any other rune could never match.
func IsPatternRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == ':', r == '$', r == '_':
		return true
	}
	return false
}

// Entry binds a pattern to its glyph.
type Entry struct {
	Pattern string
	Glyph   string
	Role    Role
}

// Errors returned by Build.
var (
	ErrEmptyPattern     = errors.New("keymap: empty pattern")
	ErrPatternTooLong   = errors.New("keymap: pattern too long")
	ErrPatternRune      = errors.New("keymap: pattern rune outside the input alphabet")
	ErrEmptyGlyph       = errors.New("keymap: empty glyph")
	ErrDuplicatePattern = errors.New("keymap: duplicate pattern")
	ErrOrphanDiacritic  = errors.New("keymap: diacritic for a pattern that is not a vowel")
	ErrMissingDiacritic = errors.New("keymap: vowel without diacritic")
)

// Table is an immutable pattern table.
type Table struct {
	entries    map[string]Entry
	diacritics map[string]string
	maxLen     int
}

// Lookup returns the entry bound to pattern. Matching is exact and
// case-sensitive.
func (t *Table) Lookup(pattern string) (Entry, bool) {
	e, ok := t.entries[pattern]
	return e, ok
}

// LookupExact returns only the glyph bound to pattern.
func (t *Table) LookupExact(pattern string) (string, bool) {
	e, ok := t.entries[pattern]
	if !ok {
		return "", false
	}
	return e.Glyph, true
}

// Diacritic returns the vowel sign used when the vowel follows a consonant.
func (t *Table) Diacritic(pattern string) (string, bool) {
	d, ok := t.diacritics[pattern]
	return d, ok
}

// MaxPatternLen returns the length of the longest registered pattern.
func (t *Table) MaxPatternLen() int {
	return t.maxLen
}

// Len returns the number of patterns.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of all entries sorted by pattern.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// Option customises Build.
type Option func(*buildOptions)

type buildOptions struct {
	skipBuiltins bool
	layers       []func(*builder) error
}

// WithoutBuiltins starts from an empty table instead of the built-in layout.
func WithoutBuiltins() Option {
	return func(o *buildOptions) {
		o.skipBuiltins = true
	}
}

// WithEntries adds entries and vowel signs on top of whatever the table
// already holds. Patterns repeated within entries are rejected; patterns
// that already exist are replaced.
func WithEntries(entries []Entry, diacritics map[string]string) Option {
	return func(o *buildOptions) {
		o.layers = append(o.layers, func(b *builder) error {
			return b.layer(entries, diacritics)
		})
	}
}

// WithOverlay applies a user overlay.
func WithOverlay(ov *Overlay) Option {
	return func(o *buildOptions) {
		if ov == nil {
			return
		}
		o.layers = append(o.layers, func(b *builder) error {
			entries, diacritics, err := ov.entries()
			if err != nil {
				return err
			}
			return b.layer(entries, diacritics)
		})
	}
}

type builder struct {
	entries    map[string]Entry
	diacritics map[string]string
}

func (b *builder) layer(entries []Entry, diacritics map[string]string) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Pattern]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePattern, e.Pattern)
		}
		seen[e.Pattern] = struct{}{}
		if err := b.put(e, true); err != nil {
			return err
		}
	}
	for p, d := range diacritics {
		b.diacritics[p] = d
	}
	return nil
}

func (b *builder) put(e Entry, replace bool) error {
	n := utf8.RuneCountInString(e.Pattern)
	switch {
	case n == 0:
		return ErrEmptyPattern
	case n > MaxPatternLen:
		return fmt.Errorf("%w: %q has %d runes (max %d)", ErrPatternTooLong, e.Pattern, n, MaxPatternLen)
	case e.Glyph == "":
		return fmt.Errorf("%w: %q", ErrEmptyGlyph, e.Pattern)
	}
	for _, r := range e.Pattern {
		if !IsPatternRune(r) {
			return fmt.Errorf("%w: %q in %q", ErrPatternRune, r, e.Pattern)
		}
	}
	if _, exists := b.entries[e.Pattern]; exists && !replace {
		return fmt.Errorf("%w: %q", ErrDuplicatePattern, e.Pattern)
	}
	if e.Role != RoleIndependentVowel {
		delete(b.diacritics, e.Pattern)
	}
	b.entries[e.Pattern] = e
	return nil
}

func (b *builder) addBuiltins() error {
	groups := [][]Entry{
		builtinVowels,
		builtinConsonants,
		builtinModifiers,
		builtinConjuncts,
		builtinSymbols,
	}
	for _, g := range groups {
		for _, e := range g {
			if err := b.put(e, false); err != nil {
				return err
			}
		}
	}
	for p, d := range builtinVowelSigns {
		b.diacritics[p] = d
	}
	return nil
}

func (b *builder) validate() error {
	for p := range b.diacritics {
		e, ok := b.entries[p]
		if !ok || e.Role != RoleIndependentVowel {
			return fmt.Errorf("%w: %q", ErrOrphanDiacritic, p)
		}
		if b.diacritics[p] == "" {
			return fmt.Errorf("%w: %q", ErrMissingDiacritic, p)
		}
	}
	for p, e := range b.entries {
		if e.Role != RoleIndependentVowel || p == InherentVowel {
			continue
		}
		if _, ok := b.diacritics[p]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingDiacritic, p)
		}
	}
	return nil
}

// Build constructs a new table. Without options it returns the built-in
// layout.
func Build(opts ...Option) (*Table, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	b := &builder{
		entries:    make(map[string]Entry, 128),
		diacritics: make(map[string]string, 16),
	}
	if !o.skipBuiltins {
		if err := b.addBuiltins(); err != nil {
			return nil, err
		}
	}
	for _, apply := range o.layers {
		if err := apply(b); err != nil {
			return nil, err
		}
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	t := &Table{
		entries:    b.entries,
		diacritics: b.diacritics,
	}
	for p := range t.entries {
		if n := utf8.RuneCountInString(p); n > t.maxLen {
			t.maxLen = n
		}
	}
	return t, nil
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the shared built-in table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Build()
		if err != nil {
			panic(fmt.Sprintf("keymap: built-in layout is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}
