package ime

import (
	"fmt"
	"time"
	"unicode"

	"banglakey/internal/translit"
)

// Kind classifies a key event for the reconciler.
type Kind uint8

const (
	// KindChar is a printable character.
	KindChar Kind = iota
	// KindBackspace deletes the previous unit.
	KindBackspace
	// KindBoundary ends the current word (space, newline, tab).
	KindBoundary
	// KindToggle switches conversion on or off.
	KindToggle
	// KindOther is any non-character key (arrows, function keys, ...).
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindBackspace:
		return "backspace"
	case KindBoundary:
		return "boundary"
	case KindToggle:
		return "toggle"
	default:
		return "other"
	}
}

// Key represents a key event from the host.
type Key struct {
	// Code is the host keycode or keysym, when known. Informational only.
	Code uint32

	// Char is the character the key produces. Zero for non-character keys.
	Char rune

	// Kind is derived from Char by NewKey; hosts that know better set it
	// directly.
	Kind Kind

	// Modifiers indicates which modifier keys are held.
	Modifiers Modifiers

	// Timestamp is when the key event occurred.
	// If zero, the current time will be used.
	Timestamp time.Time
}

// NewKey creates a Key for a typed character and classifies it.
func NewKey(char rune) Key {
	return Key{Char: char, Kind: classify(char)}
}

// NewKeyWithMods creates a Key with modifier state.
func NewKeyWithMods(char rune, mods Modifiers) Key {
	k := NewKey(char)
	k.Modifiers = mods
	return k
}

// Backspace returns a backspace key.
func Backspace() Key {
	return Key{Char: '\b', Kind: KindBackspace}
}

// Toggle returns the on/off hotkey.
func Toggle() Key {
	return Key{Kind: KindToggle}
}

// OtherKey returns a non-character key such as an arrow.
func OtherKey(code uint32) Key {
	return Key{Code: code, Kind: KindOther}
}

func classify(r rune) Kind {
	switch {
	case r == '\b' || r == 0x7f:
		return KindBackspace
	case translit.IsBoundary(r):
		return KindBoundary
	case r == 0:
		return KindOther
	default:
		return KindChar
	}
}

// Modifiers represents modifier key state.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta // Super / Windows key
)

// Chord reports whether a modifier other than Shift is held. Chords are
// shortcuts for the application, never text.
func (m Modifiers) Chord() bool {
	return m&(ModControl|ModAlt|ModMeta) != 0
}

// Action is one reconciliation step for the host. The host removes Retract
// units before the cursor, inserts Emit, and then lets the original key
// through if PassThrough is set. A zero Action swallows the key.
type Action struct {
	Retract     int
	Emit        string
	PassThrough bool
}

// IsZero reports whether the action swallows the key without output.
func (a Action) IsZero() bool {
	return a.Retract == 0 && a.Emit == "" && !a.PassThrough
}

func (a Action) String() string {
	return fmt.Sprintf("retract=%d emit=%q pass=%t", a.Retract, a.Emit, a.PassThrough)
}

// Sink is where a host applies actions: the focused text field, a terminal
// line, a test buffer.
type Sink interface {
	// Retract deletes n units before the cursor.
	Retract(n int) error
	// Emit inserts text at the cursor.
	Emit(text string) error
}

// Apply performs the retract and emit parts of the action on s, in that
// order. PassThrough is left to the host since only it can forward the
// original key.
func (a Action) Apply(s Sink) error {
	if a.Retract > 0 {
		if err := s.Retract(a.Retract); err != nil {
			return fmt.Errorf("retract %d: %w", a.Retract, err)
		}
	}
	if a.Emit != "" {
		if err := s.Emit(a.Emit); err != nil {
			return fmt.Errorf("emit: %w", err)
		}
	}
	return nil
}

// Mode selects when converted text replaces the typed characters.
type Mode uint8

const (
	// ModeLive reconverts the word on every keystroke.
	ModeLive Mode = iota
	// ModeWord lets the typed characters stand and replaces the whole word
	// at the boundary.
	ModeWord
)

func (m Mode) String() string {
	if m == ModeWord {
		return "word"
	}
	return "live"
}

// ParseMode parses "live" or "word".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "live":
		return ModeLive, nil
	case "word":
		return ModeWord, nil
	default:
		return ModeLive, fmt.Errorf("ime: unknown mode %q", s)
	}
}

// Commit records a finished word.
type Commit struct {
	Latin   string
	Bengali string
	Source  string
	At      time.Time
}

// isBreak reports whether a non-convertible character commits the word
// instead of discarding it.
func isBreak(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}
