package ime

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"banglakey/internal/keymap"
	"banglakey/internal/translit"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTable sets the pattern table. The built-in table is used otherwise.
func WithTable(t *keymap.Table) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.table = t
		}
	}
}

// WithMode sets the reconciliation mode.
func WithMode(m Mode) SessionOption {
	return func(s *Session) {
		s.mode = m
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCommitHook registers fn to receive every converted word. fn runs
// with the session lock held and must not call back into the session.
func WithCommitHook(fn func(Commit)) SessionOption {
	return func(s *Session) {
		s.onCommit = fn
	}
}

// WithSource tags commits with the host name.
func WithSource(source string) SessionOption {
	return func(s *Session) {
		s.source = source
	}
}

// WithClock overrides time.Now for commit timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// SessionStats counts what a session has done since it was created.
type SessionStats struct {
	Keys        uint64
	PassThrough uint64
	Emits       uint64
	Retracted   uint64
	Commits     uint64
	Resets      uint64
}

// StateSnapshot is a copy of the conversion state.
type StateSnapshot struct {
	// Raw is the Latin input of the current word.
	Raw string
	// Emitted is what the session believes is visible for the current word.
	Emitted string
	// LastWasConsonant is the resolver memory after the last token of Raw.
	LastWasConsonant bool
	Enabled          bool
	Mode             Mode
}

// Session owns the conversion state of one input stream and reconciles
// it against the visible text. All methods are safe for concurrent use;
// each key is handled in a single critical section.
type Session struct {
	mu sync.Mutex

	table    *keymap.Table
	mode     Mode
	logger   *slog.Logger
	onCommit func(Commit)
	source   string
	now      func() time.Time

	enabled bool
	raw     []rune
	emitted []rune

	stats SessionStats
}

// NewSession creates an enabled session with an empty buffer.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		table:   keymap.Default(),
		logger:  slog.Default(),
		now:     time.Now,
		enabled: true,
		raw:     make([]rune, 0, 16),
		emitted: make([]rune, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle feeds one key through the reconciler and returns what the host
// must do.
func (s *Session) Handle(key Key) Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Keys++
	a := s.handle(key)

	if a.PassThrough {
		s.stats.PassThrough++
	}
	if a.Emit != "" {
		s.stats.Emits++
	}
	s.stats.Retracted += uint64(a.Retract)

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logger.Debug("key handled",
			"kind", key.Kind.String(),
			"char", string(key.Char),
			"raw", string(s.raw),
			"action", a.String(),
		)
	}
	return a
}

func (s *Session) handle(key Key) Action {
	if key.Kind == KindToggle {
		s.enabled = !s.enabled
		s.reset()
		return Action{}
	}
	if !s.enabled {
		return Action{PassThrough: true}
	}
	if key.Modifiers.Chord() {
		s.reset()
		return Action{PassThrough: true}
	}

	switch key.Kind {
	case KindBackspace:
		return s.backspace()
	case KindBoundary:
		return s.commit()
	case KindChar:
		switch {
		case translit.IsConvertible(key.Char):
			return s.append(key.Char)
		case isBreak(key.Char):
			return s.commit()
		}
	}
	s.reset()
	return Action{PassThrough: true}
}

func (s *Session) append(r rune) Action {
	s.raw = append(s.raw, r)

	if s.mode == ModeWord {
		s.emitted = append(s.emitted, r)
		return Action{PassThrough: true}
	}

	out := []rune(translit.Convert(s.table, s.raw))

	// The typed character is its own rendering; let it through.
	if len(out) == len(s.emitted)+1 && out[len(out)-1] == r && slices.Equal(out[:len(s.emitted)], s.emitted) {
		s.emitted = out
		return Action{PassThrough: true}
	}
	if slices.Equal(out, s.emitted) {
		return Action{}
	}
	a := Action{Retract: len(s.emitted), Emit: string(out)}
	s.emitted = out
	return a
}

func (s *Session) backspace() Action {
	if len(s.raw) == 0 {
		s.emitted = s.emitted[:0]
		return Action{Retract: 1}
	}
	s.raw = s.raw[:len(s.raw)-1]

	if s.mode == ModeWord {
		s.emitted = append(s.emitted[:0], s.raw...)
		return Action{PassThrough: true}
	}

	out := []rune(translit.Convert(s.table, s.raw))

	// Nothing was converted, so the backspace deletes a typed character.
	if len(out) > 0 && slices.Equal(out, s.raw) && len(s.emitted) == len(out)+1 && slices.Equal(s.emitted[:len(out)], out) {
		s.emitted = out
		return Action{PassThrough: true}
	}
	a := Action{Retract: len(s.emitted), Emit: string(out)}
	s.emitted = out
	return a
}

// commit finishes the word and lets the key that ended it through.
func (s *Session) commit() Action {
	if len(s.raw) == 0 {
		s.reset()
		return Action{PassThrough: true}
	}

	latin := string(s.raw)
	out := translit.Convert(s.table, s.raw)
	a := Action{PassThrough: true}
	if out != string(s.emitted) {
		a.Retract = len(s.emitted)
		a.Emit = out
	}
	if out != latin {
		s.stats.Commits++
		if s.onCommit != nil {
			s.onCommit(Commit{
				Latin:   latin,
				Bengali: out,
				Source:  s.source,
				At:      s.now(),
			})
		}
	}
	s.reset()
	return a
}

func (s *Session) reset() {
	if len(s.raw) > 0 || len(s.emitted) > 0 {
		s.stats.Resets++
	}
	s.raw = s.raw[:0]
	s.emitted = s.emitted[:0]
}

// Reset discards the current word without output.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// SetEnabled turns conversion on or off and discards the current word.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.reset()
}

// Enabled reports whether conversion is on.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetTable swaps the pattern table. The current word is discarded since
// it was converted with the old table.
func (s *Session) SetTable(t *keymap.Table) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.reset()
}

// Table returns the pattern table in use.
func (s *Session) Table() *keymap.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// SetMode changes the reconciliation mode and discards the current word.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.reset()
}

// State returns a copy of the conversion state.
func (s *Session) State() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		Raw:     string(s.raw),
		Emitted: string(s.emitted),
		Enabled: s.enabled,
		Mode:    s.mode,
	}
	if tokens := translit.Tokenize(s.table, s.raw); len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		snap.LastWasConsonant = !last.Passthrough && last.Entry.Role == keymap.RoleConsonant
	}
	return snap
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
