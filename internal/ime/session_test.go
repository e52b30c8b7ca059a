package ime

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"banglakey/internal/keymap"
	"banglakey/internal/translit"
)

// screen is a text field: it applies actions and forwards passed keys the
// way an editor would.
type screen struct {
	text []rune
}

func (s *screen) Retract(n int) error {
	if n > len(s.text) {
		n = len(s.text)
	}
	s.text = s.text[:len(s.text)-n]
	return nil
}

func (s *screen) Emit(text string) error {
	s.text = append(s.text, []rune(text)...)
	return nil
}

func (s *screen) feed(t *testing.T, sess *Session, key Key) Action {
	t.Helper()
	a := sess.Handle(key)
	if err := a.Apply(s); err != nil {
		t.Fatalf("apply %v: %v", a, err)
	}
	if a.PassThrough {
		switch key.Kind {
		case KindBackspace:
			s.Retract(1)
		case KindChar, KindBoundary:
			s.text = append(s.text, key.Char)
		}
	}
	return a
}

func (s *screen) typeString(t *testing.T, sess *Session, in string) {
	t.Helper()
	for _, r := range in {
		s.feed(t, sess, NewKey(r))
	}
}

func TestSessionScenarios(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ami", "আমি"},
		{"bangla", "বাংলা"},
		{"kSh", "ক্ষ"},
		{".t", "ৎ"},
		{"ka", "কা"},
		{"@", "@"},
		{"ami bangla ", "আমি বাংলা "},
		{"kx", "কx"},
	}
	for _, tt := range tests {
		sess := NewSession()
		scr := &screen{}
		scr.typeString(t, sess, tt.in)
		if got := string(scr.text); got != tt.want {
			t.Errorf("%q: screen = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSessionBackspaceToEmpty(t *testing.T) {
	sess := NewSession()
	scr := &screen{}
	scr.typeString(t, sess, "ka")

	a := scr.feed(t, sess, Backspace())
	if a.Retract != 2 || a.Emit != "ক" || a.PassThrough {
		t.Errorf("first backspace = %v", a)
	}
	a = scr.feed(t, sess, Backspace())
	if a.Retract != 1 || a.Emit != "" {
		t.Errorf("second backspace = %v", a)
	}

	st := sess.State()
	if st.Raw != "" || st.Emitted != "" {
		t.Errorf("state = %+v, want empty", st)
	}
	if len(scr.text) != 0 {
		t.Errorf("screen = %q, want empty", string(scr.text))
	}
}

func TestSessionBackspaceOnEmptyBuffer(t *testing.T) {
	sess := NewSession()
	scr := &screen{}
	scr.typeString(t, sess, "ami ")

	// The word is committed; backspace now deletes committed units.
	a := scr.feed(t, sess, Backspace())
	if a.Retract != 1 || a.Emit != "" || a.PassThrough {
		t.Errorf("backspace = %v, want retract 1", a)
	}
	if got := string(scr.text); got != "আমি" {
		t.Errorf("screen = %q", got)
	}
	if sess.State().Raw != "" {
		t.Error("committed text must not come back into the buffer")
	}
}

func TestSessionUnconvertedBackspacePassesThrough(t *testing.T) {
	sess := NewSession()
	scr := &screen{}
	scr.typeString(t, sess, "xw")
	a := scr.feed(t, sess, Backspace())
	if !a.PassThrough || a.Retract != 0 {
		t.Errorf("backspace = %v, want pass-through", a)
	}
	if got := string(scr.text); got != "x" {
		t.Errorf("screen = %q", got)
	}
}

func TestSessionAppendActions(t *testing.T) {
	sess := NewSession()

	a := sess.Handle(NewKey('k'))
	if a.Retract != 0 || a.Emit != "ক" || a.PassThrough {
		t.Errorf("k = %v", a)
	}
	a = sess.Handle(NewKey('S'))
	if a.Retract != 1 || a.Emit != "কশ" {
		t.Errorf("kS = %v", a)
	}
	a = sess.Handle(NewKey('h'))
	if a.Retract != 2 || a.Emit != "ক্ষ" {
		t.Errorf("kSh = %v", a)
	}
	if st := sess.State(); !st.LastWasConsonant {
		t.Error("kSh ends on a consonant")
	}
}

func TestSessionUnmatchedCharactersStand(t *testing.T) {
	sess := NewSession()
	for _, r := range "xw" {
		a := sess.Handle(NewKey(r))
		if !a.PassThrough || a.Emit != "" {
			t.Errorf("%c = %v, want pass-through", r, a)
		}
	}
	if st := sess.State(); st.Emitted != "xw" {
		t.Errorf("emitted = %q", st.Emitted)
	}
}

func TestSessionBoundaryCommits(t *testing.T) {
	var commits []Commit
	at := time.Date(2024, 2, 21, 9, 0, 0, 0, time.UTC)
	sess := NewSession(
		WithCommitHook(func(c Commit) { commits = append(commits, c) }),
		WithSource("test"),
		WithClock(func() time.Time { return at }),
	)
	scr := &screen{}
	scr.typeString(t, sess, "ami xw\t")

	if len(commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(commits))
	}
	c := commits[0]
	if c.Latin != "ami" || c.Bengali != "আমি" || c.Source != "test" || !c.At.Equal(at) {
		t.Errorf("commit = %+v", c)
	}
	if got := string(scr.text); got != "আমি xw\t" {
		t.Errorf("screen = %q", got)
	}
	if sess.Stats().Commits != 1 {
		t.Errorf("stats = %+v", sess.Stats())
	}
}

func TestSessionPunctuationCommits(t *testing.T) {
	sess := NewSession(WithMode(ModeWord))
	scr := &screen{}
	scr.typeString(t, sess, "ami,")
	if got := string(scr.text); got != "আমি," {
		t.Errorf("screen = %q", got)
	}
	if sess.State().Raw != "" {
		t.Error("punctuation must reset the buffer")
	}
}

func TestSessionOtherKeyDiscards(t *testing.T) {
	sess := NewSession(WithMode(ModeWord))
	scr := &screen{}
	scr.typeString(t, sess, "ami")

	a := scr.feed(t, sess, OtherKey(0xff51))
	if !a.PassThrough || a.Retract != 0 || a.Emit != "" {
		t.Errorf("arrow = %v", a)
	}
	if sess.State().Raw != "" {
		t.Error("state not discarded")
	}

	// Nothing to convert at the boundary any more.
	scr.feed(t, sess, NewKey(' '))
	if got := string(scr.text); got != "ami " {
		t.Errorf("screen = %q", got)
	}
}

func TestSessionNonASCIIDiscards(t *testing.T) {
	sess := NewSession()
	scr := &screen{}
	scr.typeString(t, sess, "kaক")
	if sess.State().Raw != "" {
		t.Error("non-ASCII rune should reset the buffer")
	}
	if got := string(scr.text); got != "কাক" {
		t.Errorf("screen = %q", got)
	}
}

func TestSessionModifierChord(t *testing.T) {
	sess := NewSession()
	sess.Handle(NewKey('k'))
	a := sess.Handle(NewKeyWithMods('c', ModControl))
	if !a.PassThrough || a.Emit != "" {
		t.Errorf("ctrl-c = %v", a)
	}
	if sess.State().Raw != "" {
		t.Error("chord should reset")
	}

	// Shift is part of typing.
	a = sess.Handle(NewKeyWithMods('S', ModShift))
	if a.Emit != "শ" {
		t.Errorf("shift-S = %v", a)
	}
}

func TestSessionToggle(t *testing.T) {
	sess := NewSession()
	sess.Handle(NewKey('k'))

	if a := sess.Handle(Toggle()); !a.IsZero() {
		t.Errorf("toggle = %v, want swallowed", a)
	}
	if sess.Enabled() {
		t.Fatal("toggle should disable")
	}
	if sess.State().Raw != "" {
		t.Error("toggle should reset")
	}
	for _, r := range "ka\b " {
		if a := sess.Handle(NewKey(r)); !a.PassThrough || a.Retract != 0 || a.Emit != "" {
			t.Errorf("disabled %q = %v", r, a)
		}
	}
	sess.Handle(Toggle())
	if !sess.Enabled() {
		t.Error("second toggle should enable")
	}

	sess.SetEnabled(false)
	if sess.Enabled() {
		t.Error("SetEnabled(false)")
	}
}

func TestSessionWordMode(t *testing.T) {
	sess := NewSession(WithMode(ModeWord))
	scr := &screen{}
	for _, r := range "bangla" {
		a := scr.feed(t, sess, NewKey(r))
		if !a.PassThrough || a.Emit != "" {
			t.Fatalf("%c = %v, want pass-through", r, a)
		}
	}
	scr.feed(t, sess, Backspace())
	scr.feed(t, sess, NewKey('a'))
	if got := string(scr.text); got != "bangla" {
		t.Fatalf("screen = %q", got)
	}

	a := scr.feed(t, sess, NewKey(' '))
	if a.Retract != 6 || a.Emit != "বাংলা" || !a.PassThrough {
		t.Errorf("boundary = %v", a)
	}
	if got := string(scr.text); got != "বাংলা " {
		t.Errorf("screen = %q", got)
	}
}

func TestSessionSetTable(t *testing.T) {
	tbl, err := keymap.Build(keymap.WithEntries([]keymap.Entry{
		{Pattern: "x", Glyph: "ক্স", Role: keymap.RoleConsonant},
	}, nil))
	if err != nil {
		t.Fatal(err)
	}

	sess := NewSession()
	sess.Handle(NewKey('k'))
	sess.SetTable(tbl)
	if sess.State().Raw != "" {
		t.Error("SetTable should reset")
	}
	if sess.Table() != tbl {
		t.Error("table not swapped")
	}

	scr := &screen{}
	scr.typeString(t, sess, "xa")
	if got := string(scr.text); got != "ক্সা" {
		t.Errorf("screen = %q", got)
	}
}

func TestSessionLiveConsistency(t *testing.T) {
	tbl := keymap.Default()
	rng := rand.New(rand.NewSource(1))
	const alphabet = "aeioukKgGcCjJTDNtdnpbmrlsShyYR.:$_0123456789xwq"

	for round := 0; round < 50; round++ {
		sess := NewSession(WithTable(tbl))
		scr := &screen{}
		for step := 0; step < 60; step++ {
			var key Key
			if rng.Intn(4) == 0 {
				key = Backspace()
			} else {
				key = NewKey(rune(alphabet[rng.Intn(len(alphabet))]))
			}
			scr.feed(t, sess, key)

			st := sess.State()
			want := translit.ConvertString(tbl, st.Raw)
			if st.Emitted != want {
				t.Fatalf("round %d step %d: emitted %q, convert(%q) = %q", round, step, st.Emitted, st.Raw, want)
			}
			if string(scr.text) != st.Emitted {
				t.Fatalf("round %d step %d: screen %q, emitted %q", round, step, string(scr.text), st.Emitted)
			}
		}
	}
}

func TestSessionMixedKeysConsistency(t *testing.T) {
	tbl := keymap.Default()
	rng := rand.New(rand.NewSource(7))
	const alphabet = "aeioukgtdnpbmrlsShyR.:$_019"
	breaks := []Key{NewKey(' '), NewKey('\n'), NewKey(','), NewKey('!'), OtherKey(0xff51)}

	for round := 0; round < 300; round++ {
		sess := NewSession(WithTable(tbl))
		scr := &screen{}
		for step := 0; step < 40; step++ {
			var key Key
			switch n := rng.Intn(10); {
			case n < 2:
				key = Backspace()
			case n < 3:
				key = breaks[rng.Intn(len(breaks))]
			default:
				key = NewKey(rune(alphabet[rng.Intn(len(alphabet))]))
			}
			scr.feed(t, sess, key)

			st := sess.State()
			if want := translit.ConvertString(tbl, st.Raw); st.Emitted != want {
				t.Fatalf("round %d step %d: emitted %q, convert(%q) = %q", round, step, st.Emitted, st.Raw, want)
			}
		}
	}
}

func TestSessionConcurrentHandle(t *testing.T) {
	tbl := keymap.Default()
	sess := NewSession(WithTable(tbl))
	keys := []Key{NewKey('k'), NewKey('a'), Backspace()}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				for _, k := range keys {
					sess.Handle(k)
				}
				st := sess.State()
				if want := translit.ConvertString(tbl, st.Raw); st.Emitted != want {
					t.Errorf("emitted %q, convert(%q) = %q", st.Emitted, st.Raw, want)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := sess.Stats().Keys; got != 8*500*uint64(len(keys)) {
		t.Errorf("keys = %d, want %d", got, 8*500*len(keys))
	}
}

func TestSessionsShareTable(t *testing.T) {
	tbl := keymap.Default()
	want := translit.ConvertText(tbl, "ami bangla boli ")

	var wg sync.WaitGroup
	results := make([]string, 8)
	for g := range results {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := NewSession(WithTable(tbl))
			scr := &screen{}
			for _, r := range "ami bangla boli " {
				key := NewKey(r)
				a := sess.Handle(key)
				if err := a.Apply(scr); err != nil {
					t.Errorf("apply %v: %v", a, err)
					return
				}
				if a.PassThrough {
					scr.text = append(scr.text, key.Char)
				}
			}
			results[g] = string(scr.text)
		}()
	}
	wg.Wait()

	for g, got := range results {
		if got != want {
			t.Errorf("session %d: screen %q, want %q", g, got, want)
		}
	}
}

func TestSessionStats(t *testing.T) {
	sess := NewSession()
	scr := &screen{}
	scr.typeString(t, sess, "ka ")
	st := sess.Stats()
	if st.Keys != 3 {
		t.Errorf("keys = %d", st.Keys)
	}
	if st.Emits != 2 || st.Retracted != 1 || st.Commits != 1 || st.PassThrough != 1 {
		t.Errorf("stats = %+v", st)
	}
}
