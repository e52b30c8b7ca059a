package ime

import (
	"errors"
	"testing"
)

func TestKeyConstructors(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want Kind
	}{
		{"letter", NewKey('k'), KindChar},
		{"digit", NewKey('7'), KindChar},
		{"punct", NewKey('@'), KindChar},
		{"space", NewKey(' '), KindBoundary},
		{"newline", NewKey('\n'), KindBoundary},
		{"tab", NewKey('\t'), KindBoundary},
		{"bs", NewKey('\b'), KindBackspace},
		{"del", NewKey(0x7f), KindBackspace},
		{"nul", NewKey(0), KindOther},
		{"Backspace()", Backspace(), KindBackspace},
		{"Toggle()", Toggle(), KindToggle},
		{"OtherKey()", OtherKey(0xff51), KindOther},
	}
	for _, tt := range tests {
		if tt.key.Kind != tt.want {
			t.Errorf("%s: kind = %v, want %v", tt.name, tt.key.Kind, tt.want)
		}
	}

	k := NewKeyWithMods('c', ModControl)
	if !k.Modifiers.Chord() {
		t.Error("Ctrl should make a chord")
	}
	if NewKeyWithMods('A', ModShift).Modifiers.Chord() {
		t.Error("Shift alone is not a chord")
	}
}

type recordingSink struct {
	ops     []string
	failing bool
}

func (s *recordingSink) Retract(n int) error {
	if s.failing {
		return errors.New("sink closed")
	}
	s.ops = append(s.ops, "retract")
	return nil
}

func (s *recordingSink) Emit(text string) error {
	s.ops = append(s.ops, "emit:"+text)
	return nil
}

func TestActionApplyOrder(t *testing.T) {
	sink := &recordingSink{}
	if err := (Action{Retract: 2, Emit: "কা"}).Apply(sink); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(sink.ops) != 2 || sink.ops[0] != "retract" || sink.ops[1] != "emit:কা" {
		t.Errorf("ops = %v", sink.ops)
	}

	sink = &recordingSink{}
	if err := (Action{PassThrough: true}).Apply(sink); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(sink.ops) != 0 {
		t.Errorf("pass-through touched the sink: %v", sink.ops)
	}

	sink = &recordingSink{failing: true}
	if err := (Action{Retract: 1, Emit: "x"}).Apply(sink); err == nil {
		t.Error("expected error from failing sink")
	}
	if len(sink.ops) != 0 {
		t.Error("emit must not run after a failed retract")
	}
}

func TestActionIsZero(t *testing.T) {
	if !(Action{}).IsZero() {
		t.Error("zero action")
	}
	if (Action{PassThrough: true}).IsZero() {
		t.Error("pass-through is not zero")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeLive, "live": ModeLive, "word": ModeWord} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("batch"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if ModeWord.String() != "word" || ModeLive.String() != "live" {
		t.Error("mode names")
	}
}
