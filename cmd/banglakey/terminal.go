package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"banglakey/internal/ime"
)

// Escape sequence sent by most terminals for F10.
const seqF10 = "\x1b[21~"

const (
	ctrlC = 0x03
	ctrlD = 0x04
	ctrlT = 0x14
	esc   = 0x1b
	del   = 0x7f
)

type command uint8

const (
	cmdKey command = iota
	cmdQuit
	cmdEOF
)

type input struct {
	cmd command
	key ime.Key
}

// readInput decodes one key from a raw-mode terminal.
func readInput(r *bufio.Reader, toggle string) (input, error) {
	ch, _, err := r.ReadRune()
	if err != nil {
		return input{}, err
	}

	switch {
	case ch == ctrlC:
		return input{cmd: cmdQuit}, nil
	case ch == ctrlD:
		return input{cmd: cmdEOF}, nil
	case ch == ctrlT && toggle == "ctrl+t":
		return input{key: ime.Toggle()}, nil
	case ch == del || ch == '\b':
		return input{key: ime.Backspace()}, nil
	case ch == '\r' || ch == '\n':
		return input{key: ime.NewKey('\n')}, nil
	case ch == '\t':
		return input{key: ime.NewKey('\t')}, nil
	case ch == esc:
		seq := readEscape(r)
		if seq == seqF10 && toggle == "f10" {
			return input{key: ime.Toggle()}, nil
		}
		return input{key: ime.OtherKey(esc)}, nil
	case unicode.IsControl(ch):
		return input{key: ime.OtherKey(uint32(ch))}, nil
	default:
		return input{key: ime.NewKey(ch)}, nil
	}
}

// readEscape consumes the rest of a CSI or SS3 sequence that is already
// buffered. A lone ESC returns "\x1b".
func readEscape(r *bufio.Reader) string {
	var b strings.Builder
	b.WriteByte(esc)
	if r.Buffered() == 0 {
		return b.String()
	}
	next, err := r.ReadByte()
	if err != nil {
		return b.String()
	}
	b.WriteByte(next)
	if next != '[' && next != 'O' {
		return b.String()
	}
	for r.Buffered() > 0 {
		c, err := r.ReadByte()
		if err != nil {
			break
		}
		b.WriteByte(c)
		if c >= 0x40 && c <= 0x7e {
			break
		}
	}
	return b.String()
}

// terminal is a single-line editor that applies session actions to the
// line being typed and redraws it after every key.
type terminal struct {
	out        io.Writer
	session    *ime.Session
	prompt     string
	showStatus bool
	toggle     string

	line []rune
}

func newTerminal(out io.Writer, session *ime.Session, prompt, toggle string, showStatus bool) *terminal {
	return &terminal{
		out:        out,
		session:    session,
		prompt:     prompt,
		showStatus: showStatus,
		toggle:     strings.ToLower(toggle),
	}
}

// Retract deletes n runes before the cursor.
func (t *terminal) Retract(n int) error {
	if n > len(t.line) {
		n = len(t.line)
	}
	t.line = t.line[:len(t.line)-n]
	return nil
}

// Emit inserts text at the cursor.
func (t *terminal) Emit(text string) error {
	t.line = append(t.line, []rune(text)...)
	return nil
}

func (t *terminal) run(in *bufio.Reader) error {
	if err := t.redraw(); err != nil {
		return err
	}
	for {
		ev, err := readInput(in, t.toggle)
		if errors.Is(err, io.EOF) {
			return t.handle(ime.NewKey('\n'))
		}
		if err != nil {
			return err
		}

		switch ev.cmd {
		case cmdQuit:
			t.session.Reset()
			_, err := io.WriteString(t.out, "\r\n")
			return err
		case cmdEOF:
			return t.handle(ime.NewKey('\n'))
		}

		if err := t.handle(ev.key); err != nil {
			return err
		}
	}
}

func (t *terminal) handle(k ime.Key) error {
	a := t.session.Handle(k)
	if err := a.Apply(t); err != nil {
		return err
	}

	newline := false
	if a.PassThrough {
		switch k.Kind {
		case ime.KindBackspace:
			t.Retract(1)
		case ime.KindChar, ime.KindBoundary:
			switch {
			case k.Char == '\n':
				newline = true
			case unicode.IsPrint(k.Char) || k.Char == '\t':
				t.line = append(t.line, k.Char)
			}
		}
	}

	if err := t.redraw(); err != nil {
		return err
	}
	if newline {
		if _, err := io.WriteString(t.out, "\r\n"); err != nil {
			return err
		}
		t.line = t.line[:0]
		return t.redraw()
	}
	return nil
}

func (t *terminal) status() string {
	if !t.showStatus {
		return ""
	}
	if t.session.Enabled() {
		return "[বা] "
	}
	return "[EN] "
}

func (t *terminal) redraw() error {
	_, err := fmt.Fprintf(t.out, "\r\x1b[K%s%s%s", t.status(), t.prompt, string(t.line))
	return err
}
