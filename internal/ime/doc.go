// Package ime turns a stream of key events into edits of the focused text.
//
// A Session holds the word being typed and what it has put on screen for
// it. Every key goes through Session.Handle, which reconverts the whole
// word with the current pattern table and returns an Action: how many
// units to delete before the cursor, what to insert, and whether the
// original key should still reach the application.
//
//	Key ──► Session.Handle ──► Action ──► Sink
//	           │
//	     translit.Convert
//
// In live mode the text on screen for the current word is always the
// conversion of the Latin typed so far:
//
//	k   ─► ক
//	ka  ─► কা
//	kaS ─► কাশ
//
// Hosts own the Sink. On Linux the IBus engine forwards deletes as
// BackSpace key events and inserts text with CommitText; the terminal
// host edits an in-memory line and redraws it.
//
// # Platform Support
//
//	┌──────────┬─────────────────────────────────────────┐
//	│ Platform │ Host                                    │
//	├──────────┼─────────────────────────────────────────┤
//	│ Linux    │ IBus engine over D-Bus (banglakey-ibus) │
//	│ Any      │ Raw-mode terminal (banglakey)           │
//	└──────────┴─────────────────────────────────────────┘
package ime
