//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/godbus/dbus/v5"

	"banglakey/internal/keymap"
	"banglakey/internal/logging"
)

// IBus D-Bus constants
const (
	IBusService          = "org.freedesktop.IBus"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	IBusFactoryPath      = "/org/freedesktop/IBus/Factory"
	IBusEnginePathPrefix = "/org/freedesktop/IBus/Engine/"

	BanglakeyBusName       = "org.freedesktop.IBus.Banglakey"
	BanglakeyEngineName    = "banglakey"
	BanglakeyEngineVersion = "1.0.0"
)

// IBus key event state masks
const (
	IBusShiftMask   uint32 = 1 << 0
	IBusLockMask    uint32 = 1 << 1
	IBusControlMask uint32 = 1 << 2
	IBusMod1Mask    uint32 = 1 << 3 // Alt
	IBusMod4Mask    uint32 = 1 << 6 // Super/Meta
	IBusReleaseMask uint32 = 1 << 30
)

// Common GDK key symbols
const (
	GDKBackSpace = 0xff08
	GDKTab       = 0xff09
	GDKReturn    = 0xff0d
	GDKEscape    = 0xff1b
	GDKKPEnter   = 0xff8d
	GDKF10       = 0xffc7
	GDKSpace     = 0x0020

	// Modifier keysyms arrive as key events of their own.
	gdkModifierFirst = 0xffe1 // Shift_L
	gdkModifierLast  = 0xffee // Hyper_R
	gdkISOLevel3     = 0xfe03
)

// evdev keycode of BackSpace, used when forwarding synthetic deletes.
const evdevBackSpace = 14

// signalEmitter is the part of *dbus.Conn the engines need.
type signalEmitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// IBusConfig holds IBus engine configuration.
type IBusConfig struct {
	// BusName is the well-known name requested on the session bus.
	BusName string

	// EngineName must match the <engine><name> of the installed component.
	EngineName string

	// Mode selects live or commit-on-boundary reconciliation.
	Mode Mode

	// ToggleKeysym switches conversion on and off. Zero disables the hotkey.
	ToggleKeysym uint32

	// ToggleMask lists modifiers that must be held with ToggleKeysym.
	ToggleMask uint32

	// StartDisabled creates engines with conversion off.
	StartDisabled bool

	// Logger receives engine events. slog.Default() when nil.
	Logger *slog.Logger

	// OnCommit receives converted words from every engine.
	OnCommit func(Commit)

	// Crash records panics raised while handling a key. The key is then
	// passed through and the word discarded. Panics propagate when nil.
	Crash *logging.CrashHandler
}

// DefaultIBusConfig returns sensible defaults.
func DefaultIBusConfig() IBusConfig {
	return IBusConfig{
		BusName:      BanglakeyBusName,
		EngineName:   BanglakeyEngineName,
		Mode:         ModeLive,
		ToggleKeysym: GDKF10,
	}
}

// ParseToggleKey maps a configured hotkey name to a keysym and modifier
// mask: "F10", "ctrl+t" or "none".
func ParseToggleKey(name string) (keysym, mask uint32, err error) {
	switch strings.ToLower(name) {
	case "", "none":
		return 0, 0, nil
	case "f10":
		return GDKF10, 0, nil
	case "ctrl+t":
		return 't', IBusControlMask, nil
	default:
		return 0, 0, fmt.Errorf("ime: unsupported toggle key %q", name)
	}
}

// IBusEngineStats tracks engine statistics.
type IBusEngineStats struct {
	EnginesCreated uint64
	KeyEvents      uint64
	Consumed       uint64
	SinkErrors     uint64
	FocusChanges   uint64
	LastKeyTime    time.Time
}

// IBusHost owns the bus connection and the engine objects IBus asks the
// factory for. Each engine object has its own Session; they share the
// pattern table.
type IBusHost struct {
	conn   *dbus.Conn
	config IBusConfig
	logger *slog.Logger
	table  atomic.Pointer[keymap.Table]

	mu      sync.Mutex
	engines map[dbus.ObjectPath]*IBusEngine
	nextID  uint32
	stats   IBusEngineStats
}

// NewIBusHost creates a host. Start connects it to the bus.
func NewIBusHost(config IBusConfig, table *keymap.Table) *IBusHost {
	if config.BusName == "" {
		config.BusName = BanglakeyBusName
	}
	if config.EngineName == "" {
		config.EngineName = BanglakeyEngineName
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if table == nil {
		table = keymap.Default()
	}

	h := &IBusHost{
		config:  config,
		logger:  logger.With("component", "ibus"),
		engines: make(map[dbus.ObjectPath]*IBusEngine),
	}
	h.table.Store(table)
	return h
}

// Start connects to the session bus, exports the factory and claims the
// bus name. IBus launches the binary and then calls CreateEngine.
func (h *IBusHost) Start(ctx context.Context) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	factory := &IBusFactory{host: h}
	if err := conn.Export(factory, IBusFactoryPath, IBusFactoryInterface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export factory: %w", err)
	}

	reply, err := conn.RequestName(h.config.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return errors.New("bus name already taken")
	}

	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()

	h.logger.Info("ibus engine started", "bus_name", h.config.BusName)
	return nil
}

// Stop releases every engine object and closes the connection.
func (h *IBusHost) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for path, e := range h.engines {
		e.session.Reset()
		if h.conn != nil {
			h.conn.Export(nil, path, IBusEngineInterface)
		}
	}
	h.engines = make(map[dbus.ObjectPath]*IBusEngine)

	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

// SetTable swaps the pattern table of every engine, including ones created
// later.
func (h *IBusHost) SetTable(t *keymap.Table) {
	if t == nil {
		return
	}
	h.table.Store(t)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.engines {
		e.session.SetTable(t)
	}
	h.logger.Info("pattern table reloaded", "patterns", t.Len())
}

// SetMode switches every engine, and engines created later, to mode m.
// Setting the current mode is a no-op.
func (h *IBusHost) SetMode(m Mode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.config.Mode == m {
		return
	}
	h.config.Mode = m
	for _, e := range h.engines {
		e.session.SetMode(m)
	}
	h.logger.Info("conversion mode changed", "mode", m.String())
}

// Stats returns a copy of the host counters.
func (h *IBusHost) Stats() IBusEngineStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *IBusHost) createEngine(emitter signalEmitter, name string) (*IBusEngine, error) {
	if name != h.config.EngineName {
		return nil, fmt.Errorf("unknown engine: %s", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", IBusEnginePathPrefix, h.nextID))
	e := &IBusEngine{
		host: h,
		path: path,
		sink: &ibusSink{emitter: emitter, path: path},
		session: NewSession(
			WithTable(h.table.Load()),
			WithMode(h.config.Mode),
			WithLogger(h.logger),
			WithCommitHook(h.config.OnCommit),
			WithSource("ibus"),
		),
	}
	if h.config.StartDisabled {
		e.session.SetEnabled(false)
	}
	h.engines[path] = e
	h.stats.EnginesCreated++
	return e, nil
}

func (h *IBusHost) record(fn func(*IBusEngineStats)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}

// IBusFactory implements org.freedesktop.IBus.Factory.
type IBusFactory struct {
	host *IBusHost
}

// CreateEngine is called by ibus-daemon when the user selects the engine.
func (f *IBusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	f.host.logger.Info("CreateEngine", "engine", engineName)

	f.host.mu.Lock()
	conn := f.host.conn
	f.host.mu.Unlock()
	if conn == nil {
		return "", dbus.MakeFailedError(errors.New("engine host is not connected"))
	}

	e, err := f.host.createEngine(conn, engineName)
	if err != nil {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine", []interface{}{err.Error()})
	}
	if err := conn.Export(e, e.path, IBusEngineInterface); err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return e.path, nil
}

// IBusEngine implements org.freedesktop.IBus.Engine for one input context.
type IBusEngine struct {
	host    *IBusHost
	path    dbus.ObjectPath
	sink    *ibusSink
	session *Session
}

// Path returns the engine's object path.
func (e *IBusEngine) Path() dbus.ObjectPath {
	return e.path
}

// Session returns the engine's conversion session.
func (e *IBusEngine) Session() *Session {
	return e.session
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *IBusEngine) ProcessKeyEvent(keyval, keycode, state uint32) (consumed bool, _ *dbus.Error) {
	if crash := e.host.config.Crash; crash != nil {
		defer func() {
			if r := recover(); r != nil {
				crash.HandlePanic(r, map[string]any{"op": "process_key", "keyval": keyval, "engine": string(e.path)})
				e.session.Reset()
				consumed = false
			}
		}()
	}

	if state&IBusReleaseMask != 0 {
		return false, nil
	}
	if isModifierKeysym(keyval) {
		return false, nil
	}

	key := e.keyFor(keyval, keycode, state)
	a := e.session.Handle(key)

	consumed = !a.PassThrough
	// Fold a printable boundary into the commit so it lands after the word.
	if a.PassThrough && (a.Retract > 0 || a.Emit != "") && unicode.IsPrint(key.Char) {
		a.Emit += string(key.Char)
		a.PassThrough = false
		consumed = true
	}

	if err := a.Apply(e.sink); err != nil {
		e.host.logger.Error("apply action failed", "path", string(e.path), "error", err)
		e.session.Reset()
		e.host.record(func(s *IBusEngineStats) { s.SinkErrors++ })
	}

	e.host.record(func(s *IBusEngineStats) {
		s.KeyEvents++
		if consumed {
			s.Consumed++
		}
		s.LastKeyTime = time.Now()
	})
	return consumed, nil
}

func (e *IBusEngine) keyFor(keyval, keycode, state uint32) Key {
	var key Key
	switch {
	case keyval == e.host.config.ToggleKeysym && keyval != 0 && state&e.host.config.ToggleMask == e.host.config.ToggleMask:
		key = Toggle()
	case keyval == GDKBackSpace:
		key = Backspace()
	case keyval == GDKReturn || keyval == GDKKPEnter:
		key = NewKey('\n')
	case keyval == GDKTab:
		key = NewKey('\t')
	default:
		if r := keyvalToRune(keyval); r != 0 {
			key = NewKey(r)
		} else {
			key = OtherKey(keyval)
		}
	}
	key.Code = keycode
	key.Modifiers = modifiersFromState(state)
	key.Timestamp = time.Now()
	return key
}

func (e *IBusEngine) FocusIn() *dbus.Error {
	e.session.Reset()
	e.host.record(func(s *IBusEngineStats) { s.FocusChanges++ })
	return nil
}

func (e *IBusEngine) FocusOut() *dbus.Error {
	e.session.Reset()
	e.host.record(func(s *IBusEngineStats) { s.FocusChanges++ })
	return nil
}

func (e *IBusEngine) Enable() *dbus.Error {
	e.session.SetEnabled(true)
	e.host.logger.Debug("Enable", "path", string(e.path))
	return nil
}

func (e *IBusEngine) Disable() *dbus.Error {
	e.session.Reset()
	e.host.logger.Debug("Disable", "path", string(e.path))
	return nil
}

func (e *IBusEngine) Reset() *dbus.Error {
	e.session.Reset()
	return nil
}

func (e *IBusEngine) Destroy() *dbus.Error {
	e.session.Reset()

	e.host.mu.Lock()
	delete(e.host.engines, e.path)
	conn := e.host.conn
	e.host.mu.Unlock()

	if conn != nil {
		conn.Export(nil, e.path, IBusEngineInterface)
	}
	return nil
}

func (e *IBusEngine) SetCapabilities(caps uint32) *dbus.Error {
	e.host.logger.Debug("SetCapabilities", "caps", caps)
	return nil
}

func (e *IBusEngine) SetContentType(purpose, hints uint32) *dbus.Error {
	return nil
}

func (e *IBusEngine) SetCursorLocation(x, y, w, h int32) *dbus.Error {
	return nil
}

func (e *IBusEngine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

// PropertyActivate toggles conversion from the panel menu.
func (e *IBusEngine) PropertyActivate(propName string, state uint32) *dbus.Error {
	if propName == "banglakey.toggle" {
		e.session.Handle(Toggle())
	}
	return nil
}

func (e *IBusEngine) PageUp() *dbus.Error {
	return nil
}

func (e *IBusEngine) PageDown() *dbus.Error {
	return nil
}

func (e *IBusEngine) CursorUp() *dbus.Error {
	return nil
}

func (e *IBusEngine) CursorDown() *dbus.Error {
	return nil
}

func (e *IBusEngine) CandidateClicked(index, button, state uint32) *dbus.Error {
	return nil
}

// ibusSink applies actions through engine signals: deletes are forwarded
// BackSpace presses, text goes out as CommitText.
type ibusSink struct {
	emitter signalEmitter
	path    dbus.ObjectPath
}

func (s *ibusSink) Retract(n int) error {
	for i := 0; i < n; i++ {
		for _, st := range []uint32{0, IBusReleaseMask} {
			if err := s.emitter.Emit(s.path, IBusEngineInterface+".ForwardKeyEvent",
				uint32(GDKBackSpace), uint32(evdevBackSpace), st); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ibusSink) Emit(text string) error {
	return s.emitter.Emit(s.path, IBusEngineInterface+".CommitText", ibusText(text))
}

// ibusAttrList and ibusTextValue mirror the IBusSerializable wire layout.
type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

type ibusTextValue struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

func ibusText(text string) dbus.Variant {
	return dbus.MakeVariant(ibusTextValue{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        text,
		AttrList: dbus.MakeVariant(ibusAttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	})
}

func modifiersFromState(state uint32) Modifiers {
	var m Modifiers
	if state&IBusShiftMask != 0 {
		m |= ModShift
	}
	if state&IBusControlMask != 0 {
		m |= ModControl
	}
	if state&IBusMod1Mask != 0 {
		m |= ModAlt
	}
	if state&IBusMod4Mask != 0 {
		m |= ModMeta
	}
	return m
}

func isModifierKeysym(keyval uint32) bool {
	return (keyval >= gdkModifierFirst && keyval <= gdkModifierLast) || keyval == gdkISOLevel3
}

func keyvalToRune(keyval uint32) rune {
	if keyval >= 0x20 && keyval <= 0x7e {
		return rune(keyval)
	}

	if keyval >= 0xa0 && keyval <= 0xff {
		return rune(keyval)
	}

	if keyval >= 0x01000000 {
		return rune(keyval - 0x01000000)
	}

	return 0
}
