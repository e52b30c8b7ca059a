package logging

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"banglakey/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error"} {
		level, err := ParseLevel(name)
		if err != nil {
			t.Fatal(err)
		}
		if got := LevelString(level); got != name {
			t.Errorf("LevelString(%v) = %q, want %q", level, got, name)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Level)
	}
	if !cfg.RedactText {
		t.Error("text should be redacted by default")
	}
	if cfg.Component != "banglakey" {
		t.Errorf("expected component banglakey, got %q", cfg.Component)
	}
	if !strings.Contains(cfg.FilePath, "banglakey") {
		t.Errorf("unexpected default file path %q", cfg.FilePath)
	}
}

func TestFromConfig(t *testing.T) {
	app := config.DefaultConfig().Logging
	app.Level = "debug"
	app.Format = "json"
	app.Output = "/tmp/bk/custom.log"
	app.RedactText = false

	cfg, err := FromConfig(app, "ibus")
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if cfg.Level != LevelDebug || cfg.Format != FormatJSON {
		t.Errorf("unexpected level/format: %v %v", cfg.Level, cfg.Format)
	}
	if cfg.Output != "file" || cfg.FilePath != "/tmp/bk/custom.log" {
		t.Errorf("bare path output not mapped to file: %q %q", cfg.Output, cfg.FilePath)
	}
	if cfg.RedactText {
		t.Error("redaction should follow the config")
	}
	if cfg.Component != "ibus" {
		t.Errorf("expected component ibus, got %q", cfg.Component)
	}

	app.Level = "chatty"
	if _, err := FromConfig(app, ""); err == nil {
		t.Error("expected error for bad level")
	}
}

func newBufferLogger(t *testing.T, format Format, redact bool) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.Format = format
	cfg.RedactText = redact
	cfg.Writer = &buf
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, &buf
}

func TestJSONFormat(t *testing.T) {
	l, buf := newBufferLogger(t, FormatJSON, false)

	l.Info("table loaded", "patterns", 120)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "table loaded" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "banglakey" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
	if entry["patterns"] != float64(120) {
		t.Errorf("unexpected patterns: %v", entry["patterns"])
	}
}

func TestRedactText(t *testing.T) {
	l, buf := newBufferLogger(t, FormatText, true)

	l.Debug("key handled", "raw", "ami", "action", "emit=আমি", "kind", "char")

	out := buf.String()
	if strings.Contains(out, "ami") || strings.Contains(out, "আমি") {
		t.Errorf("typed text leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("expected redaction marker: %s", out)
	}
	if !strings.Contains(out, "kind=char") {
		t.Errorf("non-text attribute should survive: %s", out)
	}
}

func TestRedactTextDisabled(t *testing.T) {
	l, buf := newBufferLogger(t, FormatText, false)
	l.Debug("key handled", "raw", "ami")
	if !strings.Contains(buf.String(), "raw=ami") {
		t.Errorf("expected raw text: %s", buf.String())
	}
}

func TestShouldRedact(t *testing.T) {
	for _, key := range []string{"raw", "RAW", "latin", "bengali", "emit"} {
		if !shouldRedact(key) {
			t.Errorf("expected %q to be redacted", key)
		}
	}
	for _, key := range []string{"kind", "path", "error", "rawness"} {
		if shouldRedact(key) {
			t.Errorf("did not expect %q to be redacted", key)
		}
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBufferLogger(t, FormatJSON, true)
	l.WithComponent("store").Info("opened")

	if !strings.Contains(buf.String(), `"component":"store"`) {
		t.Errorf("expected store component: %s", buf.String())
	}
}

func TestLoggerToFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "bk.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Rotator() == nil {
		t.Fatal("expected a rotator for file output")
	}
	l.Info("hello")
	if err := l.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestFileRotator(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSizeMB: 1, MaxBackups: 3})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	defer rotator.Close()

	testData := []byte("test log line\n")
	n, err := rotator.Write(testData)
	if err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if n != len(testData) {
		t.Errorf("expected to write %d bytes, wrote %d", len(testData), n)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
	if err := rotator.Sync(); err != nil {
		t.Errorf("sync failed: %v", err)
	}
}

func TestFileRotatorRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSizeMB: 1, MaxBackups: 10})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	rotator.limit = 64

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 3; i++ {
		if _, err := rotator.Write(line); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := rotator.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := rotator.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("expected current file plus 2 rotated, got %v", files)
	}
}

func TestFileRotatorCompress(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSizeMB: 1, MaxBackups: 5, Compress: true})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}

	if _, err := rotator.Write([]byte("before rotation\n")); err != nil {
		t.Fatal(err)
	}
	if err := rotator.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := rotator.Close(); err != nil {
		t.Fatal(err)
	}

	gzs, _ := filepath.Glob(filepath.Join(dir, "test-*.log.gz"))
	if len(gzs) != 1 {
		t.Fatalf("expected one gzipped file, got %v", gzs)
	}

	f, err := os.Open(gzs[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "before rotation\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestFileRotatorMaxBackups(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatal(err)
	}

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rotator.now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		rotator.Write([]byte("line\n"))
		clock = clock.Add(time.Second)
		if err := rotator.Rotate(); err != nil {
			t.Fatal(err)
		}
		rotator.bg.Wait()
	}
	rotator.Close()

	rotated, _ := filepath.Glob(filepath.Join(dir, "test-*.log"))
	if len(rotated) != 2 {
		t.Errorf("expected 2 backups kept, got %v", rotated)
	}
}

func TestFileRotatorDailyRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	rotator, err := NewFileRotator(&Config{FilePath: logPath, MaxSizeMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer rotator.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	rotator.now = func() time.Time { return day }
	rotator.opened = day
	rotator.Write([]byte("a\n"))

	if rotator.shouldRotate(2) {
		t.Error("same day should not rotate")
	}
	day = day.Add(2 * time.Minute)
	if !rotator.shouldRotate(2) {
		t.Error("new day should rotate")
	}
}

func TestCrashHandler(t *testing.T) {
	var logBuf bytes.Buffer
	l, _ := New(&Config{Writer: &logBuf, Level: LevelInfo})

	var got []CrashReport
	handler := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  t.TempDir(),
		Version:   "1.0.0",
		Component: "test",
		Logger:    l.Logger,
		OnCrash:   func(r CrashReport) { got = append(got, r) },
	})

	handler.HandlePanic("test panic value", map[string]any{"op": "process_key"})

	reports, err := handler.Reports()
	if err != nil {
		t.Fatalf("failed to get crash reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	report := reports[0]
	if report.PanicValue != "test panic value" {
		t.Errorf("expected panic value 'test panic value', got %q", report.PanicValue)
	}
	if report.Version != "1.0.0" || report.Component != "test" {
		t.Errorf("unexpected report header: %+v", report)
	}
	if report.Context["op"] != "process_key" {
		t.Errorf("context lost: %v", report.Context)
	}
	if len(got) != 1 {
		t.Errorf("OnCrash called %d times", len(got))
	}
	if !strings.Contains(logBuf.String(), "recovered panic") {
		t.Errorf("crash not logged: %s", logBuf.String())
	}
}

func TestCrashHandlerGuard(t *testing.T) {
	handler := NewCrashHandler(&CrashHandlerConfig{CrashDir: t.TempDir(), Component: "test"})

	ran := false
	if handler.Guard("ok", func() { ran = true }) {
		t.Error("Guard reported a panic for a clean call")
	}
	if !ran {
		t.Error("function did not run")
	}

	if !handler.Guard("boom", func() { panic("intentional test panic") }) {
		t.Error("Guard did not report the panic")
	}

	reports, _ := handler.Reports()
	if len(reports) != 1 {
		t.Errorf("expected one report, got %d", len(reports))
	}
}

func TestCrashHandlerCleanup(t *testing.T) {
	handler := NewCrashHandler(&CrashHandlerConfig{CrashDir: t.TempDir(), Component: "test"})

	for i := 0; i < 3; i++ {
		handler.HandlePanic("test panic", nil)
	}
	reports, _ := handler.Reports()
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}

	files, _ := handler.files()
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(files[0], old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := handler.Cleanup(24 * time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
}
