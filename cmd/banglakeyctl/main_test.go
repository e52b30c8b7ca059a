package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"banglakey/internal/keymap"
	"banglakey/internal/logging"
	"banglakey/internal/store"
	"banglakey/internal/translit"
)

func TestWriteLookup(t *testing.T) {
	var out bytes.Buffer
	writeLookup(&out, keymap.Default(), "kShi1")
	s := out.String()

	for _, want := range []string{"PATTERN", "kSh", "consonant", "i", "vowel", "1", "kShi1 -> "} {
		if !strings.Contains(s, want) {
			t.Errorf("lookup output missing %q:\n%s", want, s)
		}
	}
	if !strings.HasSuffix(s, translit.ConvertString(keymap.Default(), "kShi1")+"\n") {
		t.Errorf("lookup output should end with the conversion:\n%s", s)
	}
}

func TestWriteTable(t *testing.T) {
	var out bytes.Buffer
	table := keymap.Default()
	writeTable(&out, table)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// header + entries + blank + summary
	if len(lines) != table.Len()+3 {
		t.Errorf("got %d lines, want %d", len(lines), table.Len()+3)
	}
	if !strings.Contains(lines[len(lines)-1], "patterns") {
		t.Errorf("missing summary line: %q", lines[len(lines)-1])
	}
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	writeHistory(&out, nil)
	if !strings.Contains(out.String(), "No commits") {
		t.Errorf("empty history = %q", out.String())
	}

	out.Reset()
	ts := time.Date(2025, 3, 1, 10, 30, 0, 0, time.Local)
	writeHistory(&out, []store.CommitRecord{
		{Latin: "ami", Bengali: "আমি", Source: "ibus", TimestampNs: ts.UnixNano()},
	})
	for _, want := range []string{"2025-03-01 10:30:00", "ibus", "ami", "আমি"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("history missing %q:\n%s", want, out.String())
		}
	}
}

func TestWriteWords(t *testing.T) {
	var out bytes.Buffer
	writeWords(&out, []store.WordCount{
		{Latin: "bangla", Bengali: "বাংলা", Count: 7, LastUsedNs: time.Now().UnixNano()},
	})
	for _, want := range []string{"COUNT", "7", "bangla", "বাংলা"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("words missing %q:\n%s", want, out.String())
		}
	}
}

func TestWriteStats(t *testing.T) {
	var out bytes.Buffer
	now := time.Now().UnixNano()
	writeStats(&out, &store.Stats{
		Commits:     3,
		UniqueWords: 2,
		OldestNs:    now,
		NewestNs:    now,
		BySource:    map[string]int64{"terminal": 1, "ibus": 2},
	})
	s := out.String()
	if !strings.Contains(s, "Commits:      3") || !strings.Contains(s, "Unique words: 2") {
		t.Errorf("unexpected stats:\n%s", s)
	}
	if strings.Index(s, "ibus") > strings.Index(s, "terminal") {
		t.Errorf("sources should be sorted:\n%s", s)
	}
}

func TestWriteSchema(t *testing.T) {
	var out bytes.Buffer
	writeSchema(&out, &store.MigrationStatus{
		CurrentVersion: 1,
		LatestVersion:  2,
		Pending:        []store.Migration{{Version: 2, Description: "Index word counts by frequency"}},
	})
	s := out.String()
	if !strings.Contains(s, "v1 (latest v2)") || !strings.Contains(s, "pending v2: Index word counts") {
		t.Errorf("unexpected schema output:\n%s", s)
	}
}

func TestWriteCrashes(t *testing.T) {
	var out bytes.Buffer
	writeCrashes(&out, nil)
	if !strings.Contains(out.String(), "No crashes") {
		t.Errorf("empty crashes = %q", out.String())
	}

	out.Reset()
	writeCrashes(&out, []logging.CrashReport{{
		Timestamp:  time.Date(2025, 3, 1, 10, 30, 0, 0, time.Local),
		Component:  "ibus",
		Version:    "1.0.0",
		PanicValue: "index out of range\nmore detail",
	}})
	s := out.String()
	if !strings.Contains(s, "2025-03-01 10:30:00") || !strings.Contains(s, "index out of range") {
		t.Errorf("unexpected crash output: %q", s)
	}
	if strings.Contains(s, "more detail") {
		t.Errorf("only the first panic line should be shown: %q", s)
	}
}
