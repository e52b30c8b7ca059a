package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"banglakey/internal/ime"
	"banglakey/internal/store"
)

func TestShutdownRunsOnceNewestFirst(t *testing.T) {
	var order []string
	var s shutdown
	s.add(func() { order = append(order, "logger") })
	s.add(func() { order = append(order, "journal") })
	s.add(func() { order = append(order, "terminal") })

	s.run()
	s.run()

	want := []string{"terminal", "journal", "logger"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestShutdownWatchClosedChannel(t *testing.T) {
	var s shutdown
	ran := false
	s.add(func() { ran = true })

	ch := make(chan os.Signal)
	close(ch)
	s.watch(ch, func(int) { t.Error("exit called for a closed channel") })
	if ran {
		t.Error("cleanups ran without a signal")
	}
}

func TestSignalFlushesQueuedCommits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	journal, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var s shutdown
	s.add(func() { journal.Close() })
	recorder := store.NewRecorder(journal, nil, 0)
	s.add(func() { recorder.Close() })

	for i := 0; i < 50; i++ {
		recorder.Record(ime.Commit{Latin: "ami", Bengali: "আমি", Source: "terminal", At: time.Now()})
	}

	ch := make(chan os.Signal, 1)
	exited := make(chan int, 1)
	ch <- syscall.SIGTERM
	s.watch(ch, func(code int) { exited <- code })

	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	default:
		t.Fatal("exit was not called")
	}

	reopened, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	st, err := reopened.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Commits != 50 {
		t.Errorf("commits = %d, want 50", st.Commits)
	}
}
