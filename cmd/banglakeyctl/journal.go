package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"banglakey/internal/config"
	"banglakey/internal/store"
)

func openJournal(cfg *config.Config) *store.Store {
	path := cfg.DatabasePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !cfg.Storage.Enabled {
			fmt.Fprintln(os.Stderr, "No journal found. Set storage.enabled = true to record commits.")
		} else {
			fmt.Fprintf(os.Stderr, "No journal found at %s\n", path)
		}
		os.Exit(1)
	}
	s, err := store.OpenWithTimeout(path, time.Duration(cfg.Storage.BusyTimeoutMs)*time.Millisecond)
	if err != nil {
		fatalf("opening journal: %v", err)
	}
	return s
}

func parseCount(name string, args []string, def int) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	n := fs.Int("n", def, "number of rows")
	fs.Parse(args)
	return *n
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	n := fs.Int("n", 20, "number of rows")
	since := fs.Duration("since", 0, "show every commit from this long ago, oldest first (e.g. 24h)")
	fs.Parse(args)

	s := openJournal(loadConfig())
	defer s.Close()

	var (
		commits []store.CommitRecord
		err     error
	)
	if *since > 0 {
		now := time.Now()
		commits, err = s.CommitsBetween(now.Add(-*since), now)
	} else {
		commits, err = s.Recent(*n)
	}
	if err != nil {
		fatalf("%v", err)
	}
	writeHistory(os.Stdout, commits)
}

func writeHistory(out io.Writer, commits []store.CommitRecord) {
	if len(commits) == 0 {
		fmt.Fprintln(out, "No commits recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tLATIN\tBENGALI")
	for _, c := range commits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Time().Format("2006-01-02 15:04:05"), c.Source, c.Latin, c.Bengali)
	}
	w.Flush()
}

func cmdTop(args []string) {
	n := parseCount("top", args, 20)
	s := openJournal(loadConfig())
	defer s.Close()

	words, err := s.TopWords(n)
	if err != nil {
		fatalf("%v", err)
	}
	writeWords(os.Stdout, words)
}

func cmdWords(latin string) {
	s := openJournal(loadConfig())
	defer s.Close()

	words, err := s.WordsFor(latin)
	if err != nil {
		fatalf("%v", err)
	}
	writeWords(os.Stdout, words)
}

func writeWords(out io.Writer, words []store.WordCount) {
	if len(words) == 0 {
		fmt.Fprintln(out, "No words recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COUNT\tLATIN\tBENGALI\tLAST USED")
	for _, wc := range words {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", wc.Count, wc.Latin, wc.Bengali, time.Unix(0, wc.LastUsedNs).Format("2006-01-02"))
	}
	w.Flush()
}

func cmdPrune(args []string) {
	cfg := loadConfig()

	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	days := fs.Int("days", cfg.Storage.RetentionDays, "delete commits older than this many days")
	vacuum := fs.Bool("vacuum", false, "reclaim free space afterwards")
	fs.Parse(args)

	if *days <= 0 {
		fatalf("prune needs -days > 0 (storage.retention_days is %d)", cfg.Storage.RetentionDays)
	}

	s := openJournal(cfg)
	defer s.Close()

	n, err := s.PruneDays(*days)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Removed %d commits older than %d days\n", n, *days)

	if *vacuum {
		if err := s.Vacuum(); err != nil {
			fatalf("vacuum: %v", err)
		}
	}
}

func cmdStats() {
	s := openJournal(loadConfig())
	defer s.Close()

	st, err := s.Stats()
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Journal: %s\n", s.Path())
	writeStats(os.Stdout, st)

	status, err := s.MigrationStatus()
	if err != nil {
		fatalf("%v", err)
	}
	writeSchema(os.Stdout, status)
}

func writeSchema(out io.Writer, status *store.MigrationStatus) {
	fmt.Fprintf(out, "Schema:       v%d (latest v%d)\n", status.CurrentVersion, status.LatestVersion)
	for _, m := range status.Pending {
		fmt.Fprintf(out, "  pending v%d: %s\n", m.Version, m.Description)
	}
}

func cmdSchema(args []string) {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}

	s := openJournal(loadConfig())
	defer s.Close()

	switch sub {
	case "status":
		status, err := s.MigrationStatus()
		if err != nil {
			fatalf("%v", err)
		}
		writeSchema(os.Stdout, status)
		for _, am := range status.Applied {
			fmt.Printf("  applied v%d %s: %s\n", am.Version, am.AppliedAt.Format(time.RFC3339), am.Description)
		}
	case "rollback":
		if err := s.RollbackSchema(); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("Rolled back one migration. It is reapplied the next time the journal is opened.")
	default:
		fmt.Fprintln(os.Stderr, "Usage: banglakeyctl schema [status|rollback]")
		os.Exit(1)
	}
}

func writeStats(out io.Writer, st *store.Stats) {
	fmt.Fprintf(out, "Commits:      %d\n", st.Commits)
	fmt.Fprintf(out, "Unique words: %d\n", st.UniqueWords)
	if st.Commits > 0 {
		fmt.Fprintf(out, "Oldest:       %s\n", time.Unix(0, st.OldestNs).Format(time.RFC3339))
		fmt.Fprintf(out, "Newest:       %s\n", time.Unix(0, st.NewestNs).Format(time.RFC3339))
	}
	if len(st.BySource) == 0 {
		return
	}

	sources := make([]string, 0, len(st.BySource))
	for src := range st.BySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	fmt.Fprintln(out, "By source:")
	for _, src := range sources {
		name := src
		if name == "" {
			name = "(unknown)"
		}
		fmt.Fprintf(out, "  %-12s %d\n", name, st.BySource[src])
	}
}

func cmdRebuild() {
	s := openJournal(loadConfig())
	defer s.Close()

	if err := s.RebuildWordCounts(); err != nil {
		fatalf("%v", err)
	}
	fmt.Println("Word counts rebuilt.")
}
