// banglakeyctl is the control CLI for banglakey.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"banglakey/internal/config"
	"banglakey/internal/keymap"
	"banglakey/internal/translit"
)

var (
	configPath  = flag.String("config", "", "path to config file")
	overlayPath = flag.String("overlay", "", "pattern overlay file (overrides config)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "convert":
		cmdConvert(args)
	case "lookup":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: banglakeyctl lookup <text>")
			os.Exit(1)
		}
		cmdLookup(args[0])
	case "table":
		cmdTable()
	case "overlay":
		if len(args) < 2 || args[0] != "check" {
			fmt.Fprintln(os.Stderr, "Usage: banglakeyctl overlay check <file>")
			os.Exit(1)
		}
		cmdOverlayCheck(args[1])
	case "history":
		cmdHistory(args)
	case "top":
		cmdTop(args)
	case "words":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: banglakeyctl words <latin>")
			os.Exit(1)
		}
		cmdWords(args[0])
	case "prune":
		cmdPrune(args)
	case "stats":
		cmdStats()
	case "rebuild":
		cmdRebuild()
	case "schema":
		cmdSchema(args)
	case "crashes":
		cmdCrashes(args)
	case "config":
		cmdConfig(args)
	case "ime":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: banglakeyctl ime <install|uninstall|status> [engine-binary]")
			os.Exit(1)
		}
		cmdIME(args[0], args[1:])
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `banglakeyctl - Control utility for banglakey

Usage: banglakeyctl [options] <command> [args]

Conversion:
  convert [text...]      Convert text (reads stdin when no text is given)
  lookup <text>          Show how text is tokenized and rendered
  table                  List every pattern in the active table
  overlay check <file>   Validate a pattern overlay

Journal:
  history [-n N] [-since D]  Show recent commits, or all since D ago
  top [-n N]             Show the most used words
  words <latin>          Show what a Latin spelling has produced
  prune [-days N]        Delete commits older than N days
  stats                  Show journal statistics
  rebuild                Recompute word counts from the commits
  schema [status|rollback]  Show or roll back journal migrations

Setup:
  config [show|init|check]               Print, create or validate the config file
  ime <install|uninstall|status> [bin]   Manage the IBus component
  crashes [-clean DAYS]                  List or remove crash reports

Options:
  -config <path>   Path to config file
  -overlay <path>  Pattern overlay (overrides config)`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("loading config: %v", err)
	}
	if *overlayPath != "" {
		cfg.Overlay.Path = *overlayPath
	}
	return cfg
}

func loadTable(cfg *config.Config) *keymap.Table {
	table, err := keymap.LoadTable(cfg.OverlayPath())
	if err != nil {
		fatalf("loading overlay: %v", err)
	}
	return table
}

func cmdConvert(args []string) {
	table := loadTable(loadConfig())

	if len(args) > 0 {
		fmt.Println(translit.ConvertText(table, strings.Join(args, " ")))
		return
	}
	if err := translit.ConvertStream(table, os.Stdin, os.Stdout); err != nil {
		fatalf("%v", err)
	}
}

func cmdLookup(text string) {
	table := loadTable(loadConfig())
	writeLookup(os.Stdout, table, text)
}

// writeLookup prints the tokens of text with the glyph each one renders to.
func writeLookup(out io.Writer, table *keymap.Table, text string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tROLE\tGLYPH\tSIGN")
	for _, tk := range translit.Tokenize(table, []rune(text)) {
		if tk.Passthrough {
			fmt.Fprintf(w, "%s\t-\t%s\t\n", string(tk.Literal), string(tk.Literal))
			continue
		}
		sign, _ := table.Diacritic(tk.Pattern)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tk.Pattern, tk.Entry.Role, tk.Entry.Glyph, sign)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%s -> %s\n", text, translit.ConvertString(table, text))
}

func cmdTable() {
	table := loadTable(loadConfig())
	writeTable(os.Stdout, table)
}

func writeTable(out io.Writer, table *keymap.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tROLE\tGLYPH\tSIGN")
	for _, e := range table.Entries() {
		sign, _ := table.Diacritic(e.Pattern)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Pattern, e.Role, e.Glyph, sign)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d patterns, longest %d\n", table.Len(), table.MaxPatternLen())
}

func cmdOverlayCheck(path string) {
	table, err := keymap.LoadTable(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK: %s (%d patterns after merge)\n", path, table.Len())
}
