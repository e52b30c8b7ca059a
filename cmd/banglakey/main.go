// banglakey is a terminal front end for phonetic Bengali input.
//
// On a terminal it runs a line editor that converts as you type. When
// stdin is a pipe, or words are given as arguments, it converts them and
// exits:
//
//	banglakey ami tomake bhalobashi
//	echo "ami bangla boli" | banglakey
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"banglakey/internal/config"
	"banglakey/internal/ime"
	"banglakey/internal/keymap"
	"banglakey/internal/logging"
	"banglakey/internal/store"
	"banglakey/internal/translit"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	modeFlag := flag.String("mode", "", "conversion mode: live or word (overrides config)")
	overlayFlag := flag.String("overlay", "", "pattern overlay file (overrides config)")
	pipeFlag := flag.Bool("pipe", false, "convert stdin line by line even on a terminal")
	flag.Parse()

	if *configPath == "" {
		*configPath = config.ConfigPath()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *modeFlag != "" {
		cfg.Engine.Mode = *modeFlag
	}
	if *overlayFlag != "" {
		cfg.Overlay.Path = *overlayFlag
	}

	table, err := keymap.LoadTable(cfg.OverlayPath())
	if err != nil {
		log.Fatalf("Failed to load overlay: %v", err)
	}

	if flag.NArg() > 0 {
		fmt.Println(translit.ConvertText(table, strings.Join(flag.Args(), " ")))
		return
	}

	fd := int(os.Stdin.Fd())
	if *pipeFlag || !term.IsTerminal(fd) {
		if err := translit.ConvertStream(table, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := interactive(cfg, table, fd); err != nil {
		log.Fatal(err)
	}
}

func interactive(cfg *config.Config, table *keymap.Table, fd int) error {
	// Raw mode owns the screen, so console logging goes to the log file.
	if cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" || cfg.Logging.Output == "both" {
		cfg.Logging.Output = "file"
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg, err := logging.FromConfig(cfg.Logging, "banglakey")
	if err != nil {
		return err
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(logger)

	var done shutdown
	defer done.run()
	done.add(func() { logger.Close() })

	mode, err := ime.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return err
	}

	opts := []ime.SessionOption{
		ime.WithTable(table),
		ime.WithMode(mode),
		ime.WithLogger(logger.WithComponent("session").Logger),
		ime.WithSource("terminal"),
	}

	if cfg.Storage.Enabled {
		journal, err := store.OpenWithTimeout(cfg.DatabasePath(), time.Duration(cfg.Storage.BusyTimeoutMs)*time.Millisecond)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		done.add(func() { journal.Close() })

		recorder := store.NewRecorder(journal, logger.WithComponent("store").Logger, 0)
		done.add(func() { recorder.Close() })
		opts = append(opts, ime.WithCommitHook(recorder.Record))
	}

	session := ime.NewSession(opts...)
	session.SetEnabled(cfg.Engine.StartEnabled)

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	done.add(func() { term.Restore(fd, oldState) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGHUP)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()
	go done.watch(sigCh, os.Exit)

	logger.Info("terminal session started", "mode", mode.String(), "patterns", table.Len())

	t := newTerminal(os.Stdout, session, cfg.Terminal.Prompt, cfg.Engine.ToggleKey, cfg.Terminal.ShowStatus)
	err = t.run(bufio.NewReader(os.Stdin))

	st := session.Stats()
	logger.Info("terminal session ended", "keys", st.Keys, "commits", st.Commits)
	return err
}
