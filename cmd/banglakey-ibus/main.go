//go:build linux

// banglakey-ibus is the Linux IBus engine for phonetic Bengali input.
//
// IBus starts the binary with -ibus when the user selects the engine. It
// claims its bus name, exports the engine factory and converts keystrokes
// in the focused application until IBus terminates it.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/banglakey-ibus
//  2. Run: banglakey-ibus -install
//  3. Enable via: ibus-setup or GNOME Settings > Keyboard > Input Sources
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"banglakey/internal/config"
	"banglakey/internal/ime"
	"banglakey/internal/keymap"
	"banglakey/internal/logging"
	"banglakey/internal/store"
)

const version = "1.0.0"

// Crash reports older than this are removed at startup.
const crashRetention = 30 * 24 * time.Hour

func main() {
	installFlag := flag.Bool("install", false, "Install IBus component")
	uninstallFlag := flag.Bool("uninstall", false, "Uninstall IBus component")
	ibusFlag := flag.Bool("ibus", false, "Run as an engine launched by IBus")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *installFlag || *uninstallFlag {
		platform := ime.NewPlatform(platformConfig(cfg, *configPath))
		if *installFlag {
			if err := platform.Install(); err != nil {
				log.Fatalf("Failed to install: %v", err)
			}
			log.Println("Installed successfully. Select Banglakey in your input sources.")
			return
		}
		if err := platform.Uninstall(); err != nil {
			log.Fatalf("Failed to uninstall: %v", err)
		}
		log.Println("Uninstalled successfully.")
		return
	}

	if !*ibusFlag {
		fmt.Fprintln(os.Stderr, "banglakey-ibus is started by IBus. Use -install to register it.")
	}

	if err := run(loader, cfg); err != nil {
		log.Fatal(err)
	}
}

func platformConfig(cfg *config.Config, configPath string) ime.PlatformConfig {
	pc := ime.DefaultConfig()
	pc.EngineName = cfg.IBus.EngineName
	pc.ComponentDir = cfg.IBus.ComponentDir
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
		pc.ConfigPath = configPath
	}
	return pc
}

func run(loader *config.Loader, cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg, err := logging.FromConfig(cfg.Logging, "banglakey-ibus")
	if err != nil {
		return err
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	for _, w := range loader.Warnings() {
		logger.Warn("config warning", "field", w.Field, "message", w.Message)
	}

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   version,
		Component: "ibus",
		Logger:    logger.Logger,
	})
	if n, err := crash.Cleanup(crashRetention); err != nil {
		logger.Warn("crash report cleanup failed", "error", err)
	} else if n > 0 {
		logger.Info("removed old crash reports", "removed", n)
	}

	table := loadTable(logger, cfg)

	mode, err := ime.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return err
	}
	keysym, mask, err := ime.ParseToggleKey(cfg.Engine.ToggleKey)
	if err != nil {
		return err
	}

	ibusCfg := ime.DefaultIBusConfig()
	ibusCfg.BusName = cfg.IBus.BusName
	ibusCfg.EngineName = cfg.IBus.EngineName
	ibusCfg.Mode = mode
	ibusCfg.ToggleKeysym = keysym
	ibusCfg.ToggleMask = mask
	ibusCfg.StartDisabled = !cfg.Engine.StartEnabled
	ibusCfg.Logger = logger.Logger
	ibusCfg.Crash = crash

	if cfg.Storage.Enabled {
		journal, err := store.OpenWithTimeout(cfg.DatabasePath(), busyTimeout(cfg))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()

		if n, err := journal.PruneDays(cfg.Storage.RetentionDays); err != nil {
			logger.Warn("prune journal failed", "error", err)
		} else if n > 0 {
			logger.Info("pruned journal", "removed", n)
		}

		recorder := store.NewRecorder(journal, logger.WithComponent("store").Logger, 0)
		defer recorder.Close()
		ibusCfg.OnCommit = recorder.Record
	}

	host := ime.NewIBusHost(ibusCfg, table)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := host.Start(ctx); err != nil {
		return err
	}
	defer host.Stop()

	loader.OnChange(func(newCfg *config.Config) {
		crash.Guard("config reload", func() {
			if m, err := ime.ParseMode(newCfg.Engine.Mode); err == nil {
				host.SetMode(m)
			}
			if newCfg.Engine.ToggleKey != cfg.Engine.ToggleKey {
				logger.Info("toggle key changed; restart IBus to apply")
			}
			host.SetTable(loadTable(logger, newCfg))
		})
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch disabled", "error", err)
	}
	defer loader.Close()

	go func() {
		defer crash.RecoverGoroutine()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-loader.Errors():
				logger.Warn("config reload failed", "error", err)
			}
		}
	}()

	<-ctx.Done()

	st := host.Stats()
	logger.Info("shutting down",
		"engines", st.EnginesCreated,
		"key_events", st.KeyEvents,
		"consumed", st.Consumed,
	)
	return nil
}

// loadTable builds the table for cfg, falling back to the built-in layout
// when the overlay is missing or invalid.
func loadTable(logger *logging.Logger, cfg *config.Config) *keymap.Table {
	path := cfg.OverlayPath()
	table, err := keymap.LoadTable(path)
	if err != nil {
		logger.Warn("overlay rejected, using built-in layout", "path", path, "error", err)
		return keymap.Default()
	}
	if path != "" {
		logger.Info("overlay loaded", "path", path, "patterns", table.Len())
	}
	return table
}

func busyTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Storage.BusyTimeoutMs) * time.Millisecond
}
