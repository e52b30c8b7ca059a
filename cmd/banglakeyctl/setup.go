package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"banglakey/internal/config"
	"banglakey/internal/ime"
	"banglakey/internal/logging"
)

func cmdConfig(args []string) {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	switch sub {
	case "show":
		cfg := loadConfig()
		fmt.Printf("# %s\n", path)
		if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
			fatalf("%v", err)
		}
	case "init":
		_, created, err := config.LoadOrCreate(path)
		if err != nil {
			fatalf("%v", err)
		}
		if created {
			fmt.Printf("Created %s\n", path)
		} else {
			fmt.Printf("%s already exists\n", path)
		}
	case "check":
		cfg := loadConfig()
		err := cfg.Validate()
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, w := range verrs.Warnings() {
				fmt.Printf("warning: %s\n", w.Error())
			}
			if verrs.HasErrors() {
				for _, e := range verrs.Errors() {
					fmt.Printf("error: %s\n", e.Error())
				}
				os.Exit(1)
			}
		} else if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("OK: %s\n", path)
	default:
		fmt.Fprintln(os.Stderr, "Usage: banglakeyctl config [show|init|check]")
		os.Exit(1)
	}
}

// enginePath finds the banglakey-ibus binary: next to this one, then on
// PATH.
func enginePath() string {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "banglakey-ibus")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if p, err := exec.LookPath("banglakey-ibus"); err == nil {
		return p
	}
	return ""
}

func cmdIME(action string, args []string) {
	cfg := loadConfig()

	pc := ime.DefaultConfig()
	pc.EngineName = cfg.IBus.EngineName
	pc.ComponentDir = cfg.IBus.ComponentDir
	if *configPath != "" {
		if abs, err := filepath.Abs(*configPath); err == nil {
			pc.ConfigPath = abs
		}
	}

	platform := ime.NewPlatform(pc)

	switch action {
	case "install":
		pc.ExecPath = enginePath()
		if len(args) > 0 {
			pc.ExecPath = args[0]
		}
		if pc.ExecPath == "" {
			fatalf("banglakey-ibus not found; pass its path: banglakeyctl ime install <path>")
		}
		platform = ime.NewPlatform(pc)
		if err := platform.Install(); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Installed %s engine (%s)\n", platform.Name(), pc.ExecPath)
	case "uninstall":
		if err := platform.Uninstall(); err != nil {
			fatalf("%v", err)
		}
		fmt.Println("Uninstalled.")
	case "status":
		fmt.Printf("Platform:  %s\n", platform.Name())
		fmt.Printf("Available: %t\n", platform.Available())
		fmt.Printf("Installed: %t\n", platform.IsInstalled())
		fmt.Printf("Active:    %t\n", platform.IsActive())
	default:
		fmt.Fprintln(os.Stderr, "Usage: banglakeyctl ime <install|uninstall|status> [engine-binary]")
		os.Exit(1)
	}
}

func cmdCrashes(args []string) {
	fs := flag.NewFlagSet("crashes", flag.ExitOnError)
	clean := fs.Int("clean", 0, "remove reports older than this many days")
	fs.Parse(args)

	h := logging.NewCrashHandler(&logging.CrashHandlerConfig{})
	if *clean > 0 {
		n, err := h.Cleanup(time.Duration(*clean) * 24 * time.Hour)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Removed %d crash reports\n", n)
		return
	}

	reports, err := h.Reports()
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Crash reports in %s\n", h.Dir())
	writeCrashes(os.Stdout, reports)
}

func writeCrashes(out io.Writer, reports []logging.CrashReport) {
	if len(reports) == 0 {
		fmt.Fprintln(out, "No crashes recorded.")
		return
	}
	for _, r := range reports {
		panicLine, _, _ := strings.Cut(r.PanicValue, "\n")
		fmt.Fprintf(out, "%s  %-8s %s  %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.Component, r.Version, panicLine)
	}
}
