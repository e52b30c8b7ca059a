//go:build linux

package ime

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// runIBus runs the ibus command line tool.
var runIBus = func(args ...string) ([]byte, error) {
	return exec.Command("ibus", args...).Output()
}

// LinuxPlatform registers the engine with IBus.
type LinuxPlatform struct {
	config PlatformConfig
}

// NewPlatform returns the platform for the running OS.
func NewPlatform(config PlatformConfig) Platform {
	return NewLinuxPlatform(config)
}

// NewLinuxPlatform creates a new Linux IME platform.
func NewLinuxPlatform(config PlatformConfig) *LinuxPlatform {
	def := DefaultConfig()
	if config.EngineName == "" {
		config.EngineName = def.EngineName
	}
	if config.DisplayName == "" {
		config.DisplayName = def.DisplayName
	}
	if config.Language == "" {
		config.Language = def.Language
	}
	if config.Layout == "" {
		config.Layout = def.Layout
	}
	if config.Symbol == "" {
		config.Symbol = def.Symbol
	}
	return &LinuxPlatform{config: config}
}

func (p *LinuxPlatform) Name() string {
	return "linux"
}

// Available reports whether IBus is present.
func (p *LinuxPlatform) Available() bool {
	if _, err := os.Stat("/usr/share/ibus/component"); err == nil {
		return true
	}
	_, err := exec.LookPath("ibus-daemon")
	return err == nil
}

func (p *LinuxPlatform) componentDir() (string, error) {
	if p.config.ComponentDir != "" {
		return p.config.ComponentDir, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "ibus", "component"), nil
}

// ComponentPath returns where the component description is installed.
func (p *LinuxPlatform) ComponentPath() (string, error) {
	dir, err := p.componentDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p.config.EngineName+".xml"), nil
}

// Install writes the IBus component description and asks IBus to rescan.
func (p *LinuxPlatform) Install() error {
	path, err := p.ComponentPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create component dir: %w", err)
	}

	execPath := p.config.ExecPath
	if execPath == "" {
		execPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate engine binary: %w", err)
		}
	}

	if err := os.WriteFile(path, p.generateIBusComponent(execPath), 0644); err != nil {
		return fmt.Errorf("failed to write component: %w", err)
	}

	// IBus picks up new components on restart; a missing daemon is fine.
	runIBus("restart")
	return nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (p *LinuxPlatform) generateIBusComponent(execPath string) []byte {
	cmd := execPath + " --ibus"
	if p.config.ConfigPath != "" {
		cmd += " -config " + p.config.ConfigPath
	}

	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<component>
    <name>%s</name>
    <description>Bengali phonetic input method</description>
    <exec>%s</exec>
    <version>%s</version>
    <author>Banglakey</author>
    <license>MIT</license>
    <textdomain>banglakey</textdomain>
    <engines>
        <engine>
            <name>%s</name>
            <language>%s</language>
            <license>MIT</license>
            <author>Banglakey</author>
            <icon>%s</icon>
            <layout>%s</layout>
            <longname>%s</longname>
            <description>Type Bengali phonetically on a Latin keyboard</description>
            <rank>50</rank>
            <symbol>%s</symbol>
        </engine>
    </engines>
</component>
`,
		xmlEscape(BanglakeyBusName),
		xmlEscape(cmd),
		BanglakeyEngineVersion,
		xmlEscape(p.config.EngineName),
		xmlEscape(p.config.Language),
		xmlEscape(p.config.IconPath),
		xmlEscape(p.config.Layout),
		xmlEscape(p.config.DisplayName),
		xmlEscape(p.config.Symbol),
	))
}

// Uninstall removes the component description.
func (p *LinuxPlatform) Uninstall() error {
	path, err := p.ComponentPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove component: %w", err)
	}
	runIBus("restart")
	return nil
}

func (p *LinuxPlatform) IsInstalled() bool {
	path, err := p.ComponentPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// IsActive asks IBus for the current global engine.
func (p *LinuxPlatform) IsActive() bool {
	out, err := runIBus("engine")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == p.config.EngineName
}

func (p *LinuxPlatform) Activate() error {
	if _, err := runIBus("engine", p.config.EngineName); err != nil {
		return fmt.Errorf("please select %s in your input source settings: %w", p.config.DisplayName, err)
	}
	return nil
}

var _ Platform = (*LinuxPlatform)(nil)
