package ime

// Platform installs and activates the input method on the host system.
type Platform interface {
	// Name returns the platform name (e.g., "linux").
	Name() string

	// Available returns true if this platform implementation is available.
	Available() bool

	// Install registers the input method for the current user.
	Install() error

	// Uninstall removes the input method registration.
	Uninstall() error

	// IsInstalled returns true if the input method is registered.
	IsInstalled() bool

	// IsActive returns true if the input method is currently selected.
	IsActive() bool

	// Activate makes this input method the active one.
	Activate() error
}

// PlatformConfig contains platform-specific configuration.
type PlatformConfig struct {
	// EngineName is the engine id the framework knows us by.
	EngineName string

	// DisplayName is shown to users in system settings.
	DisplayName string

	// ExecPath is the engine binary. Defaults to the running executable.
	ExecPath string

	// ConfigPath is passed to the engine binary when set.
	ConfigPath string

	// ComponentDir overrides where the component description is written.
	ComponentDir string

	// IconPath is the path to the input method icon.
	IconPath string

	// Language is the language code advertised for the engine.
	Language string

	// Layout is the keyboard layout the engine runs on top of.
	Layout string

	// Symbol is the short label shown in the panel.
	Symbol string
}

// DefaultConfig returns platform-appropriate default configuration.
func DefaultConfig() PlatformConfig {
	return PlatformConfig{
		EngineName:  "banglakey",
		DisplayName: "Banglakey (Phonetic)",
		Language:    "bn",
		Layout:      "us",
		Symbol:      "বা",
	}
}
