package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
// Warnings are included in the result; use HasErrors to decide whether the
// configuration is usable.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateOverlay(&c.Overlay)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateIBus(&c.IBus)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToggleKeys lists the accepted engine.toggle_key values.
var ToggleKeys = []string{"F10", "ctrl+t", "none"}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	switch e.Mode {
	case "live", "word":
	default:
		errs = append(errs, ValidationError{
			Field:   "engine.mode",
			Message: fmt.Sprintf("invalid mode: %s (valid: live, word)", e.Mode),
		})
	}

	valid := false
	for _, k := range ToggleKeys {
		if strings.EqualFold(e.ToggleKey, k) {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, ValidationError{
			Field:   "engine.toggle_key",
			Message: fmt.Sprintf("invalid toggle key: %s (valid: %s)", e.ToggleKey, strings.Join(ToggleKeys, ", ")),
		})
	}

	return errs
}

func validateOverlay(o *OverlayConfig) ValidationErrors {
	var errs ValidationErrors
	if o.Path == "" {
		return errs
	}

	path := expandPath(o.Path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".json", ".yaml", ".yml":
	default:
		errs = append(errs, ValidationError{
			Field:   "overlay.format",
			Message: fmt.Sprintf("unsupported overlay extension %q (valid: .toml, .json, .yaml, .yml)", filepath.Ext(path)),
		})
	}

	// The overlay may be created later; the watcher picks it up.
	if _, err := os.Stat(path); err != nil {
		errs = append(errs, ValidationError{
			Field:   "overlay.path",
			Message: fmt.Sprintf("overlay not readable: %v", err),
		})
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Enabled && s.Path == "" {
		errs = append(errs, *RequiredFieldError("storage.path"))
	}

	if s.BusyTimeoutMs < 0 || s.BusyTimeoutMs > 60000 {
		errs = append(errs, *RangeError("storage.busy_timeout_ms", 0, 60000))
	}

	if s.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.retention_days",
			Message: "retention cannot be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file":
		if l.Output == "file" && l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		// Anything else is a file path.
		if l.Output == "" {
			errs = append(errs, *RequiredFieldError("logging.output"))
		}
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func validateIBus(i *IBusConfig) ValidationErrors {
	var errs ValidationErrors

	if i.BusName == "" {
		errs = append(errs, *RequiredFieldError("ibus.bus_name"))
	} else if !strings.Contains(i.BusName, ".") {
		errs = append(errs, ValidationError{
			Field:   "ibus.bus_name",
			Message: fmt.Sprintf("%q is not a well-known bus name", i.BusName),
		})
	}

	if i.EngineName == "" {
		errs = append(errs, *RequiredFieldError("ibus.engine_name"))
	}

	return errs
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	warningFields := []string{
		"overlay.path",
	}
	for _, f := range warningFields {
		if strings.HasPrefix(e.Field, f) {
			return true
		}
	}
	return false
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// checkValid wraps fatal validation errors in ErrInvalidConfig and returns
// the warnings, if any.
func checkValid(cfg *Config) (ValidationErrors, error) {
	err := cfg.Validate()
	if err == nil {
		return nil, nil
	}
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	if verrs.HasErrors() {
		return verrs.Warnings(), fmt.Errorf("%w: %v", ErrInvalidConfig, verrs.Errors())
	}
	return verrs.Warnings(), nil
}
