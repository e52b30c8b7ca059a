package keymap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed overlay.schema.json
var overlaySchemaJSON []byte

const overlaySchemaURL = "https://banglakey.local/schema/overlay.json"

var (
	overlaySchema     *jsonschema.Schema
	overlaySchemaErr  error
	overlaySchemaOnce sync.Once
)

func compiledOverlaySchema() (*jsonschema.Schema, error) {
	overlaySchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(overlaySchemaURL, bytes.NewReader(overlaySchemaJSON)); err != nil {
			overlaySchemaErr = fmt.Errorf("add overlay schema: %w", err)
			return
		}
		overlaySchema, overlaySchemaErr = compiler.Compile(overlaySchemaURL)
	})
	return overlaySchema, overlaySchemaErr
}

// Overlay is a user supplied set of patterns layered over the built-in
// table.
type Overlay struct {
	Patterns []OverlayEntry `json:"pattern"`
}

// OverlayEntry is one [[pattern]] block.
type OverlayEntry struct {
	Pattern   string `json:"pattern"`
	Glyph     string `json:"glyph"`
	Role      string `json:"role"`
	Diacritic string `json:"diacritic,omitempty"`
}

// Format identifies an overlay encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format from the file extension. Unknown extensions
// are treated as TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// LoadOverlay reads and validates an overlay file.
func LoadOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overlay: %w", err)
	}
	ov, err := ParseOverlay(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ov, nil
}

// ParseOverlay decodes data in the given format, validates it against the
// overlay schema and normalises every glyph to NFC.
func ParseOverlay(data []byte, format Format) (*Overlay, error) {
	var raw any
	switch format {
	case FormatTOML:
		m := map[string]any{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, fmt.Errorf("parse overlay toml: %w", err)
		}
		raw = m
	case FormatYAML:
		m := map[string]any{}
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse overlay yaml: %w", err)
		}
		raw = m
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse overlay json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported overlay format %q", format)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// The schema validator wants encoding/json shaped values.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize overlay: %w", err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("normalize overlay: %w", err)
	}

	schema, err := compiledOverlaySchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid overlay: %w", err)
	}

	var ov Overlay
	if err := json.Unmarshal(normalized, &ov); err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}
	for i := range ov.Patterns {
		ov.Patterns[i].Glyph = norm.NFC.String(ov.Patterns[i].Glyph)
		ov.Patterns[i].Diacritic = norm.NFC.String(ov.Patterns[i].Diacritic)
	}
	return &ov, nil
}

// Len returns the number of overlay entries.
func (o *Overlay) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Patterns)
}

func (o *Overlay) entries() ([]Entry, map[string]string, error) {
	entries := make([]Entry, 0, len(o.Patterns))
	diacritics := make(map[string]string)
	for _, p := range o.Patterns {
		role, err := ParseRole(p.Role)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, Entry{
			Pattern: p.Pattern,
			Glyph:   norm.NFC.String(p.Glyph),
			Role:    role,
		})
		if p.Diacritic == "" {
			continue
		}
		if role != RoleIndependentVowel {
			return nil, nil, fmt.Errorf("%w: %q", ErrOrphanDiacritic, p.Pattern)
		}
		diacritics[p.Pattern] = norm.NFC.String(p.Diacritic)
	}
	return entries, diacritics, nil
}

// LoadTable builds the built-in table with the overlay at path layered on
// top. An empty path returns Default().
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	ov, err := LoadOverlay(path)
	if err != nil {
		return nil, err
	}
	t, err := Build(WithOverlay(ov))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
