// Package config loads export configuration: the tag→colour palette, the
// blend table, page settings, footer, and output options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidColor    = errors.New("invalid colour value")
)

// MaxInputSize limits config input to prevent memory exhaustion.
const MaxInputSize = 1 << 20

// Field length limits.
const (
	MaxTagLength         = 50
	MaxColorLength       = 30
	MaxDateLength        = 30
	MaxStatusLength      = 50
	MaxTextLength        = 500
	MaxPageSizeLength    = 10
	MaxOrientationLength = 10
)

// colorPattern accepts hex colours and plain CSS colour names.
var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z][a-zA-Z-]{0,29})$`)

// Config holds all configuration for annotated-document export.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Page    PageConfig    `yaml:"page"`
	Footer  FooterConfig  `yaml:"footer"`
	Palette PaletteConfig `yaml:"palette"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = same directory as source
	HTMLOnly   bool   `yaml:"htmlOnly"`   // Skip the browser stage, emit HTML
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// FooterConfig defines page footer options.
type FooterConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Position       string `yaml:"position"` // "left", "center", "right" (default: "right")
	ShowPageNumber bool   `yaml:"showPageNumber"`
	Date           string `yaml:"date"`
	Status         string `yaml:"status"`
	Text           string `yaml:"text"`
}

// PaletteConfig defines the tag→colour tables consumed by reconstruction.
// Blends lists the colour used for the inner construct when exactly two
// highlights overlap; tag pairs are unordered.
type PaletteConfig struct {
	Colors  map[string]string `yaml:"colors"`
	Blends  []BlendConfig     `yaml:"blends"`
	Default string            `yaml:"default"`
}

// BlendConfig is one blend-table entry.
type BlendConfig struct {
	Tags  []string `yaml:"tags"` // exactly two
	Color string   `yaml:"color"`
}

// Validate checks field lengths and colour syntax.
func (c *Config) Validate() error {
	if err := validateFieldLength("footer.date", c.Footer.Date, MaxDateLength); err != nil {
		return err
	}
	if err := validateFieldLength("footer.status", c.Footer.Status, MaxStatusLength); err != nil {
		return err
	}
	if err := validateFieldLength("footer.text", c.Footer.Text, MaxTextLength); err != nil {
		return err
	}
	if c.Footer.Position != "" {
		switch strings.ToLower(c.Footer.Position) {
		case "left", "center", "right":
		default:
			return fmt.Errorf("footer.position: invalid value %q (must be left, center, or right)", c.Footer.Position)
		}
	}

	if err := validateFieldLength("page.size", c.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.orientation", c.Page.Orientation, MaxOrientationLength); err != nil {
		return err
	}

	for tag, color := range c.Palette.Colors {
		if err := validateFieldLength("palette.colors key", tag, MaxTagLength); err != nil {
			return err
		}
		if err := validateColor(fmt.Sprintf("palette.colors[%s]", tag), color); err != nil {
			return err
		}
	}
	for i, b := range c.Palette.Blends {
		if len(b.Tags) != 2 {
			return fmt.Errorf("palette.blends[%d]: exactly two tags required, got %d", i, len(b.Tags))
		}
		for _, tag := range b.Tags {
			if err := validateFieldLength(fmt.Sprintf("palette.blends[%d].tags", i), tag, MaxTagLength); err != nil {
				return err
			}
		}
		if err := validateColor(fmt.Sprintf("palette.blends[%d].color", i), b.Color); err != nil {
			return err
		}
	}
	if c.Palette.Default != "" {
		if err := validateColor("palette.default", c.Palette.Default); err != nil {
			return err
		}
	}
	return nil
}

func validateColor(fieldName, value string) error {
	if value == "" || !colorPattern.MatchString(value) {
		return fmt.Errorf("%w: %s: %q", ErrInvalidColor, fieldName, value)
	}
	return nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration with a small default palette and
// all optional features disabled.
func DefaultConfig() *Config {
	return &Config{
		Palette: PaletteConfig{
			Colors: map[string]string{
				"fact":     "#fff3a3",
				"issue":    "#ffc9c9",
				"question": "#cce5ff",
			},
			Default: "#ffe89c",
		},
	}
}

// Load loads configuration from a file path or a bare config name. A bare
// name is searched in the standard locations (CWD, then user config dir).
// A missing file is an error; there is no silent fallback.
func Load(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		resolved, err := resolvePath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrConfigParse, len(data), MaxInputSize)
	}
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchPaths returns the locations a bare config name is resolved against,
// in priority order.
func SearchPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "annotpdf", name+".yaml"),
			filepath.Join(dir, "annotpdf", name+".yml"),
		)
	}
	return paths
}

func resolvePath(name string) (string, error) {
	searched := SearchPaths(name)
	for _, p := range searched {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (searched %s)", ErrConfigNotFound, name, strings.Join(searched, ", "))
}
