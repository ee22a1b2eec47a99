package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	data := []byte(`
output:
  defaultDir: out
  htmlOnly: true
page:
  size: a4
  orientation: landscape
  margin: 1.0
footer:
  enabled: true
  position: center
  showPageNumber: true
  text: draft review
palette:
  colors:
    fact: "#fff3a3"
    issue: "#ffc9c9"
  blends:
    - tags: [fact, issue]
      color: "#ffd9b3"
  default: "#ffe89c"
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Output.DefaultDir != "out" || !cfg.Output.HTMLOnly {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Page.Size != "a4" || cfg.Page.Orientation != "landscape" || cfg.Page.Margin != 1.0 {
		t.Errorf("Page = %+v", cfg.Page)
	}
	if !cfg.Footer.Enabled || cfg.Footer.Position != "center" || cfg.Footer.Text != "draft review" {
		t.Errorf("Footer = %+v", cfg.Footer)
	}
	if cfg.Palette.Colors["fact"] != "#fff3a3" {
		t.Errorf("Palette.Colors = %+v", cfg.Palette.Colors)
	}
	if len(cfg.Palette.Blends) != 1 || cfg.Palette.Blends[0].Color != "#ffd9b3" {
		t.Errorf("Palette.Blends = %+v", cfg.Palette.Blends)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "unknown field",
			data:    "unknown: value",
			wantErr: ErrConfigParse,
		},
		{
			name:    "invalid colour",
			data:    "palette:\n  colors:\n    fact: \"not a colour!\"",
			wantErr: ErrInvalidColor,
		},
		{
			name:    "footer text too long",
			data:    "footer:\n  text: " + strings.Repeat("x", MaxTextLength+1),
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "not yaml",
			data:    "{{{",
			wantErr: ErrConfigParse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseOversizedInput(t *testing.T) {
	t.Parallel()

	data := make([]byte, MaxInputSize+1)
	if _, err := Parse(data); !errors.Is(err, ErrConfigParse) {
		t.Error("Parse() expected error for oversized input")
	}
}

func TestValidateBlendTags(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Palette: PaletteConfig{
			Blends: []BlendConfig{{Tags: []string{"only-one"}, Color: "#abc"}},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for blend with one tag")
	}
}

func TestValidateFooterPosition(t *testing.T) {
	t.Parallel()

	cfg := &Config{Footer: FooterConfig{Position: "sideways"}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for invalid footer position")
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
	if len(cfg.Palette.Colors) == 0 || cfg.Palette.Default == "" {
		t.Errorf("DefaultConfig() palette incomplete: %+v", cfg.Palette)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("page:\n  size: legal"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Page.Size != "legal" {
		t.Errorf("Page.Size = %q, want legal", cfg.Page.Size)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
	}

	if _, err := Load(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("Load(\"\") error = %v, want ErrEmptyConfigName", err)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("myconf")
	if len(paths) < 2 {
		t.Fatalf("SearchPaths() = %v, want at least yaml and yml in CWD", paths)
	}
	if paths[0] != "myconf.yaml" || paths[1] != "myconf.yml" {
		t.Errorf("SearchPaths() = %v, want CWD entries first", paths)
	}
}
