package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	annotpdf "github.com/alnah/go-annotpdf"
	"github.com/alnah/go-annotpdf/internal/config"
)

func TestRunHTMLOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "report.md")
	source := "one two three four five six seven eight"
	if err := os.WriteFile(doc, []byte(source), 0o600); err != nil {
		t.Fatal(err)
	}
	sidecar := `
highlights:
  - id: h1
    start: 0
    end: 15
    tag: fact
    comments:
      - author: ada
        text: check this
  - id: h2
    start: 8
    end: 25
    tag: issue
`
	if err := os.WriteFile(sidecarPath(doc), []byte(sidecar), 0o600); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out")
	flags := &cliFlags{
		inputs:   []string{doc},
		output:   out,
		htmlOnly: true,
		quiet:    true,
	}
	if err := run(flags, 1); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "report.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	html := string(data)
	for _, want := range []string{
		`data-hl="h1"`,
		`data-hl="h2"`,
		"check this",
		`<section class="comments">`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output HTML missing %q", want)
		}
	}
	if strings.Contains(html, "xqam") {
		t.Error("marker text leaked into output")
	}
}

func TestRunBadSidecarFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(doc, []byte("text"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sidecarPath(doc), []byte("{{{"), 0o600); err != nil {
		t.Fatal(err)
	}

	flags := &cliFlags{inputs: []string{doc}, htmlOnly: true, quiet: true}
	if err := run(flags, 1); err == nil {
		t.Error("run() expected error for malformed sidecar")
	}
}

func TestAnnotationSummary(t *testing.T) {
	t.Parallel()

	got := annotationSummary("doc.md", 2, 1)
	if want := "doc.md: 2 highlights, 1 comments"; got != want {
		t.Errorf("annotationSummary() = %q, want %q", got, want)
	}
	if strings.Contains(got, "hint") {
		t.Errorf("annotationSummary() = %q, want no hint for annotated document", got)
	}

	got = annotationSummary("doc.md", 0, 0)
	if !strings.Contains(got, "doc.annotations.yaml") {
		t.Errorf("annotationSummary() = %q, want sidecar convention hint", got)
	}
}

func TestDecorateError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{
			name:     "timeout suggests flag",
			err:      fmt.Errorf("export: %w", annotpdf.ErrConversionTimeout),
			wantHint: "--timeout",
		},
		{
			name:     "deadline suggests flag",
			err:      context.DeadlineExceeded,
			wantHint: "--timeout",
		},
		{
			name:     "corrupted marker explains reserved text",
			err:      fmt.Errorf("lex: %w", annotpdf.ErrCorruptedMarker),
			wantHint: "reserved marker text",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := decorateError(tt.err)
			if !strings.Contains(got.Error(), tt.wantHint) {
				t.Errorf("decorateError(%v) = %q, want hint %q", tt.err, got, tt.wantHint)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("decorateError(%v) broke the error chain", tt.err)
			}
		})
	}

	plain := errors.New("unrelated")
	if got := decorateError(plain); got != plain {
		t.Errorf("decorateError() = %v, want unrecognised errors untouched", got)
	}
}

func TestPaletteFrom(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Palette: config.PaletteConfig{
			Colors: map[string]string{"fact": "#111"},
			Blends: []config.BlendConfig{
				{Tags: []string{"issue", "fact"}, Color: "#222"},
			},
			Default: "#333",
		},
	}

	p := paletteFrom(cfg)
	if p.Colors["fact"] != "#111" || p.Default != "#333" {
		t.Errorf("paletteFrom() = %+v", p)
	}
	// Blend tag pairs are unordered.
	if p.Blends[annotpdf.BlendKey("fact", "issue")] != "#222" {
		t.Errorf("paletteFrom() blends = %+v", p.Blends)
	}
}

func TestPageFromFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Page: config.PageConfig{Size: "a4", Margin: 1.5}}
	flags := &cliFlags{pageSize: "legal"}

	ps := pageFrom(flags, cfg)
	if ps.Size != "legal" {
		t.Errorf("Size = %q, want flag value to win", ps.Size)
	}
	if ps.Margin != 1.5 {
		t.Errorf("Margin = %v, want config value kept", ps.Margin)
	}
	if ps.Orientation != annotpdf.OrientationPortrait {
		t.Errorf("Orientation = %q, want default kept", ps.Orientation)
	}
}

func TestFooterFrom(t *testing.T) {
	t.Parallel()

	// Disabled everywhere: no footer at all.
	if f := footerFrom(&cliFlags{}, &config.Config{}); f != nil {
		t.Errorf("footerFrom() = %+v, want nil", f)
	}

	cfg := &config.Config{Footer: config.FooterConfig{
		Enabled:  true,
		Position: "left",
		Text:     "from config",
	}}
	f := footerFrom(&cliFlags{footerText: "from flag", pageNumber: true}, cfg)
	if f == nil {
		t.Fatal("footerFrom() = nil, want footer from config")
	}
	if f.Text != "from flag" || f.Position != "left" || !f.ShowPageNumber {
		t.Errorf("footerFrom() = %+v", f)
	}
}
