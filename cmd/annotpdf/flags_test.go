package main

import (
	"errors"
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{
		"-o", "out",
		"--config", "review",
		"--timeout", "90s",
		"-w", "4",
		"--page-size", "a4",
		"--orientation", "landscape",
		"--margin", "1.0",
		"--footer",
		"--footer-text", "draft",
		"--footer-position", "center",
		"--page-number",
		"--html",
		"-v",
		"doc.md", "notes/",
	})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if flags.output != "out" || flags.config != "review" {
		t.Errorf("output/config = %q/%q", flags.output, flags.config)
	}
	if flags.timeout != 90*time.Second || flags.workers != 4 {
		t.Errorf("timeout/workers = %v/%d", flags.timeout, flags.workers)
	}
	if flags.pageSize != "a4" || flags.orientation != "landscape" || flags.margin != 1.0 {
		t.Errorf("page flags = %q/%q/%v", flags.pageSize, flags.orientation, flags.margin)
	}
	if !flags.footer || flags.footerText != "draft" || flags.footerPosition != "center" || !flags.pageNumber {
		t.Errorf("footer flags = %+v", flags)
	}
	if !flags.htmlOnly || !flags.verbose {
		t.Errorf("htmlOnly/verbose = %v/%v", flags.htmlOnly, flags.verbose)
	}
	if len(flags.inputs) != 2 || flags.inputs[0] != "doc.md" {
		t.Errorf("inputs = %v", flags.inputs)
	}
}

func TestParseFlagsNoInput(t *testing.T) {
	t.Parallel()

	_, err := parseFlags([]string{"-v"})
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("parseFlags() error = %v, want ErrNoInput", err)
	}
}

func TestParseFlagsVersionNeedsNoInput(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"--version"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if !flags.version {
		t.Error("version flag not set")
	}
}

func TestParseFlagsVerboseQuietConflict(t *testing.T) {
	t.Parallel()

	if _, err := parseFlags([]string{"-v", "-q", "doc.md"}); err == nil {
		t.Error("parseFlags() accepted --verbose with --quiet")
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	t.Parallel()

	if _, err := parseFlags([]string{"--bogus", "doc.md"}); err == nil {
		t.Error("parseFlags() accepted unknown flag")
	}
}
