package main

import (
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// ErrNoInput means no input path was given.
var ErrNoInput = errors.New("no input file or directory specified")

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	inputs  []string
	output  string
	config  string
	css     string
	timeout time.Duration
	workers int

	pageSize    string
	orientation string
	margin      float64

	footer         bool
	footerText     string
	footerPosition string
	pageNumber     bool

	htmlOnly bool
	verbose  bool
	quiet    bool
	version  bool
}

// parseFlags parses command-line arguments (without the program name).
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("annotpdf", flag.ContinueOnError)

	fs.StringVarP(&f.output, "out", "o", "", "output file or directory (default: next to source)")
	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.StringVar(&f.css, "css", "", "custom CSS file to append")
	fs.DurationVar(&f.timeout, "timeout", 0, "PDF compilation timeout (default 30s)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel exports (default: CPU-based)")

	fs.StringVar(&f.pageSize, "page-size", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches")

	fs.BoolVar(&f.footer, "footer", false, "enable page footer")
	fs.StringVar(&f.footerText, "footer-text", "", "footer free-form text")
	fs.StringVar(&f.footerPosition, "footer-position", "", "footer position: left, center, right")
	fs.BoolVar(&f.pageNumber, "page-number", false, "show page numbers in footer")

	fs.BoolVar(&f.htmlOnly, "html", false, "emit reconstructed HTML instead of PDF")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose progress output")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress non-error output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.inputs = fs.Args()
	if f.verbose && f.quiet {
		return nil, fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	if !f.version && len(f.inputs) == 0 {
		return nil, fmt.Errorf("%w\nusage: annotpdf [flags] <file-or-dir>...", ErrNoInput)
	}
	return f, nil
}
