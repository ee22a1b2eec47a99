package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	annotpdf "github.com/alnah/go-annotpdf"
	"github.com/alnah/go-annotpdf/internal/config"
	"github.com/alnah/go-annotpdf/internal/hints"
)

// Sentinel errors for export I/O.
var (
	ErrReadSource = errors.New("failed to read source file")
	ErrReadCSS    = errors.New("failed to read CSS file")
	ErrWriteOut   = errors.New("failed to write output")
)

// run executes the full CLI flow: config, discovery, parallel export.
func run(flags *cliFlags, poolSize int) error {
	cfg, err := resolveConfig(flags)
	if err != nil {
		return err
	}

	css := ""
	if flags.css != "" {
		data, err := os.ReadFile(flags.css) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		css = string(data)
	}

	htmlOnly := flags.htmlOnly || cfg.Output.HTMLOnly
	outDir := flags.output
	if outDir == "" {
		outDir = cfg.Output.DefaultDir
	}

	jobs, err := discoverJobs(flags.inputs, outDir, htmlOnly)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no Markdown files found", ErrNoInput)
	}

	opts := []annotpdf.Option{annotpdf.WithPalette(paletteFrom(cfg))}
	if flags.timeout > 0 {
		opts = append(opts, annotpdf.WithTimeout(flags.timeout))
	}
	pool := annotpdf.NewServicePool(poolSize, opts...)
	defer pool.Close()

	input := annotpdf.Input{
		CSS:      css,
		Page:     pageFrom(flags, cfg),
		Footer:   footerFrom(flags, cfg),
		HTMLOnly: htmlOnly,
	}

	return exportAll(jobs, pool, input, flags)
}

// exportAll fans jobs out over the pool and aggregates per-file errors.
func exportAll(jobs []exportJob, pool *annotpdf.ServicePool, base annotpdf.Input, flags *cliFlags) error {
	var wg sync.WaitGroup
	errs := make([]error, len(jobs))
	sem := make(chan struct{}, pool.Size())

	for i, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, job exportJob) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = exportOne(job, pool, base, flags)
		}(i, job)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", jobs[i].InputPath, err))
		}
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	if !flags.quiet {
		fmt.Fprintf(os.Stderr, "Exported %d document(s)\n", len(jobs))
	}
	return nil
}

// exportOne runs a single document through the pipeline and writes output.
func exportOne(job exportJob, pool *annotpdf.ServicePool, base annotpdf.Input, flags *cliFlags) error {
	source, err := os.ReadFile(job.InputPath) // #nosec G304 -- discovered from user input
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}

	highlights, comments, err := loadSidecar(job.InputPath)
	if err != nil {
		return err
	}
	if flags.verbose {
		fmt.Fprintln(os.Stderr, annotationSummary(job.InputPath, len(highlights), len(comments)))
	}

	input := base
	input.Source = string(source)
	input.Highlights = highlights
	input.Comments = comments

	svc := pool.Acquire()
	defer pool.Release(svc)

	ctx := context.Background()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout+30*time.Second)
		defer cancel()
	}

	result, err := svc.Export(ctx, input)
	if err != nil {
		return decorateError(err)
	}

	for _, w := range result.Warnings {
		if !flags.quiet {
			fmt.Fprintf(os.Stderr, "%s: warning: %s (highlight %s): %s\n",
				job.InputPath, w.Code, w.HighlightID, w.Detail)
		}
	}

	out := result.PDF
	if input.HTMLOnly {
		out = []byte(result.HTML)
	}
	if dir := filepath.Dir(job.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOut, err)
		}
	}
	if err := os.WriteFile(job.OutputPath, out, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOut, err)
	}
	if flags.verbose {
		fmt.Fprintf(os.Stderr, "%s → %s\n", job.InputPath, job.OutputPath)
	}
	return nil
}

// annotationSummary renders the verbose per-document annotation line. A
// document with no annotations at all usually means a missing or misnamed
// sidecar, so the line carries the naming convention.
func annotationSummary(path string, nHighlights, nComments int) string {
	s := fmt.Sprintf("%s: %d highlights, %d comments", path, nHighlights, nComments)
	if nHighlights == 0 && nComments == 0 {
		s += hints.ForSidecarNotFound()
	}
	return s
}

// decorateError appends operational hints to well-known failures.
func decorateError(err error) error {
	switch {
	case errors.Is(err, annotpdf.ErrBrowserConnect):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
	case errors.Is(err, annotpdf.ErrConversionTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, annotpdf.ErrCorruptedMarker):
		return fmt.Errorf("%w%s", err, hints.ForCorruptedMarker())
	}
	return err
}

// resolveConfig loads the named config, or the default config when no name
// is given and no annotpdf.yaml is discoverable.
func resolveConfig(flags *cliFlags) (*config.Config, error) {
	if flags.config != "" {
		cfg, err := config.Load(flags.config)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(flags.config)))
			}
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.Load("annotpdf")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// paletteFrom converts config palette tables to the library type.
func paletteFrom(cfg *config.Config) annotpdf.Palette {
	p := annotpdf.Palette{
		Colors:  cfg.Palette.Colors,
		Blends:  map[string]string{},
		Default: cfg.Palette.Default,
	}
	for _, b := range cfg.Palette.Blends {
		p.Blends[annotpdf.BlendKey(b.Tags[0], b.Tags[1])] = b.Color
	}
	return p
}

// pageFrom merges page settings: flags override config, config overrides
// defaults.
func pageFrom(flags *cliFlags, cfg *config.Config) *annotpdf.PageSettings {
	ps := annotpdf.DefaultPageSettings()
	if cfg.Page.Size != "" {
		ps.Size = cfg.Page.Size
	}
	if cfg.Page.Orientation != "" {
		ps.Orientation = cfg.Page.Orientation
	}
	if cfg.Page.Margin > 0 {
		ps.Margin = cfg.Page.Margin
	}
	if flags.pageSize != "" {
		ps.Size = flags.pageSize
	}
	if flags.orientation != "" {
		ps.Orientation = flags.orientation
	}
	if flags.margin > 0 {
		ps.Margin = flags.margin
	}
	return ps
}

// footerFrom merges footer settings; nil when the footer is disabled.
func footerFrom(flags *cliFlags, cfg *config.Config) *annotpdf.Footer {
	if !flags.footer && !cfg.Footer.Enabled {
		return nil
	}
	f := &annotpdf.Footer{
		Position:       cfg.Footer.Position,
		ShowPageNumber: cfg.Footer.ShowPageNumber,
		Date:           cfg.Footer.Date,
		Status:         cfg.Footer.Status,
		Text:           cfg.Footer.Text,
	}
	if flags.footerPosition != "" {
		f.Position = flags.footerPosition
	}
	if flags.footerText != "" {
		f.Text = flags.footerText
	}
	if flags.pageNumber {
		f.ShowPageNumber = true
	}
	return f
}
