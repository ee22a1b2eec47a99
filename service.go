package annotpdf

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/alnah/go-annotpdf/internal/marker"
	"github.com/alnah/go-annotpdf/internal/markerlex"
	"github.com/alnah/go-annotpdf/internal/pipeline"
	"github.com/alnah/go-annotpdf/internal/rebuild"
)

// Converter is the external conversion boundary: one call turning
// marker-laden text into converted markup. The implementation is a black
// box owned by a third party; the pipeline requires only that marker
// sentinels survive as inert text and that structural shape is preserved.
// Implementations are injected, never mocked away internally.
type Converter interface {
	Convert(ctx context.Context, markerLaden string) (string, error)
}

// Compile-time interface implementation checks.
var (
	_ Converter   = (*pipeline.GoldmarkConverter)(nil)
	_ pdfCompiler = (*rodCompiler)(nil)
)

// Service orchestrates the annotation export pipeline. Create with New(),
// export with Export(), and Close() when done. A Service owns one browser
// instance; use ServicePool for parallel exports.
type Service struct {
	cfg       serviceConfig
	converter Converter
	compiler  pdfCompiler
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithPalette).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.converter == nil {
		s.converter = pipeline.NewGoldmarkConverter()
	}
	// Create PDF compiler if not injected (e.g., by tests)
	if s.compiler == nil {
		s.compiler = newRodCompiler(s.cfg.timeout)
	}

	return s
}

// Export runs the full pipeline: inject markers, convert, lex, reconstruct,
// and compile to PDF. The context is used for cancellation and timeout.
// Warnings accompany successful output; errors abort the export.
func (s *Service) Export(ctx context.Context, input Input) (*Result, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	marked, err := marker.Inject(input.Source, toMarkerHighlights(input.Highlights), toMarkerComments(input.Comments))
	if err != nil {
		return nil, fmt.Errorf("injecting markers: %w", err)
	}

	converted, err := s.converter.Convert(ctx, marked)
	if err != nil {
		return nil, fmt.Errorf("converting document: %w", err)
	}

	lexed, err := markerlex.Lex(converted)
	if err != nil {
		return nil, fmt.Errorf("lexing converter output: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(converted))
	if err != nil {
		return nil, fmt.Errorf("parsing converter output: %w", err)
	}

	rec := rebuild.New(rebuild.Palette(s.cfg.palette))
	rwarns, err := rec.Reconstruct(doc, lexed)
	if err != nil {
		return nil, fmt.Errorf("reconstructing annotations: %w", err)
	}

	warnings := make([]Warning, 0, len(rwarns))
	for _, w := range rwarns {
		warnings = append(warnings, Warning{
			Code:        string(w.Code),
			HighlightID: w.HighlightID,
			Detail:      w.Detail,
		})
	}
	warnings = append(warnings, verifySpans(doc, input)...)

	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	htmlContent := buf.String()

	htmlContent = injectComments(htmlContent, input.Comments)

	css := buildHighlightCSS() + buildCommentsCSS() + input.CSS
	htmlContent = injectCSS(htmlContent, css)

	if input.HTMLOnly {
		return &Result{HTML: htmlContent, Warnings: warnings}, nil
	}

	pdfBytes, err := s.compiler.Compile(ctx, htmlContent, &pdfOptions{
		Footer: input.Footer,
		Page:   input.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling PDF: %w", err)
	}

	return &Result{PDF: pdfBytes, HTML: htmlContent, Warnings: warnings}, nil
}

// Close releases resources (headless Chrome browser).
func (s *Service) Close() error {
	if s.compiler != nil {
		return s.compiler.Close()
	}
	return nil
}

// validateInput checks that required fields are present and valid.
func (s *Service) validateInput(input Input) error {
	if input.Source == "" {
		return ErrEmptySource
	}
	if err := input.Page.Validate(); err != nil {
		return err
	}
	if err := input.Footer.Validate(); err != nil {
		return err
	}
	return nil
}

// verifySpans checks offset fidelity: each reconstructed highlight's text,
// extracted from the tree, must match the original source slice. The
// comparison ignores whitespace entirely: structural splits drop the
// inter-block whitespace, so only the non-space runes are stable. A
// mismatch is a warning, not an error: the document is still well-formed,
// but the caller's offsets may be stale.
func verifySpans(doc *html.Node, input Input) []Warning {
	runes := []rune(input.Source)
	var warnings []Warning
	for _, h := range input.Highlights {
		want := stripSpace(string(runes[h.Start:h.End]))
		got := stripSpace(rebuild.ExtractHighlightText(doc, h.ID))
		if got != want {
			warnings = append(warnings, Warning{
				Code:        "span-drift",
				HighlightID: h.ID,
				Detail:      fmt.Sprintf("reconstructed %q, source has %q", got, want),
			})
		}
	}
	return warnings
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func toMarkerHighlights(hs []Highlight) []marker.Highlight {
	out := make([]marker.Highlight, len(hs))
	for i, h := range hs {
		out[i] = marker.Highlight(h)
	}
	return out
}

func toMarkerComments(cs []Comment) []marker.Comment {
	out := make([]marker.Comment, len(cs))
	for i, c := range cs {
		out[i] = marker.Comment(c)
	}
	return out
}
