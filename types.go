package annotpdf

import (
	"fmt"
	"strings"
	"time"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// Highlight is a tagged codepoint span over Input.Source. Spans may overlap
// arbitrarily; End is exclusive and must be greater than Start. Highlights
// are immutable inputs to one export run; the pipeline never mutates or
// persists them.
type Highlight struct {
	ID     string
	Start  int
	End    int
	Tag    string
	Author string
	// Text is the denormalised source slice. When non-empty the injector
	// verifies it against the source before exporting.
	Text string
}

// Comment is a note attached to a highlight. Comments for one highlight
// keep their creation order.
type Comment struct {
	HighlightID string
	Author      string
	Text        string
}

// Palette maps highlight tags to CSS colours. Blends maps unordered tag
// pairs (keys built by BlendKey) to the colour of the inner construct when
// exactly two highlights overlap. Both tables are caller configuration; the
// pipeline consumes them, it does not design them.
type Palette struct {
	Colors  map[string]string
	Blends  map[string]string
	Default string
}

// BlendKey builds the canonical blend-table key for a pair of tags.
func BlendKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "+" + b
}

// Warning is a non-fatal reconstruction event, collected and returned
// alongside successful output for observability, never hidden.
type Warning struct {
	Code        string
	HighlightID string
	Detail      string
}

// Input contains export parameters.
type Input struct {
	Source     string      // Markdown source (required); offsets index into it
	Highlights []Highlight // May be empty
	Comments   []Comment
	CSS        string        // Custom CSS (optional)
	Page       *PageSettings // Page settings (optional, nil = defaults)
	Footer     *Footer       // Footer config (optional)
	HTMLOnly   bool          // Skip PDF generation, return HTML only
}

// Result contains export output.
type Result struct {
	PDF      []byte // nil when Input.HTMLOnly
	HTML     string // reconstructed document, marker-free
	Warnings []Warning
}

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}

// Footer configures the PDF footer.
type Footer struct {
	Position       string // "left", "center", "right" (default: "right")
	ShowPageNumber bool
	Date           string
	Status         string
	Text           string
}

// Validate checks that footer settings are valid.
// Returns nil if f is nil (nil means no footer).
func (f *Footer) Validate() error {
	if f == nil {
		return nil
	}
	switch strings.ToLower(f.Position) {
	case "", "left", "center", "right":
		return nil
	default:
		return fmt.Errorf("%w: %q (must be left, center, or right)", ErrInvalidFooterPosition, f.Position)
	}
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout time.Duration
	palette Palette
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the compilation timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("annotpdf: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithPalette sets the tag→colour tables used during reconstruction.
func WithPalette(p Palette) Option {
	return func(s *Service) {
		s.cfg.palette = p
	}
}

// WithConverter substitutes the external converter implementation. The
// default is the in-process goldmark converter; pass the real external tool
// here when exporting through it.
func WithConverter(c Converter) Option {
	return func(s *Service) {
		s.converter = c
	}
}
