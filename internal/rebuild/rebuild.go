// Package rebuild rewrites converter output into balanced highlight and
// comment constructs.
//
// The reconstructor walks the converter's HTML tree in document order,
// consuming the lexed marker stream in parallel: marker sentinels are
// located in the tree's text nodes (they may straddle node boundaries and
// carry reflow whitespace), excised, and replaced by properly nested
// constructs between each start/end pair. Overlapping highlights are
// resolved per segment:
//
//   - one open highlight wraps the segment in a single <mark>
//   - two open highlights nest, the inner one with a blended colour
//   - three or more abandon colour composition for a single
//     underline-style overlap construct
//
// Highlights crossing block boundaries (list items, paragraphs) split into
// one construct per block; comment markers become superscript anchors at
// the owning highlight's closing construct. After rewriting, the tree is
// walked once more to assert no marker text survived — a leaked marker is
// always a fatal pipeline bug.
package rebuild

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-annotpdf/internal/marker"
	"github.com/alnah/go-annotpdf/internal/markerlex"
)

// overlapLimit is the overlap depth at which nested colour composition is
// abandoned for the underline construct. Fixed design constant.
const overlapLimit = 3

// fallbackBlend is used when the blend table has no entry for a tag pair.
const fallbackBlend = "#d9d2e9"

// defaultColor is used when the palette has no colour for a tag and no
// default of its own.
const defaultColor = "#ffe89c"

// Sentinel errors for reconstruction failures.
var (
	// ErrLeakedMarker means marker text survived into the rewritten tree.
	// Always fatal; this must never reach the final document.
	ErrLeakedMarker = errors.New("marker token leaked into output")

	// ErrStreamMismatch means the lexed marker stream and the markers found
	// in the tree disagree. Treated as a pipeline bug.
	ErrStreamMismatch = errors.New("lexed marker stream does not match document")

	// ErrUnmatchedMarker means a start marker without an end, or vice versa.
	ErrUnmatchedMarker = errors.New("unmatched highlight marker")
)

// WarningCode classifies reconstruction warnings.
type WarningCode string

// Warning codes. Warnings accompany successful output; they are never
// silently dropped and never escalate to errors.
const (
	WarnAnchorRelocated WarningCode = "anchor-relocated"
	WarnStructuralSplit WarningCode = "structural-split"
	WarnBlendFallback   WarningCode = "blend-fallback"
	WarnEmptyHighlight  WarningCode = "empty-highlight"
)

// Warning reports a non-fatal reconstruction event.
type Warning struct {
	Code        WarningCode
	HighlightID string
	Detail      string
}

// Palette maps highlight tags to CSS colours. Blends keys pairs of tags
// (via BlendKey) to the colour used for the inner construct at overlap
// depth two. Both tables are caller configuration, consumed here.
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

func (p Palette) colorFor(tag string) string {
	if c, ok := p.Colors[tag]; ok {
		return c
	}
	if p.Default != "" {
		return p.Default
	}
	return defaultColor
}

// Reconstructor rewrites converter output trees. Safe for concurrent use;
// it holds only the immutable palette.
type Reconstructor struct {
	palette Palette
}

// New creates a Reconstructor with the given palette.
func New(palette Palette) *Reconstructor {
	return &Reconstructor{palette: palette}
}

// Reconstruct rewrites doc in place, replacing marker sentinels with
// highlight and comment constructs, and returns the collected warnings.
// The lexed stream is the authority on marker identity: markers found in
// the tree must match it one to one, in order.
func (r *Reconstructor) Reconstruct(doc *html.Node, lexed []markerlex.Item) ([]Warning, error) {
	texts := collectTexts(doc)

	occs, err := scanOccurrences(texts)
	if err != nil {
		return nil, err
	}
	if err := verifyStream(occs, lexed); err != nil {
		return nil, err
	}

	finalTexts, events := exciseAndSplit(texts, occs)

	warnings, err := r.wrap(doc, finalTexts, events)
	if err != nil {
		return nil, err
	}

	if err := checkLeaks(doc); err != nil {
		return nil, err
	}
	return warnings, nil
}

// ReconstructHTML parses converted HTML, reconstructs it, and renders the
// rewritten document back to HTML.
func (r *Reconstructor) ReconstructHTML(converted string, lexed []markerlex.Item) (string, []Warning, error) {
	doc, err := html.Parse(strings.NewReader(converted))
	if err != nil {
		return "", nil, fmt.Errorf("parsing converter output: %w", err)
	}
	warnings, err := r.Reconstruct(doc, lexed)
	if err != nil {
		return "", nil, err
	}
	var buf strings.Builder
	if err := html.Render(&buf, doc); err != nil {
		return "", nil, fmt.Errorf("rendering reconstructed document: %w", err)
	}
	return buf.String(), warnings, nil
}

// verifyStream checks the tree's marker occurrences against the lexed
// stream, token by token.
func verifyStream(occs []occurrence, lexed []markerlex.Item) error {
	var markers []marker.Token
	for _, it := range lexed {
		if it.IsMarker() {
			markers = append(markers, *it.Marker)
		}
	}
	if len(markers) != len(occs) {
		return fmt.Errorf("%w: lexer saw %d markers, tree has %d",
			ErrStreamMismatch, len(markers), len(occs))
	}
	for i, occ := range occs {
		if occ.tok != markers[i] {
			return fmt.Errorf("%w: marker %d is %s(%s) in tree, %s(%s) in stream",
				ErrStreamMismatch, i,
				occ.tok.Kind, occ.tok.HighlightID,
				markers[i].Kind, markers[i].HighlightID)
		}
	}
	return nil
}

// sortWarnings orders warnings deterministically for stable output.
func sortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Code != ws[j].Code {
			return ws[i].Code < ws[j].Code
		}
		return ws[i].HighlightID < ws[j].HighlightID
	})
}
