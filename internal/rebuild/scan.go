package rebuild

import (
	"fmt"
	"unicode"

	"golang.org/x/net/html"

	"github.com/alnah/go-annotpdf/internal/marker"
	"github.com/alnah/go-annotpdf/internal/markerlex"
)

// docText is the document-order sequence of text nodes, viewed as one
// virtual rune stream. Tag boundaries vanish in the virtual stream, which
// is exactly what reunites marker sentinels the converter split across
// inline elements.
type docText struct {
	nodes   []*html.Node
	content [][]rune
	starts  []int // virtual-stream offset of each node's first rune
	total   int
}

// collectTexts gathers text nodes in document order. Script and style
// subtrees are skipped; markers cannot occur there.
func collectTexts(doc *html.Node) *docText {
	d := &docText{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			rs := []rune(n.Data)
			d.nodes = append(d.nodes, n)
			d.content = append(d.content, rs)
			d.starts = append(d.starts, d.total)
			d.total += len(rs)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return d
}

func (d *docText) runeAt(g int) rune {
	// Binary search is not worth it; scans are sequential in practice.
	for i := len(d.starts) - 1; i >= 0; i-- {
		if g >= d.starts[i] {
			return d.content[i][g-d.starts[i]]
		}
	}
	panic("rebuild: virtual offset out of range")
}

func (d *docText) window(g, radius int) string {
	lo := max(g-radius, 0)
	hi := min(g+radius, d.total)
	var rs []rune
	for i, c := range d.content {
		for j := range c {
			v := d.starts[i] + j
			if v >= lo && v < hi {
				rs = append(rs, c[j])
			}
		}
	}
	return string(rs)
}

// occurrence is one marker sentinel found in the virtual stream, covering
// virtual runes [g0, g1). The covered range includes any reflow whitespace
// the converter inserted inside the sentinel; all of it is excised.
type occurrence struct {
	tok    marker.Token
	g0, g1 int
}

// scanOccurrences finds every marker sentinel in the virtual stream. The
// HTML parser has already decoded entities and dissolved inline tags into
// node boundaries, so the only in-stream noise left is whitespace.
func scanOccurrences(d *docText) ([]occurrence, error) {
	var occs []occurrence
	g := 0
	for g < d.total {
		if d.runeAt(g) != rune(marker.Prefix[0]) {
			g++
			continue
		}
		tok, end, ok, err := matchVirtual(d, g)
		if err != nil {
			return nil, err
		}
		if !ok {
			g++
			continue
		}
		occs = append(occs, occurrence{tok: *tok, g0: g, g1: end})
		g = end
	}
	return occs, nil
}

// matchVirtual matches a sentinel at virtual offset start, looking through
// whitespace. Mirrors the lexer's matcher, but over decoded tree text.
func matchVirtual(d *docText, start int) (*marker.Token, int, bool, error) {
	j := start
	skipSpace := func() {
		for j < d.total && unicode.IsSpace(d.runeAt(j)) {
			j++
		}
	}

	for pi, want := range marker.Prefix {
		if pi > 0 {
			skipSpace()
		}
		if j >= d.total || d.runeAt(j) != want {
			return nil, 0, false, nil
		}
		j++
	}

	var payload []rune
	for {
		skipSpace()
		if j >= d.total {
			return nil, 0, false, fmt.Errorf("%w: unterminated marker in tree near %q",
				ErrStreamMismatch, d.window(start, 40))
		}
		r := d.runeAt(j)
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f',
			r == 's', r == 'k', r == 'm', r == 't', r == 'n':
			payload = append(payload, r)
			j++
		case r == marker.Terminator:
			payload = append(payload, r)
			j++
			tok, err := markerlex.ParseStitched(string(payload))
			if err != nil {
				return nil, 0, false, fmt.Errorf("%w: %v", ErrStreamMismatch, err)
			}
			return &tok, j, true, nil
		default:
			return nil, 0, false, fmt.Errorf("%w: %q inside marker near %q",
				ErrStreamMismatch, r, d.window(j, 40))
		}
	}
}

// evPoint is a marker event positioned between final text nodes: the event
// sits immediately before finalTexts[pos].
type evPoint struct {
	tok marker.Token
	pos int
}

// exciseAndSplit removes marker runes from the tree and splits text nodes
// at every event boundary, so that afterwards each final text node lies
// wholly inside or wholly outside every highlight. Returns the final text
// nodes in document order and the marker events positioned between them.
func exciseAndSplit(d *docText, occs []occurrence) ([]*html.Node, []evPoint) {
	deleted := make([]bool, d.total)
	for _, occ := range occs {
		for g := occ.g0; g < occ.g1; g++ {
			deleted[g] = true
		}
	}

	var finalTexts []*html.Node
	var events []evPoint
	occIdx := 0

	for n, orig := range d.nodes {
		gStart := d.starts[n]
		content := d.content[n]

		// Fast path: untouched node.
		if occIdx >= len(occs) || occs[occIdx].g0 >= gStart+len(content) {
			touched := false
			for g := gStart; g < gStart+len(content); g++ {
				if deleted[g] {
					touched = true
					break
				}
			}
			if !touched {
				finalTexts = append(finalTexts, orig)
				continue
			}
		}

		parent := orig.Parent
		var cur []rune
		flush := func() {
			if len(cur) == 0 {
				return
			}
			seg := &html.Node{Type: html.TextNode, Data: string(cur)}
			parent.InsertBefore(seg, orig)
			finalTexts = append(finalTexts, seg)
			cur = nil
		}

		for i := 0; i <= len(content); i++ {
			for occIdx < len(occs) && occs[occIdx].g0 == gStart+i {
				flush()
				events = append(events, evPoint{tok: occs[occIdx].tok, pos: len(finalTexts)})
				occIdx++
			}
			if i < len(content) && !deleted[gStart+i] {
				cur = append(cur, content[i])
			}
		}
		flush()
		parent.RemoveChild(orig)
	}

	return finalTexts, events
}
