package rebuild

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/alnah/go-annotpdf/internal/marker"
)

// checkLeaks walks the rewritten tree and fails if any marker prefix
// survives in text, even split across node boundaries or whitespace.
// Standing regression invariant: the output contains zero marker tokens.
func checkLeaks(doc *html.Node) error {
	d := collectTexts(doc)
	g := 0
	for g < d.total {
		if d.runeAt(g) != rune(marker.Prefix[0]) {
			g++
			continue
		}
		if leakAt(d, g) {
			return fmt.Errorf("%w: near %q", ErrLeakedMarker, d.window(g, 40))
		}
		g++
	}
	return nil
}

// leakAt reports whether the full marker prefix occurs at virtual offset g,
// looking through whitespace the same way the scanner does.
func leakAt(d *docText, g int) bool {
	j := g
	for pi, want := range marker.Prefix {
		if pi > 0 {
			for j < d.total && unicode.IsSpace(d.runeAt(j)) {
				j++
			}
		}
		if j >= d.total || d.runeAt(j) != want {
			return false
		}
		j++
	}
	return true
}

// ExtractHighlightText returns the concatenated text covered by the
// highlight's constructs, in document order. Used to verify offset
// fidelity: the result must equal the original source slice.
func ExtractHighlightText(doc *html.Node, id string) string {
	var out strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && carriesID(n, id) {
			out.WriteString(textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out.String()
}

// carriesID reports whether the construct's data-hl list contains id.
func carriesID(n *html.Node, id string) bool {
	for _, a := range n.Attr {
		if a.Key != "data-hl" {
			continue
		}
		for _, v := range strings.Fields(a.Val) {
			if v == id {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var out strings.Builder
	var walk func(m *html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			out.WriteString(m.Data)
			return
		}
		// Comment anchors are constructs, not document text.
		if m.Type == html.ElementNode && m.Data == "sup" && hasClass(m, "cmt-ref") {
			return
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, v := range strings.Fields(a.Val) {
				if v == class {
					return true
				}
			}
		}
	}
	return false
}
