package rebuild

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-annotpdf/internal/marker"
)

// blockTags are structural elements a highlight construct cannot wrap
// across. A highlight spanning several of them splits into one construct
// per block.
var blockTags = map[string]bool{
	"p": true, "li": true, "ul": true, "ol": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "td": true, "th": true, "tr": true, "table": true,
	"div": true, "section": true, "body": true,
}

// openHL is one highlight currently open during the document-order sweep,
// in opening order (first opened = outermost).
type openHL struct {
	id  string
	tag string
}

// anchorReq is a comment anchor waiting for its highlight's constructs.
type anchorReq struct {
	id    string
	index int
	pos   int
}

// wrap performs the sweep and rewrite: computes each final text node's
// coverage, wraps it per the overlap-depth policy, merges adjacent
// identical constructs, attaches comment anchors, and emits warnings.
func (r *Reconstructor) wrap(doc *html.Node, finalTexts []*html.Node, events []evPoint) ([]Warning, error) {
	var warnings []Warning

	// Sweep: coverage per text node, anchors, balance check.
	coverage := make([][]openHL, len(finalTexts))
	var open []openHL
	var anchors []anchorReq
	tags := map[string]string{}
	evIdx := 0
	for i := 0; i <= len(finalTexts); i++ {
		for evIdx < len(events) && events[evIdx].pos == i {
			tok := events[evIdx].tok
			switch tok.Kind {
			case marker.Start:
				for _, o := range open {
					if o.id == tok.HighlightID {
						return nil, fmt.Errorf("%w: highlight %s started twice",
							ErrUnmatchedMarker, tok.HighlightID)
					}
				}
				open = append(open, openHL{id: tok.HighlightID, tag: tok.Tag})
				tags[tok.HighlightID] = tok.Tag
			case marker.End:
				found := false
				for k, o := range open {
					if o.id == tok.HighlightID {
						open = append(open[:k], open[k+1:]...)
						found = true
						break
					}
				}
				if !found {
					return nil, fmt.Errorf("%w: highlight %s ended without start",
						ErrUnmatchedMarker, tok.HighlightID)
				}
			case marker.Annotation:
				anchors = append(anchors, anchorReq{
					id:    tok.HighlightID,
					index: tok.CommentIndex,
					pos:   i,
				})
			}
			evIdx++
		}
		if i < len(finalTexts) {
			coverage[i] = append([]openHL(nil), open...)
		}
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("%w: highlight %s never ended",
			ErrUnmatchedMarker, open[0].id)
	}

	// Rewrite: wrap each covered text node; remember the outermost wrapper
	// per highlight for anchoring and split detection.
	segsByID := map[string][]*html.Node{}
	blendWarned := map[string]bool{}
	for i, tn := range finalTexts {
		cov := coverage[i]
		if len(cov) == 0 || interBlockSpace(tn) {
			continue
		}
		var outer *html.Node
		switch {
		case len(cov) >= overlapLimit:
			outer = r.overlapNode(cov)
			outer.AppendChild(detach(tn, outer))
		case len(cov) == 1:
			outer = r.markNode(cov[0], r.palette.colorFor(cov[0].tag), "hl")
			outer.AppendChild(detach(tn, outer))
		default: // exactly 2: both nest, inner blended
			key := BlendKey(cov[0].tag, cov[1].tag)
			blend, ok := r.palette.Blends[key]
			if !ok {
				blend = fallbackBlend
				if !blendWarned[key] {
					blendWarned[key] = true
					warnings = append(warnings, Warning{
						Code:        WarnBlendFallback,
						HighlightID: cov[1].id,
						Detail:      fmt.Sprintf("no blend colour for %s", key),
					})
				}
			}
			outer = r.markNode(cov[0], r.palette.colorFor(cov[0].tag), "hl")
			inner := r.markNode(cov[1], blend, "hl hl-blend")
			outer.AppendChild(inner)
			inner.AppendChild(detach(tn, outer))
		}
		for _, o := range cov {
			segsByID[o.id] = append(segsByID[o.id], outer)
		}
	}

	replaced := mergeAdjacent(doc)
	for id, segs := range segsByID {
		segsByID[id] = resolveSegs(segs, replaced)
	}

	// Structural-split warnings: a highlight whose constructs sit under
	// more than one block was split at block boundaries.
	splitIDs := map[string]bool{}
	for id, segs := range segsByID {
		blocks := map[*html.Node]bool{}
		for _, seg := range segs {
			blocks[blockOf(seg)] = true
		}
		if len(blocks) > 1 {
			splitIDs[id] = true
			warnings = append(warnings, Warning{
				Code:        WarnStructuralSplit,
				HighlightID: id,
				Detail: fmt.Sprintf("highlight %q split across %d blocks",
					tags[id], len(blocks)),
			})
		}
	}

	// Comment anchors attach after the owning highlight's last construct.
	// Later anchors for the same highlight chain after earlier ones so
	// comment order survives.
	lastAttach := map[string]*html.Node{}
	for _, a := range anchors {
		segs := segsByID[a.id]
		sup := anchorNode(a.id, a.index)
		attach := lastAttach[a.id]
		if attach == nil && len(segs) > 0 {
			attach = segs[len(segs)-1]
		}
		if attach == nil && a.pos > 0 && a.pos <= len(finalTexts) {
			// Highlight wrapped no text at all; fall back to the nearest
			// preceding text position.
			prev := topAncestorBelowBlock(finalTexts[a.pos-1])
			if prev.Parent != nil {
				attach = prev
				warnings = append(warnings, Warning{
					Code:        WarnEmptyHighlight,
					HighlightID: a.id,
					Detail:      "anchor attached to nearest text; highlight covers no text",
				})
			}
		}
		switch {
		case attach != nil:
			attach.Parent.InsertBefore(sup, attach.NextSibling)
			lastAttach[a.id] = sup
			if len(segs) > 0 && splitIDs[a.id] {
				warnings = append(warnings, Warning{
					Code:        WarnAnchorRelocated,
					HighlightID: a.id,
					Detail:      "closing boundary consumed by structural split",
				})
			}
		default:
			if body := findBody(doc); body != nil {
				body.AppendChild(sup)
			}
			warnings = append(warnings, Warning{
				Code:        WarnAnchorRelocated,
				HighlightID: a.id,
				Detail:      "no attachment point; anchor appended to body",
			})
		}
	}

	sortWarnings(warnings)
	return warnings, nil
}

// markNode builds a highlight construct for one open highlight.
func (r *Reconstructor) markNode(o openHL, color, class string) *html.Node {
	return &html.Node{
		Type: html.ElementNode,
		Data: "mark",
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: "data-hl", Val: o.id},
			{Key: "data-tag", Val: o.tag},
			{Key: "style", Val: "background-color: " + color + ";"},
		},
	}
}

// overlapNode builds the many-overlap underline construct. No colour
// stacking: three or more overlapping colours are unreadable.
func (r *Reconstructor) overlapNode(cov []openHL) *html.Node {
	ids := make([]string, len(cov))
	tagNames := make([]string, len(cov))
	for i, o := range cov {
		ids[i] = o.id
		tagNames[i] = o.tag
	}
	return &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{
			{Key: "class", Val: "hl-overlap"},
			{Key: "data-hl", Val: strings.Join(ids, " ")},
			{Key: "data-tags", Val: strings.Join(tagNames, " ")},
		},
	}
}

// anchorNode builds the superscript comment-reference construct. The id is
// hex-encoded in fragment identifiers so arbitrary highlight ids stay valid
// in URLs.
func anchorNode(id string, index int) *html.Node {
	slug := AnchorSlug(id, index)
	a := &html.Node{
		Type: html.ElementNode,
		Data: "a",
		Attr: []html.Attribute{{Key: "href", Val: "#cmt-" + slug}},
	}
	a.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: "[" + strconv.Itoa(index+1) + "]",
	})
	sup := &html.Node{
		Type: html.ElementNode,
		Data: "sup",
		Attr: []html.Attribute{
			{Key: "class", Val: "cmt-ref"},
			{Key: "id", Val: "cmt-ref-" + slug},
		},
	}
	sup.AppendChild(a)
	return sup
}

// AnchorSlug returns the URL-safe fragment slug for a comment anchor.
func AnchorSlug(id string, index int) string {
	return hex.EncodeToString([]byte(id)) + "-" + strconv.Itoa(index)
}

// detach removes tn from its parent and puts repl in its place, returning
// tn ready for re-parenting.
func detach(tn, repl *html.Node) *html.Node {
	parent := tn.Parent
	parent.InsertBefore(repl, tn)
	parent.RemoveChild(tn)
	return tn
}

// mergeAdjacent joins consecutive sibling highlight constructs with
// identical attributes, so a plain paragraph yields one construct per
// block per coverage run. Returns a map from removed nodes to their
// surviving predecessor.
func mergeAdjacent(doc *html.Node) map[*html.Node]*html.Node {
	replaced := map[*html.Node]*html.Node{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			if next != nil && isHLConstruct(c) && sameConstruct(c, next) {
				for gc := next.FirstChild; gc != nil; {
					gnext := gc.NextSibling
					next.RemoveChild(gc)
					c.AppendChild(gc)
					gc = gnext
				}
				n.RemoveChild(next)
				replaced[next] = c
				continue // retry same c against new next sibling
			}
			c = next
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return replaced
}

func isHLConstruct(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" && (strings.HasPrefix(a.Val, "hl") || a.Val == "hl-overlap") {
			return true
		}
	}
	return false
}

func sameConstruct(a, b *html.Node) bool {
	if b.Type != html.ElementNode || a.Data != b.Data || len(a.Attr) != len(b.Attr) {
		return false
	}
	for i := range a.Attr {
		if a.Attr[i] != b.Attr[i] {
			return false
		}
	}
	return true
}

// resolveSegs rewrites merged-away wrappers to their survivors, dropping
// consecutive duplicates.
func resolveSegs(segs []*html.Node, replaced map[*html.Node]*html.Node) []*html.Node {
	out := segs[:0]
	for _, s := range segs {
		for {
			r, ok := replaced[s]
			if !ok {
				break
			}
			s = r
		}
		if len(out) == 0 || out[len(out)-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// interBlockSpace reports whether tn is whitespace-only filler sitting
// between block-level siblings, like the newline a converter emits between
// list items. Such nodes separate structural blocks; they belong to no
// block and take no highlight construct.
func interBlockSpace(tn *html.Node) bool {
	if strings.TrimSpace(tn.Data) != "" {
		return false
	}
	return isBlockNode(tn.PrevSibling) || isBlockNode(tn.NextSibling)
}

func isBlockNode(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockTags[n.Data]
}

// blockOf returns the nearest block-level ancestor of n.
func blockOf(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && blockTags[p.Data] {
			return p
		}
	}
	return nil
}

// topAncestorBelowBlock climbs from n to the highest ancestor that is not
// a block element, so sibling insertion lands at block-child level.
func topAncestorBelowBlock(n *html.Node) *html.Node {
	cur := n
	for cur.Parent != nil {
		p := cur.Parent
		if p.Type == html.ElementNode && blockTags[p.Data] {
			return cur
		}
		cur = p
	}
	return cur
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}
