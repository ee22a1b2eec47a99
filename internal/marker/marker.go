// Package marker defines the annotation marker model and the injector that
// splices marker sentinels into source text before external conversion.
//
// A marker is a literal, lowercase-alphanumeric sentinel the external
// converter treats as inert text. The id and tag payloads are hex-encoded so
// the whole sentinel stays inside [a-z0-9] and cannot collide with Markdown
// or HTML syntax:
//
//	highlight start  xqam s <hex id> t <hex tag> z
//	highlight end    xqam k <hex id> z
//	comment anchor   xqam m <hex id> n <index> z
//
// The kind and separator letters (s, k, m, t, n, z) are disjoint from the
// hex alphabet, so a sentinel parses unambiguously even after the converter
// has reflowed it.
package marker

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// Prefix starts every marker sentinel. The output document must never
// contain it once reconstruction has finished.
const Prefix = "xqam"

// Kind letters and separators inside a sentinel.
const (
	kindStart      = 's'
	kindEnd        = 'k'
	kindAnnotation = 'm'
	sepTag         = 't'
	sepIndex       = 'n'
	// Terminator closes every sentinel.
	Terminator = 'z'
)

// Highlight is a tagged character span over the source text.
// Start and End are codepoint offsets (not bytes, not grapheme clusters);
// End is exclusive and must be greater than Start.
type Highlight struct {
	ID     string
	Start  int
	End    int
	Tag    string
	Author string
	// Text is the denormalised source slice, used for verification only.
	// Empty means "do not verify".
	Text string
}

// Comment is a threaded note attached to a highlight. Comments for one
// highlight keep their creation order.
type Comment struct {
	HighlightID string
	Author      string
	Text        string
}

// TokenKind discriminates marker tokens.
type TokenKind int

const (
	// Start opens a highlight span.
	Start TokenKind = iota
	// End closes a highlight span.
	End
	// Annotation anchors one comment to a highlight.
	Annotation
)

// String returns the kind name for diagnostics.
func (k TokenKind) String() string {
	switch k {
	case Start:
		return "start"
	case End:
		return "end"
	case Annotation:
		return "annotation"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one marker in document order.
type Token struct {
	Kind         TokenKind
	HighlightID  string
	Tag          string // Start only
	CommentIndex int    // Annotation only
}

// Literal renders the token as the sentinel string spliced into the text.
func (t Token) Literal() string {
	id := hex.EncodeToString([]byte(t.HighlightID))
	switch t.Kind {
	case Start:
		tag := hex.EncodeToString([]byte(t.Tag))
		return Prefix + string(kindStart) + id + string(sepTag) + tag + string(Terminator)
	case End:
		return Prefix + string(kindEnd) + id + string(Terminator)
	case Annotation:
		return Prefix + string(kindAnnotation) + id + string(sepIndex) +
			strconv.Itoa(t.CommentIndex) + string(Terminator)
	}
	return ""
}

// DecodePayload reverses the hex encoding of an id or tag payload.
func DecodePayload(h string) (string, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("decoding marker payload %q: %w", h, err)
	}
	return string(b), nil
}
