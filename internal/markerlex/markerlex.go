// Package markerlex recovers annotation marker tokens from external
// converter output.
//
// The converter is annotation-unaware: it re-escapes text and splits runs at
// style boundaries, so a marker sentinel that went in as one literal string
// can come out interrupted by inline tags, character entities, or reflow
// whitespace. The lexer looks through a closed set of such noise productions
// while matching a sentinel and hands the stitched payload to a participle
// grammar.
//
// Noise policy: inside a marker candidate, inline-level tags
// (em, strong, span, i, b, u, s, small, sub, sup, code, a, mark, br),
// character entities (&...;), and whitespace runs are transparent. Anything
// else aborts the candidate. A candidate that consumed the complete sentinel
// prefix but cannot reach a terminator is a corrupted marker, the package's
// only hard failure; everything else degrades to plain text. The prefix is
// reserved vocabulary: source documents must not contain it as a literal
// word.
package markerlex

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/alnah/go-annotpdf/internal/marker"
)

// ErrCorruptedMarker means the converter produced output the lexer cannot
// confidently parse. The error carries a context window for diagnosis.
var ErrCorruptedMarker = errors.New("corrupted annotation marker")

// contextWindow is the number of runes reported on each side of a
// corruption site.
const contextWindow = 40

// Item is one lexed token: either a recovered marker or a best-effort run
// of converter output text (tags and entities included, uninterpreted).
type Item struct {
	Marker *marker.Token
	Text   string
}

// IsMarker reports whether the item is a recovered marker token.
func (it Item) IsMarker() bool { return it.Marker != nil }

// noiseTags is the closed set of inline-level elements the converter is
// known to insert mid-text. Block-level tags are intentionally absent: a
// marker split across a block boundary is corruption, not noise.
var noiseTags = map[string]bool{
	"em": true, "strong": true, "span": true, "i": true, "b": true,
	"u": true, "s": true, "small": true, "sub": true, "sup": true,
	"code": true, "a": true, "mark": true, "br": true,
}

// Marker payload grammar: the kind letter selects the production, hex
// runs carry the id/tag payloads.
// Kind and separator letters are outside the hex alphabet so lexing is
// unambiguous.
type markerExpr struct {
	Start *startExpr `  "s" @@`
	End   *endExpr   `| "k" @@`
	Ann   *annExpr   `| "m" @@`
}

type startExpr struct {
	ID  string `@Hex`
	Tag string `"t" @Hex "z"`
}

type endExpr struct {
	ID string `@Hex "z"`
}

type annExpr struct {
	ID    string `@Hex`
	Index string `"n" @Hex "z"`
}

var payloadLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Hex", Pattern: `[0-9a-f]+`},
	{Name: "Punct", Pattern: `[skmtnz]`},
})

var payloadParser = participle.MustBuild[markerExpr](
	participle.Lexer(payloadLexer),
)

// ParseStitched parses a stitched marker payload (kind letter through
// terminator, noise already removed) into a marker token.
func ParseStitched(payload string) (marker.Token, error) {
	expr, err := payloadParser.ParseString("", payload)
	if err != nil {
		return marker.Token{}, fmt.Errorf("parsing marker payload %q: %w", payload, err)
	}

	switch {
	case expr.Start != nil:
		id, err := marker.DecodePayload(expr.Start.ID)
		if err != nil {
			return marker.Token{}, err
		}
		tag, err := marker.DecodePayload(expr.Start.Tag)
		if err != nil {
			return marker.Token{}, err
		}
		return marker.Token{Kind: marker.Start, HighlightID: id, Tag: tag}, nil
	case expr.End != nil:
		id, err := marker.DecodePayload(expr.End.ID)
		if err != nil {
			return marker.Token{}, err
		}
		return marker.Token{Kind: marker.End, HighlightID: id}, nil
	case expr.Ann != nil:
		id, err := marker.DecodePayload(expr.Ann.ID)
		if err != nil {
			return marker.Token{}, err
		}
		idx, err := strconv.Atoi(expr.Ann.Index)
		if err != nil {
			return marker.Token{}, fmt.Errorf("parsing comment index %q: %w", expr.Ann.Index, err)
		}
		return marker.Token{Kind: marker.Annotation, HighlightID: id, CommentIndex: idx}, nil
	}
	return marker.Token{}, fmt.Errorf("parsing marker payload %q: empty production", payload)
}

// Lex tokenizes converter output into marker and text items. Text items keep
// the converted output verbatim; marker sentinels are recovered even when
// split by noise productions.
func Lex(converted string) ([]Item, error) {
	rs := []rune(converted)
	var items []Item
	var text []rune

	flush := func() {
		if len(text) > 0 {
			items = append(items, Item{Text: string(text)})
			text = text[:0]
		}
	}

	i := 0
	for i < len(rs) {
		if rs[i] == rune(marker.Prefix[0]) {
			tok, next, err := matchMarker(rs, i)
			if err != nil {
				return nil, err
			}
			if tok != nil {
				flush()
				items = append(items, Item{Marker: tok})
				i = next
				continue
			}
		}
		text = append(text, rs[i])
		i++
	}
	flush()
	return items, nil
}

// matchMarker attempts to match a marker sentinel at start. It returns
// (nil, 0, nil) when the text is not a marker at all, and an error only
// when a complete prefix was consumed but the sentinel cannot be finished.
func matchMarker(rs []rune, start int) (*marker.Token, int, error) {
	j := start
	for pi, want := range marker.Prefix {
		if pi > 0 {
			j = skipNoise(rs, j)
		}
		if j >= len(rs) || rs[j] != want {
			return nil, 0, nil
		}
		j++
	}

	// Full prefix consumed: from here on, failure is corruption.
	var payload []rune
	for {
		j = skipNoise(rs, j)
		if j >= len(rs) {
			return nil, 0, corruptErr(rs, start, "unterminated marker")
		}
		r := rs[j]
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f',
			r == 's', r == 'k', r == 'm', r == 't', r == 'n':
			payload = append(payload, r)
			j++
		case r == marker.Terminator:
			payload = append(payload, r)
			j++
			tok, err := ParseStitched(string(payload))
			if err != nil {
				return nil, 0, corruptErr(rs, start, err.Error())
			}
			return &tok, j, nil
		default:
			return nil, 0, corruptErr(rs, j, fmt.Sprintf("unexpected %q inside marker", r))
		}
	}
}

// skipNoise advances past any run of noise productions starting at j:
// whitespace, known inline tags, and character entities. Returns j unchanged
// when rs[j] is not noise.
func skipNoise(rs []rune, j int) int {
	for j < len(rs) {
		switch {
		case unicode.IsSpace(rs[j]):
			j++
		case rs[j] == '<':
			next, ok := skipInlineTag(rs, j)
			if !ok {
				return j
			}
			j = next
		case rs[j] == '&':
			next, ok := skipEntity(rs, j)
			if !ok {
				return j
			}
			j = next
		default:
			return j
		}
	}
	return j
}

// skipInlineTag matches an opening, closing, or self-closing tag whose name
// is in the noise set. Returns ok=false when the text at j is not such a tag.
func skipInlineTag(rs []rune, j int) (int, bool) {
	k := j + 1
	if k < len(rs) && rs[k] == '/' {
		k++
	}
	nameStart := k
	for k < len(rs) && rs[k] >= 'a' && rs[k] <= 'z' {
		k++
	}
	if k == nameStart || !noiseTags[string(rs[nameStart:k])] {
		return j, false
	}
	for k < len(rs) && rs[k] != '>' {
		if rs[k] == '<' {
			return j, false
		}
		k++
	}
	if k >= len(rs) {
		return j, false
	}
	return k + 1, true
}

// skipEntity matches a character entity like &amp; or &#8203;.
func skipEntity(rs []rune, j int) (int, bool) {
	k := j + 1
	for k < len(rs) && k-j <= 12 {
		r := rs[k]
		if r == ';' {
			if k == j+1 {
				return j, false
			}
			return k + 1, true
		}
		if r != '#' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return j, false
		}
		k++
	}
	return j, false
}

// corruptErr builds an ErrCorruptedMarker with a context window around pos.
func corruptErr(rs []rune, pos int, detail string) error {
	lo := max(pos-contextWindow, 0)
	hi := min(pos+contextWindow, len(rs))
	return fmt.Errorf("%w at rune %d: %s: context %q",
		ErrCorruptedMarker, pos, detail, string(rs[lo:hi]))
}
