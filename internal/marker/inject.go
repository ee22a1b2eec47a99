package marker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for injector failures. All of them mean the caller-supplied
// annotation data is malformed; the export aborts before any external call.
var (
	ErrOffsetOutOfRange = errors.New("highlight offset out of range")
	ErrSpanInverted     = errors.New("highlight span inverted or empty")
	ErrUnbalanced       = errors.New("unbalanced highlight set")
	ErrCommentOrphaned  = errors.New("comment references unknown highlight")
	ErrTextMismatch     = errors.New("highlight text does not match source slice")
)

// EscapeFunc escapes a literal text run for the target markup. It is applied
// only to the text between markers, never to the marker sentinels themselves,
// so escaping cannot shift marker positions.
type EscapeFunc func(string) string

// Option configures an injection run.
type Option func(*injector)

// WithEscape applies fn to every literal text run between markers.
func WithEscape(fn EscapeFunc) Option {
	return func(in *injector) {
		in.escape = fn
	}
}

type injector struct {
	escape EscapeFunc
}

// event is one marker insertion point. Ends sort before starts at equal
// offsets so a highlight ending exactly where another begins does not
// spuriously nest; within each class, ascending highlight id keeps fan-out
// deterministic.
type event struct {
	offset int
	class  int // 0 = end (with its annotations), 1 = start
	id     string
	tokens []Token
}

// Inject splices marker sentinels into source at each highlight's codepoint
// offsets and returns the marker-laden text. Annotation markers for a
// highlight's comments land immediately before that highlight's end marker,
// in comment order.
func Inject(source string, highlights []Highlight, comments []Comment, opts ...Option) (string, error) {
	in := &injector{}
	for _, opt := range opts {
		opt(in)
	}

	runes := []rune(source)
	n := len(runes)

	byID := make(map[string]Highlight, len(highlights))
	for _, h := range highlights {
		if h.Start < 0 || h.End > n {
			return "", fmt.Errorf("%w: highlight %s spans [%d,%d) over %d codepoints",
				ErrOffsetOutOfRange, h.ID, h.Start, h.End, n)
		}
		if h.Start >= h.End {
			return "", fmt.Errorf("%w: highlight %s spans [%d,%d)",
				ErrSpanInverted, h.ID, h.Start, h.End)
		}
		if _, dup := byID[h.ID]; dup {
			return "", fmt.Errorf("%w: duplicate highlight id %s", ErrUnbalanced, h.ID)
		}
		if h.Text != "" {
			if got := string(runes[h.Start:h.End]); got != h.Text {
				return "", fmt.Errorf("%w: highlight %s expects %q, source has %q",
					ErrTextMismatch, h.ID, h.Text, got)
			}
		}
		byID[h.ID] = h
	}

	// Comments attach just before the owning highlight's end marker,
	// preserving insertion order per highlight.
	annsFor := make(map[string][]Token)
	for _, c := range comments {
		if _, ok := byID[c.HighlightID]; !ok {
			return "", fmt.Errorf("%w: highlight %s", ErrCommentOrphaned, c.HighlightID)
		}
		annsFor[c.HighlightID] = append(annsFor[c.HighlightID], Token{
			Kind:         Annotation,
			HighlightID:  c.HighlightID,
			CommentIndex: len(annsFor[c.HighlightID]),
		})
	}

	events := make([]event, 0, 2*len(highlights))
	for _, h := range highlights {
		events = append(events, event{
			offset: h.Start,
			class:  1,
			id:     h.ID,
			tokens: []Token{{Kind: Start, HighlightID: h.ID, Tag: h.Tag}},
		})
		end := event{offset: h.End, class: 0, id: h.ID}
		end.tokens = append(end.tokens, annsFor[h.ID]...)
		end.tokens = append(end.tokens, Token{Kind: End, HighlightID: h.ID})
		events = append(events, end)
	}

	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.offset != b.offset {
			return a.offset < b.offset
		}
		if a.class != b.class {
			return a.class < b.class
		}
		return a.id < b.id
	})

	var out strings.Builder
	out.Grow(len(source) + 64*len(events))
	prev := 0
	for _, ev := range events {
		out.WriteString(in.escapeRun(string(runes[prev:ev.offset])))
		for _, tok := range ev.tokens {
			out.WriteString(tok.Literal())
		}
		prev = ev.offset
	}
	out.WriteString(in.escapeRun(string(runes[prev:])))

	return out.String(), nil
}

func (in *injector) escapeRun(s string) string {
	if in.escape == nil {
		return s
	}
	return in.escape(s)
}
