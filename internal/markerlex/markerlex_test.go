package markerlex

import (
	"errors"
	"testing"

	"github.com/alnah/go-annotpdf/internal/marker"
)

func TestLexIntactMarkers(t *testing.T) {
	t.Parallel()

	start := marker.Token{Kind: marker.Start, HighlightID: "h1", Tag: "fact"}
	end := marker.Token{Kind: marker.End, HighlightID: "h1"}
	input := "<p>before " + start.Literal() + "inside" + end.Literal() + " after</p>"

	items, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}

	want := []Item{
		{Text: "<p>before "},
		{Marker: &start},
		{Text: "inside"},
		{Marker: &end},
		{Text: " after</p>"},
	}
	assertItems(t, items, want)
}

func TestLexAnnotationMarker(t *testing.T) {
	t.Parallel()

	ann := marker.Token{Kind: marker.Annotation, HighlightID: "h1", CommentIndex: 3}
	items, err := Lex("x" + ann.Literal() + "y")
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}
	want := []Item{{Text: "x"}, {Marker: &ann}, {Text: "y"}}
	assertItems(t, items, want)
}

func TestLexStitchesSplitMarkers(t *testing.T) {
	t.Parallel()

	start := marker.Token{Kind: marker.Start, HighlightID: "h1", Tag: "fact"}
	end := marker.Token{Kind: marker.End, HighlightID: "h1"}

	tests := []struct {
		name  string
		input string
		want  marker.Token
	}{
		{
			name:  "inline tag inside prefix",
			input: "xq<em>am</em>s6831t66616374z",
			want:  start,
		},
		{
			name:  "inline tag inside payload",
			input: "xqams68<strong>31</strong>t66616374z",
			want:  start,
		},
		{
			name:  "closing tag then reopening",
			input: "xqamk68</em>31<em>z",
			want:  end,
		},
		{
			name:  "entity noise",
			input: "xqam&#8203;k6831z",
			want:  end,
		},
		{
			name:  "reflow whitespace",
			input: "xqa\nm k6831\tz",
			want:  end,
		},
		{
			name:  "self closing br",
			input: "xqam<br/>k6831z",
			want:  end,
		},
		{
			name:  "anchor with attributes",
			input: `xqam<a href="#x">k6831</a>z`,
			want:  end,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error = %v", tt.input, err)
			}
			var toks []marker.Token
			for _, it := range items {
				if it.IsMarker() {
					toks = append(toks, *it.Marker)
				}
			}
			if len(toks) != 1 || toks[0] != tt.want {
				t.Errorf("Lex(%q) markers = %+v, want [%+v]", tt.input, toks, tt.want)
			}
		})
	}
}

func TestLexNonMarkersStayText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain x words", input: "excellent xylophone example"},
		{name: "partial prefix", input: "xqa then nothing"},
		{name: "prefix-like with break", input: "xq-am is not a marker"},
		{name: "block tag interrupts prefix", input: "xq<div>am</div>s6831t66616374z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) error = %v", tt.input, err)
			}
			if len(items) != 1 || items[0].IsMarker() || items[0].Text != tt.input {
				t.Errorf("Lex(%q) = %+v, want single text item", tt.input, items)
			}
		})
	}
}

func TestLexCorruptedMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "unterminated at end of input", input: "trailing xqamk68"},
		{name: "bare prefix", input: "just xqam"},
		{name: "block tag inside payload", input: "xqamk68<div>31z</div>"},
		{name: "uppercase inside payload", input: "xqamk68QQz"},
		{name: "malformed payload", input: "xqamst68z"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Lex(tt.input)
			if !errors.Is(err, ErrCorruptedMarker) {
				t.Errorf("Lex(%q) error = %v, want ErrCorruptedMarker", tt.input, err)
			}
		})
	}
}

func TestLexCorruptionContextWindow(t *testing.T) {
	t.Parallel()

	_, err := Lex("some surrounding context xqamk68 and no terminator anywhere")
	if !errors.Is(err, ErrCorruptedMarker) {
		t.Fatalf("Lex() error = %v, want ErrCorruptedMarker", err)
	}
	if msg := err.Error(); !contains(msg, "surrounding context") {
		t.Errorf("Lex() error %q lacks context window", msg)
	}
}

func TestParseStitched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    marker.Token
		wantErr bool
	}{
		{
			name:    "start",
			payload: "s6831t66616374z",
			want:    marker.Token{Kind: marker.Start, HighlightID: "h1", Tag: "fact"},
		},
		{
			name:    "end",
			payload: "k6831z",
			want:    marker.Token{Kind: marker.End, HighlightID: "h1"},
		},
		{
			name:    "annotation",
			payload: "m6831n12z",
			want:    marker.Token{Kind: marker.Annotation, HighlightID: "h1", CommentIndex: 12},
		},
		{name: "missing terminator", payload: "k6831", wantErr: true},
		{name: "start without tag", payload: "s6831z", wantErr: true},
		{name: "unknown kind", payload: "t6831z", wantErr: true},
		{name: "empty", payload: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStitched(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStitched(%q) expected error", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStitched(%q) error = %v", tt.payload, err)
			}
			if got != tt.want {
				t.Errorf("ParseStitched(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestLexRoundTripManyMarkers(t *testing.T) {
	t.Parallel()

	toks := []marker.Token{
		{Kind: marker.Start, HighlightID: "a", Tag: "fact"},
		{Kind: marker.Start, HighlightID: "b", Tag: "issue"},
		{Kind: marker.Annotation, HighlightID: "a", CommentIndex: 0},
		{Kind: marker.End, HighlightID: "a"},
		{Kind: marker.End, HighlightID: "b"},
	}

	input := ""
	for _, tok := range toks {
		input += "word " + tok.Literal()
	}

	items, err := Lex(input)
	if err != nil {
		t.Fatalf("Lex() error = %v", err)
	}

	var got []marker.Token
	for _, it := range items {
		if it.IsMarker() {
			got = append(got, *it.Marker)
		}
	}
	if len(got) != len(toks) {
		t.Fatalf("Lex() recovered %d markers, want %d", len(got), len(toks))
	}
	for i := range toks {
		if got[i] != toks[i] {
			t.Errorf("marker %d = %+v, want %+v", i, got[i], toks[i])
		}
	}
}

func assertItems(t *testing.T, got, want []Item) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Lex() = %d items, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if want[i].IsMarker() {
			if !got[i].IsMarker() || *got[i].Marker != *want[i].Marker {
				t.Errorf("item %d = %+v, want marker %+v", i, got[i], *want[i].Marker)
			}
			continue
		}
		if got[i].IsMarker() || got[i].Text != want[i].Text {
			t.Errorf("item %d = %+v, want text %q", i, got[i], want[i].Text)
		}
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
