// Package pipeline implements the external conversion boundary.
//
// The converter is deliberately annotation-unaware: it is the black box the
// marker pipeline defends against. The production implementation is
// goldmark, which re-escapes text, reflows runs at style boundaries, and
// restructures lists — exactly the distortions the lexer and reconstructor
// must look through. Integration tests run this real converter, never a
// mock: its reflow behaviour is the thing under test.
//
// The contract required of any implementation: marker sentinels survive as
// inert text (possibly reflowed, re-escaped, or split across structural
// boundaries, but never deleted or merged), and the source's structural
// shape (paragraphs, lists) is preserved in the output tree.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrConversion indicates the external converter failed.
var ErrConversion = errors.New("external conversion failed")

// htmlTemplate wraps goldmark's fragment output in a complete HTML5 document.
const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Document</title>
</head>
<body>
%s
</body>
</html>`

// GoldmarkConverter converts marker-laden Markdown to HTML using goldmark.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions and
// syntax highlighting.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		// Auto heading ids stay off: they copy heading text, marker
		// sentinels included, into id attributes where excision cannot
		// reach them.
		goldmark.WithRendererOptions(
			// Hard wraps stay on: they make the converter insert <br/>
			// mid-paragraph, the harshest split case the lexer handles.
			html.WithHardWraps(),
			html.WithXHTML(),
			// WithUnsafe() intentionally NOT used; raw HTML in source must
			// not reach the output.
		),
	)
	return &GoldmarkConverter{md: md}
}

// Convert converts marker-laden content to a standalone HTML5 document.
// Supports context cancellation via goroutine + select since goldmark does
// not take a context.
func (c *GoldmarkConverter) Convert(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrConversion, err)}
			return
		}
		done <- result{html: fmt.Sprintf(htmlTemplate, buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
