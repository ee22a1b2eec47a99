package annotpdf

import (
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-annotpdf/internal/rebuild"
)

// injectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
// CSS content is sanitized to prevent injection attacks.
func injectCSS(htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		closeIdx := strings.Index(htmlContent[idx:], ">")
		if closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could close a <style> block prematurely.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// injectComments appends a comments endnotes section before </body>: one
// entry per comment with a back-link to its in-text anchor. Comment text is
// escaped; it is user content, not markup.
func injectComments(htmlContent string, comments []Comment) string {
	if len(comments) == 0 {
		return htmlContent
	}

	indexFor := map[string]int{}
	var sec strings.Builder
	sec.WriteString(`<section class="comments"><h2>Comments</h2><ol>`)
	for _, c := range comments {
		idx := indexFor[c.HighlightID]
		indexFor[c.HighlightID]++
		slug := rebuild.AnchorSlug(c.HighlightID, idx)

		sec.WriteString(fmt.Sprintf(`<li id="cmt-%s">`, slug))
		sec.WriteString(fmt.Sprintf(`<a class="cmt-backref" href="#cmt-ref-%s">&#8617;</a>`, slug))
		if c.Author != "" {
			sec.WriteString(fmt.Sprintf(`<span class="cmt-author">%s</span> `, html.EscapeString(c.Author)))
		}
		sec.WriteString(html.EscapeString(c.Text))
		sec.WriteString(`</li>`)
	}
	sec.WriteString(`</ol></section>`)

	lowerHTML := strings.ToLower(htmlContent)
	if idx := strings.LastIndex(lowerHTML, "</body>"); idx != -1 {
		return htmlContent[:idx] + sec.String() + htmlContent[idx:]
	}
	return htmlContent + sec.String()
}
