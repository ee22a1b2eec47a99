package annotpdf

// Highlight colours are emitted inline by the reconstructor (they come from
// the caller's palette); the generated CSS covers the structural styling:
// mark padding, the many-overlap underline, comment anchors, and the
// comments section.

// buildHighlightCSS generates CSS for highlight constructs.
func buildHighlightCSS() string {
	return `
/* Highlights */
mark.hl {
  padding: 0.05em 0;
  border-radius: 2px;
  color: inherit;
}
mark.hl mark.hl-blend {
  padding: 0.05em 0;
}
/* Three or more overlapping highlights: underline, no colour stacking */
span.hl-overlap {
  background: none;
  border-bottom: 3px double #555;
  padding-bottom: 0.05em;
}
sup.cmt-ref {
  font-size: 0.7em;
  line-height: 0;
}
sup.cmt-ref a {
  text-decoration: none;
  color: #1a4f8b;
}
`
}

// buildCommentsCSS generates CSS for the comments endnotes section.
func buildCommentsCSS() string {
	return `
/* Comments section */
section.comments {
  margin-top: 2em;
  padding-top: 1em;
  border-top: 1px solid #ccc;
  break-before: auto;
}
section.comments h2 {
  font-size: 1.1em;
}
section.comments ol {
  padding-left: 1.5em;
}
section.comments li {
  margin-bottom: 0.4em;
  font-size: 0.9em;
}
section.comments .cmt-author {
  font-weight: bold;
}
section.comments .cmt-backref {
  text-decoration: none;
  color: #1a4f8b;
  margin-right: 0.3em;
}
`
}
